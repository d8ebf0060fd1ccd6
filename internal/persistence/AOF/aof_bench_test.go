package AOF

import (
	"strconv"
	"testing"
)

func setupBenchAOF(b *testing.B) *AOF {
	b.Helper()

	a, err := NewAOF(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { a.Close() })

	return a
}

func BenchmarkAOFWrite(b *testing.B) {
	a := setupBenchAOF(b)

	input := WriteInput{
		Cmd:   "SET",
		Key:   "bench.example",
		Value: "10.0.0.1",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Write(input)
	}
}

func BenchmarkAOFWriteUniqueKeys(b *testing.B) {
	a := setupBenchAOF(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Write(WriteInput{
			Cmd:   "SET",
			Key:   "host" + strconv.Itoa(i) + ".example",
			Value: "10.0.0.1",
		})
	}
}

func BenchmarkBuildEntry(b *testing.B) {
	input := WriteInput{Cmd: "SET", Key: "bench.example", Value: "10.0.0.1"}

	for i := 0; i < b.N; i++ {
		buildEntry(input)
	}
}
