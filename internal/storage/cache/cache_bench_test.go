package storage

import (
	"strconv"
	"testing"
)

// nullPersistence - заглушка журнала для бенчмарков.
type nullPersistence struct{}

func (nullPersistence) Write(cmd, key, value string) error { return nil }

func newTestCache() *Cache {
	return New(nullPersistence{})
}

func BenchmarkInsert(b *testing.B) {
	c := newTestCache()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Insert("host"+strconv.Itoa(i)+".example", "10.0.0.1")
	}
}

func BenchmarkLookup(b *testing.B) {
	c := newTestCache()

	for i := 0; i < 10000; i++ {
		c.Insert("host"+strconv.Itoa(i)+".example", "10.0.0.1")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Lookup("host" + strconv.Itoa(i%10000) + ".example")
	}
}

func BenchmarkLookupParallel(b *testing.B) {
	c := newTestCache()

	for i := 0; i < 10000; i++ {
		c.Insert("host"+strconv.Itoa(i)+".example", "10.0.0.1")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Lookup("host" + strconv.Itoa(i%10000) + ".example")
			i++
		}
	})
}

func BenchmarkMixedParallel(b *testing.B) {
	c := newTestCache()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := "host" + strconv.Itoa(i%5000) + ".example"
			if i%5 == 0 {
				c.Insert(key, "10.0.0.1")
			} else {
				c.Lookup(key)
			}
			i++
		}
	})
}

func BenchmarkSnapshot(b *testing.B) {
	c := newTestCache()

	for i := 0; i < 10000; i++ {
		c.Insert("host"+strconv.Itoa(i)+".example", "10.0.0.1")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Snapshot()
	}
}
