package AOF

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, a *AOF) (map[string]string, *ReadResult) {
	t.Helper()

	got := make(map[string]string)
	result, err := a.Read(func(cmd, key, value string) {
		if cmd == "SET" {
			got[key] = value
		}
	})
	require.NoError(t, err)
	return got, result
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	a, err := NewAOF(dir)
	require.NoError(t, err)

	require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "example.com", Value: "93.184.216.34"}))
	require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "weird|name", Value: "10.0.0.1"}))
	require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "example.com", Value: "93.184.216.35"}))
	require.NoError(t, a.Close())

	b, err := NewAOF(dir)
	require.NoError(t, err)
	defer b.Close()

	got, result := readAll(t, b)
	assert.Equal(t, map[string]string{
		"example.com": "93.184.216.35",
		"weird|name":  "10.0.0.1",
	}, got)
	assert.Equal(t, 3, result.ValidEntries)
	assert.False(t, result.Truncated)
}

func TestWriteAfterClose(t *testing.T) {
	a, err := NewAOF(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "second close is a no-op")

	assert.ErrorIs(t, a.Write(WriteInput{Cmd: "SET", Key: "k", Value: "v"}), ErrClosed)
	assert.ErrorIs(t, a.Sync(), ErrClosed)
}

// TestCrashRecoveryTornTail - имитация краша посреди записи: хвост файла
// битый, всё до него должно восстановиться, файл обрезается.
func TestCrashRecoveryTornTail(t *testing.T) {
	dir := t.TempDir()

	const numKeys = 1000

	a, err := NewAOF(dir)
	require.NoError(t, err)

	want := make(map[string]string, numKeys)
	for i := 0; i < numKeys; i++ {
		key := "host" + strconv.Itoa(i) + ".example"
		val := "10.0." + strconv.Itoa(i/256) + "." + strconv.Itoa(i%256)
		want[key] = val
		require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: key, Value: val}))
	}
	require.NoError(t, a.Sync())

	stat, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	validSize := stat.Size()

	// Имитация краша: недописанная запись без Close
	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("deadbeef|SET|torn.example|10.9")
	require.NoError(t, err)
	f.Close()

	start := time.Now()

	b, err := NewAOF(dir)
	require.NoError(t, err)
	defer b.Close()

	got, result := readAll(t, b)

	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║     CRASH RECOVERY TEST: TORN TAIL + CRC64       ║")
	fmt.Println("╠══════════════════════════════════════════════════╣")
	fmt.Printf("║  Valid entries:   %6d                         ║\n", result.ValidEntries)
	fmt.Printf("║  Corrupt entries: %6d                         ║\n", result.CorruptEntries)
	fmt.Printf("║  Truncated at:    %6d                         ║\n", result.TruncatedAt)
	fmt.Printf("║  Recovery time:   %v                        ║\n", time.Since(start).Round(time.Microsecond))
	fmt.Println("╚══════════════════════════════════════════════════╝")

	assert.Equal(t, want, got)
	assert.Equal(t, numKeys, result.ValidEntries)
	assert.Equal(t, 1, result.CorruptEntries)
	assert.True(t, result.Truncated)
	assert.Equal(t, validSize, result.TruncatedAt)

	stat, err = os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, validSize, stat.Size(), "torn tail must be cut off")

	// Журнал продолжает писаться после обрезки
	require.NoError(t, b.Write(WriteInput{Cmd: "SET", Key: "after.example", Value: "10.1.1.1"}))
	require.NoError(t, b.Sync())
	got, result = readAll(t, b)
	assert.Equal(t, "10.1.1.1", got["after.example"])
	assert.False(t, result.Truncated)
}

func TestCRCMismatchStopsReplay(t *testing.T) {
	dir := t.TempDir()

	good := buildEntry(WriteInput{Cmd: "SET", Key: "good.example", Value: "1.1.1.1"})
	bad := buildEntry(WriteInput{Cmd: "SET", Key: "bad.example", Value: "2.2.2.2"})
	bad[len(bad)-2] = '9' // портим value, CRC остаётся старым
	after := buildEntry(WriteInput{Cmd: "SET", Key: "after.example", Value: "3.3.3.3"})

	content := append(append(append([]byte{}, good...), bad...), after...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), content, 0644))

	a, err := NewAOF(dir)
	require.NoError(t, err)
	defer a.Close()

	got, result := readAll(t, a)
	assert.Equal(t, map[string]string{"good.example": "1.1.1.1"}, got)
	assert.Equal(t, "CRC mismatch", result.Reason)
	assert.Equal(t, int64(len(good)), result.TruncatedAt)
}

func TestCheckpointTruncatesJournal(t *testing.T) {
	a, err := NewAOF(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "k" + strconv.Itoa(i), Value: "v"}))
	}
	require.NoError(t, a.Sync())

	saved := false
	require.NoError(t, a.Checkpoint(func() error {
		saved = true
		return nil
	}))
	assert.True(t, saved)

	got, result := readAll(t, a)
	assert.Empty(t, got)
	assert.Equal(t, 0, result.ValidEntries)
}

func TestCheckpointKeepsWritesDuringSave(t *testing.T) {
	a, err := NewAOF(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "before.example", Value: "1.1.1.1"}))
	require.NoError(t, a.Sync())

	require.NoError(t, a.Checkpoint(func() error {
		// Вставка пришла, пока писался снапшот
		require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "during.example", Value: "2.2.2.2"}))
		return a.Sync()
	}))

	got, _ := readAll(t, a)
	assert.Equal(t, map[string]string{"during.example": "2.2.2.2"}, got)
}

func TestCheckpointSaveErrorKeepsJournal(t *testing.T) {
	a, err := NewAOF(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Write(WriteInput{Cmd: "SET", Key: "keep.example", Value: "1.1.1.1"}))
	require.NoError(t, a.Sync())

	saveErr := fmt.Errorf("disk full")
	assert.ErrorIs(t, a.Checkpoint(func() error { return saveErr }), saveErr)

	got, _ := readAll(t, a)
	assert.Equal(t, "1.1.1.1", got["keep.example"])
}

func TestPersisterSyncMakesWritesVisible(t *testing.T) {
	dir := t.TempDir()

	p, err := NewPersister(dir)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, filepath.Join(dir, fileName), p.Path())

	require.NoError(t, p.Write("SET", "example.com", "93.184.216.34"))
	require.NoError(t, p.Sync())

	// без Close: после Sync запись уже в файле, второй читатель её видит
	b, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.Contains(t, string(b), "|SET|example.com|93.184.216.34\n")

	other, err := NewAOF(dir)
	require.NoError(t, err)
	defer other.Close()

	got, result := readAll(t, other)
	assert.Equal(t, map[string]string{"example.com": "93.184.216.34"}, got)
	assert.Equal(t, 1, result.ValidEntries)
}
