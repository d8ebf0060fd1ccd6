package AOF

import (
	"bufio"
	"os"
	"sync"
)

/*

	AOF - журнал вставок в кеш между снапшотами.
	Запись через буферизованный канал - одна горутина-writer.
	После успешного снапшота журнал обрезается (Checkpoint).

*/

type AOF struct {
	file      *os.File
	path      string
	writer    *bufio.Writer
	mu        sync.Mutex // file, writer, checkpointing, pending
	writeCh   chan writeEntry
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Пока идёт checkpoint, новые записи дублируются в pending:
	// они могли не попасть в снапшот.
	checkpointing bool
	pending       [][]byte
}

// writeEntry - запись в очередь AOF.
type writeEntry struct {
	data []byte
	ack  chan struct{}
}

// WriteInput - входные данные для записи в AOF.
type WriteInput struct {
	Cmd   string
	Key   string
	Value string
}

// ReadResult - результат чтения AOF.
type ReadResult struct {
	ValidEntries   int    // число корректных записей
	CorruptEntries int    // число записей с битым CRC
	Truncated      bool   // был ли файл обрезан
	TruncatedAt    int64  // позиция обрезки (байт)
	Reason         string // почему обрезан
}
