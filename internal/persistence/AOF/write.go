package AOF

import (
	"bufio"
	"errors"
	"hash/crc64"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	fileName      = "journal.aof"
	writeBufSize  = 64 * 1024   // 64KB буфер bufio.Writer
	channelSize   = 4096        // размер канала записей
	flushInterval = time.Second // fsync каждую секунду
)

// ErrClosed - запись в закрытый журнал.
var ErrClosed = errors.New("aof: journal closed")

// CRC64 таблица - ECMA стандарт.
var crcTable = crc64.MakeTable(crc64.ECMA)

// NewAOF открывает (или создаёт) журнал в dir и запускает writer.
func NewAOF(dir string) (*AOF, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, fileName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	a := &AOF{
		file:    f,
		path:    path,
		writer:  bufio.NewWriterSize(f, writeBufSize),
		writeCh: make(chan writeEntry, channelSize),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	go a.backgroundWriter()

	return a, nil
}

// Path возвращает путь к файлу журнала.
func (a *AOF) Path() string {
	return a.path
}

// Close останавливает writer, сбрасывает буфер и закрывает файл.
// Повторный вызов безопасен.
func (a *AOF) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.stopCh)
		<-a.done
		err = a.file.Close()
	})
	return err
}

// buildEntry собирает запись с CRC64.
// Формат: crc64hex|cmd|key|value\n
func buildEntry(input WriteInput) []byte {
	payload := make([]byte, 0, len(input.Cmd)+len(input.Key)+len(input.Value)+2)
	payload = append(payload, input.Cmd...)
	payload = append(payload, '|')
	payload = append(payload, input.Key...)
	payload = append(payload, '|')
	payload = append(payload, input.Value...)

	checksum := crc64.Checksum(payload, crcTable)
	crcHex := strconv.FormatUint(checksum, 16)

	entry := make([]byte, 0, len(crcHex)+1+len(payload)+1)
	entry = append(entry, crcHex...)
	entry = append(entry, '|')
	entry = append(entry, payload...)
	entry = append(entry, '\n')

	return entry
}

// Write формирует запись с CRC64 и отправляет в канал.
func (a *AOF) Write(input WriteInput) error {
	entry := buildEntry(input)

	select {
	case <-a.stopCh:
		return ErrClosed
	default:
	}

	select {
	case a.writeCh <- writeEntry{data: entry}:
		return nil
	case <-a.stopCh:
		return ErrClosed
	}
}

// processEntry пишет запись в файл и, во время checkpoint, в pending.
// Запись с ack - барьер от Sync: всё до неё уже обработано.
func (a *AOF) processEntry(e writeEntry) {
	if e.ack != nil {
		a.flush()
		close(e.ack)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.writer.Write(e.data)

	if a.checkpointing {
		a.pending = append(a.pending, e.data)
	}
}

// flush сбрасывает буфер и делает fsync.
func (a *AOF) flush() {
	a.mu.Lock()
	a.writer.Flush()
	a.file.Sync()
	a.mu.Unlock()
}

// backgroundWriter - единственная горутина, пишет в файл.
func (a *AOF) backgroundWriter() {
	defer close(a.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-a.writeCh:
			a.processEntry(entry)

			// Drain
			drained := true
			for drained {
				select {
				case e := <-a.writeCh:
					a.processEntry(e)
				default:
					drained = false
				}
			}

		case <-ticker.C:
			a.flush()

		case <-a.stopCh:
			for {
				select {
				case e := <-a.writeCh:
					a.processEntry(e)
				default:
					a.flush()
					return
				}
			}
		}
	}
}

// Sync дожидается, пока всё, что уже отправлено в канал, попадёт на диск.
func (a *AOF) Sync() error {
	ack := make(chan struct{})

	select {
	case a.writeCh <- writeEntry{ack: ack}:
	case <-a.stopCh:
		return ErrClosed
	}

	select {
	case <-ack:
		return nil
	case <-a.done:
		return ErrClosed
	}
}
