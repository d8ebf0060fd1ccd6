package AOF

import (
	"bufio"
	"hash/crc64"
	"io"
	"strconv"
	"strings"
)

const maxScanSize = 1024 * 1024 // 1MB макс размер строки

// Read считывает все записи из AOF, проверяя CRC64.
// Формат строки: crc64hex|cmd|key|value
// При обнаружении битой записи - обрезает файл до последней валидной.
// Возвращает ReadResult с информацией о восстановлении.
func (a *AOF) Read(rf func(cmd, key, value string)) (*ReadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Всё, что ещё в буфере, должно попасть в файл до чтения
	if err := a.writer.Flush(); err != nil {
		return nil, err
	}

	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	result := &ReadResult{}
	scanner := bufio.NewScanner(a.file)
	scanner.Buffer(make([]byte, 64*1024), maxScanSize)

	var lastValidPos int64

	corrupt := func(reason string) {
		result.Reason = reason
		result.CorruptEntries++
		result.Truncated = true
		result.TruncatedAt = lastValidPos
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineLen := int64(len(scanner.Bytes())) + 1 // +1 для \n

		// Первый | отделяет CRC от payload
		sepIdx := strings.IndexByte(line, '|')
		if sepIdx < 1 {
			corrupt("corrupt entry (no CRC separator)")
			break
		}

		crcHex := line[:sepIdx]
		payload := line[sepIdx+1:]

		storedCRC, err := strconv.ParseUint(crcHex, 16, 64)
		if err != nil {
			corrupt("corrupt CRC")
			break
		}

		if computed := crc64.Checksum([]byte(payload), crcTable); storedCRC != computed {
			corrupt("CRC mismatch")
			break
		}

		// payload: cmd|key|value. В домене может встретиться '|',
		// в IP - нет, поэтому value режем по последнему разделителю.
		cmdEnd := strings.IndexByte(payload, '|')
		valStart := strings.LastIndexByte(payload, '|')
		if cmdEnd < 0 || valStart == cmdEnd {
			corrupt("malformed payload")
			break
		}

		result.ValidEntries++
		lastValidPos += lineLen
		rf(payload[:cmdEnd], payload[cmdEnd+1:valStart], payload[valStart+1:])
	}

	if err := scanner.Err(); err != nil {
		return result, err
	}

	// Обрезаем файл если нашли corruption
	if result.Truncated {
		if err := a.file.Truncate(result.TruncatedAt); err != nil {
			return result, err
		}
	}

	// Перемещаем seek на конец для дальнейшей записи
	if _, err := a.file.Seek(0, io.SeekEnd); err != nil {
		return result, err
	}

	return result, nil
}
