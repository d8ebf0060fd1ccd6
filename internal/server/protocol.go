package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrLineTooLong  = errors.New("request line too long")
	ErrEmptyRequest = errors.New("empty request")
	ErrInvalidUTF8  = errors.New("request is not valid UTF-8")
)

// ConnectionError - сбой на уровне одного соединения: обрыв, таймаут,
// некорректная строка. Обрабатывается закрытием соединения.
type ConnectionError struct {
	Op  string // "read" или "write"
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// readerSize - буфер, в который помещается строка максимальной длины
// вместе с \r и \n.
func readerSize(maxLen int) int {
	return maxLen + 2
}

// readRequest читает одну строку до \n. Разделитель и один завершающий \r
// отбрасываются. Соединение, закрытое до \n, считается ошибкой.
func readRequest(r *bufio.Reader, maxLen int) (string, error) {
	line, err := r.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			err = ErrLineTooLong
		}
		return "", &ConnectionError{Op: "read", Err: err}
	}

	line = bytes.TrimSuffix(line[:len(line)-1], []byte{'\r'})

	switch {
	case len(line) > maxLen:
		return "", &ConnectionError{Op: "read", Err: ErrLineTooLong}
	case len(line) == 0:
		return "", &ConnectionError{Op: "read", Err: ErrEmptyRequest}
	case !utf8.Valid(line):
		return "", &ConnectionError{Op: "read", Err: ErrInvalidUTF8}
	}

	return string(line), nil
}
