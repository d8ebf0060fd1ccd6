package server

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxLen  int
		want    string
		wantErr error
	}{
		{name: "plain", input: "example.com\n", maxLen: 64, want: "example.com"},
		{name: "telnet CRLF", input: "example.com\r\n", maxLen: 64, want: "example.com"},
		{name: "only one CR stripped", input: "example.com\r\r\n", maxLen: 64, want: "example.com\r"},
		{name: "rest of stream ignored", input: "a.test\nb.test\n", maxLen: 64, want: "a.test"},
		{name: "exactly max", input: strings.Repeat("x", 16) + "\n", maxLen: 16, want: strings.Repeat("x", 16)},
		{name: "over max", input: strings.Repeat("x", 17) + "\n", maxLen: 16, wantErr: ErrLineTooLong},
		{name: "overflows buffer", input: strings.Repeat("x", 4096) + "\n", maxLen: 64, wantErr: ErrLineTooLong},
		{name: "empty", input: "\n", maxLen: 64, wantErr: ErrEmptyRequest},
		{name: "empty CRLF", input: "\r\n", maxLen: 64, wantErr: ErrEmptyRequest},
		{name: "bad utf8", input: "ex\xffample.com\n", maxLen: 64, wantErr: ErrInvalidUTF8},
		{name: "closed before newline", input: "example.com", maxLen: 64, wantErr: io.EOF},
		{name: "closed immediately", input: "", maxLen: 64, wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReaderSize(strings.NewReader(tt.input), readerSize(tt.maxLen))
			got, err := readRequest(r, tt.maxLen)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			var ce *ConnectionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "read", ce.Op)
		})
	}
}

func TestReplyReason(t *testing.T) {
	assert.Equal(t, "no such host", replyReason(errors.New("no such host")))
	assert.Equal(t, "dial udp: i/o timeout", replyReason(errors.New("dial udp:\ni/o  timeout\r")))
}
