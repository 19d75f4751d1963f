package azclient

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elee1766/nl2sql/src/aisdk"
)

const maxSSELineSize = 1 << 20

// sseStream reads chat completion chunks from a server-sent events body.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *slog.Logger
	done    bool
	closed  bool
}

func newSSEStream(body io.ReadCloser, logger *slog.Logger) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &sseStream{
		body:    body,
		scanner: scanner,
		logger:  logger,
	}
}

// Read returns the next chunk, or io.EOF after the [DONE] sentinel.
func (s *sseStream) Read() (*aisdk.StreamChunk, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		data, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			// event:, id: and retry: fields carry nothing we use.
			continue
		}
		data = bytes.TrimSpace(data)
		if bytes.Equal(data, []byte("[DONE]")) {
			s.done = true
			return nil, io.EOF
		}

		if bytes.HasPrefix(data, []byte(`{"error"`)) {
			var errResp ErrorResponse
			if err := json.Unmarshal(data, &errResp); err == nil {
				return nil, &APIError{
					StatusCode: 200,
					Type:       errResp.Error.Type,
					Message:    errResp.Error.Message,
					Code:       errResp.Error.Code,
				}
			}
		}

		var chunk aisdk.StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			s.logger.Debug("undecodable stream event", "data", string(data), "error", err)
			return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		return &chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	s.done = true
	return nil, io.EOF
}

func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
