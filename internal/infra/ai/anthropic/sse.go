package anthropic

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
)

// sseStream reads server-sent events. Every frame becomes one envelope:
// the joined data lines, or an empty chunk for frames without data.
type sseStream struct {
	body io.ReadCloser
	r    *bufio.Reader

	once sync.Once
	err  error
	done bool
}

func newSSEStream(body io.ReadCloser) *sseStream {
	return &sseStream{body: body, r: bufio.NewReader(body)}
}

func (s *sseStream) Recv() (genai.Event, error) {
	if s.done {
		return genai.Event{}, io.EOF
	}

	var (
		data    bytes.Buffer
		hasData bool
		seen    bool
	)
	for {
		line, err := s.r.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimRight(line, "\r\n")
			if len(line) == 0 {
				if seen {
					return frame(data.Bytes(), hasData), nil
				}
			} else {
				seen = true
				if field, value, ok := parseField(line); ok && field == "data" {
					if hasData {
						data.WriteByte('\n')
					}
					data.Write(value)
					hasData = true
				}
			}
		}
		if err != nil {
			s.done = true
			if errors.Is(err, io.EOF) {
				if seen {
					return frame(data.Bytes(), hasData), nil
				}
				return genai.Event{}, io.EOF
			}
			return genai.Event{}, fmt.Errorf("%w: read stream: %w", genai.ErrInvocation, err)
		}
	}
}

func (s *sseStream) Close() error {
	s.once.Do(func() { s.err = s.body.Close() })
	return s.err
}

func frame(data []byte, hasData bool) genai.Event {
	if !hasData {
		return genai.Event{}
	}
	return genai.Event{Chunk: bytes.Clone(data)}
}

// parseField splits "field: value". Comment lines (leading ':') are not fields.
func parseField(line []byte) (field string, value []byte, ok bool) {
	if line[0] == ':' {
		return "", nil, false
	}
	name, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		return string(name), nil, true
	}
	return string(name), bytes.TrimPrefix(value, []byte(" ")), true
}
