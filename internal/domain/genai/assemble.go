package genai

import (
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"
	"sync/atomic"
)

const (
	TypeContentBlockDelta = "content_block_delta"
	TypeMessageStop       = "message_stop"
)

type streamMessage struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

// SkipFunc observes payloads that could not be decoded. It may be nil.
type SkipFunc func(payload []byte, err error)

// Assemble turns a raw event stream into an ordered, lazy sequence of text
// fragments. content_block_delta events yield their delta text, message_stop
// yields a trailing "\n" and ends the sequence, every other type is ignored.
// Empty envelopes and undecodable payloads are skipped.
//
// The sequence can be ranged over once. The stream is closed when iteration
// ends, whether it ran to completion or the caller stopped early.
func Assemble(stream EventStream, onSkip SkipFunc) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}
		defer stream.Close()

		for {
			ev, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(ev.Chunk) == 0 {
				continue
			}

			var msg streamMessage
			if err := json.Unmarshal(ev.Chunk, &msg); err != nil {
				if onSkip != nil {
					onSkip(ev.Chunk, err)
				}
				continue
			}

			switch msg.Type {
			case TypeContentBlockDelta:
				if msg.Delta.Text == "" {
					continue
				}
				if !yield(msg.Delta.Text, nil) {
					return
				}
			case TypeMessageStop:
				yield("\n", nil)
				return
			}
		}
	}
}

// Collect concatenates every fragment of seq in order. On error it returns
// the text assembled so far together with the error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// SliceStream is an in-memory EventStream over a fixed list of events.
// Close may be called from another goroutine.
type SliceStream struct {
	Events []Event
	pos    int
	closed atomic.Bool
}

func (s *SliceStream) Recv() (Event, error) {
	if s.closed.Load() || s.pos >= len(s.Events) {
		return Event{}, io.EOF
	}
	ev := s.Events[s.pos]
	s.pos++
	return ev, nil
}

func (s *SliceStream) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (s *SliceStream) Closed() bool { return s.closed.Load() }

// Consumed returns how many events have been received.
func (s *SliceStream) Consumed() int { return s.pos }
