package genai

import "context"

// GuardrailDraftVersion is the version tag attached to every guardrail.
const GuardrailDraftVersion = "DRAFT"

// Guardrail is an optional moderation policy attached to generation calls.
type Guardrail struct {
	ID      string
	Version string
}

// NewGuardrail returns nil when id is empty so callers can pass the result
// straight through to Generator calls.
func NewGuardrail(id string) *Guardrail {
	if id == "" {
		return nil
	}
	return &Guardrail{ID: id, Version: GuardrailDraftVersion}
}

// Event is one envelope of a streaming response. A nil or empty Chunk is a
// heartbeat frame.
type Event struct {
	Chunk []byte
}

// EventStream is a pull-based transport stream. Recv returns io.EOF after the
// last event. Close releases the transport and is safe to call more than once.
type EventStream interface {
	Recv() (Event, error)
	Close() error
}

// Generator port (text generation service). body is the JSON request document.
type Generator interface {
	Invoke(ctx context.Context, modelID string, body []byte, g *Guardrail) ([]byte, error)
	InvokeStream(ctx context.Context, modelID string, body []byte, g *Guardrail) (EventStream, error)
}
