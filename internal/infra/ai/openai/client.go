package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/ai/anthropic"
)

// Client serves the messages document over an OpenAI-compatible chat
// completion API and re-shapes the output into messages responses and
// stream envelopes.
type Client struct {
	*openai.Client
	Model string
}

// NewClient builds a client. baseURL may be empty for the public API.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Transport: &guardrailTransport{base: http.DefaultTransport}}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Invoke(ctx context.Context, modelID string, body []byte, g *genai.Guardrail) ([]byte, error) {
	req, err := c.chatRequest(modelID, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.CreateChatCompletion(withGuardrail(ctx, g), req)
	if err != nil {
		return nil, mapError(err)
	}

	var out genai.MessagesResponse
	if len(resp.Choices) > 0 {
		out.Content = []genai.ContentBlock{{Type: genai.ContentTypeText, Text: resp.Choices[0].Message.Content}}
	}
	return json.Marshal(out)
}

func (c *Client) InvokeStream(ctx context.Context, modelID string, body []byte, g *genai.Guardrail) (genai.EventStream, error) {
	req, err := c.chatRequest(modelID, body)
	if err != nil {
		return nil, err
	}
	stream, err := c.CreateChatCompletionStream(withGuardrail(ctx, g), req)
	if err != nil {
		return nil, mapError(err)
	}
	return &eventStream{stream: stream}, nil
}

func (c *Client) chatRequest(modelID string, body []byte) (openai.ChatCompletionRequest, error) {
	var in genai.MessagesRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return openai.ChatCompletionRequest{}, fmt.Errorf("%w: decode request: %w", genai.ErrInvocation, err)
	}

	model := modelID
	if model == "" {
		model = c.Model
	}
	req := openai.ChatCompletionRequest{Model: model}
	for _, m := range in.Messages {
		var text strings.Builder
		for _, block := range m.Content {
			text.WriteString(block.Text)
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: text.String()})
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = in.MaxTokens
	} else {
		req.MaxTokens = in.MaxTokens
	}
	return req, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", genai.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", genai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", genai.ErrInvocation, err)
}

type guardrailKey struct{}

func withGuardrail(ctx context.Context, g *genai.Guardrail) context.Context {
	if g == nil {
		return ctx
	}
	return context.WithValue(ctx, guardrailKey{}, g)
}

// guardrailTransport copies the request's guardrail into headers.
type guardrailTransport struct {
	base http.RoundTripper
}

func (t *guardrailTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	g, _ := r.Context().Value(guardrailKey{}).(*genai.Guardrail)
	if g == nil {
		return t.base.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	anthropic.SetGuardrailHeaders(r.Header, g)
	return t.base.RoundTrip(r)
}

// eventStream emits content_block_delta envelopes and a single
// message_stop before io.EOF.
type eventStream struct {
	stream  *openai.ChatCompletionStream
	stopped bool
	pending bool

	once     sync.Once
	closeErr error
}

var stopEnvelope = []byte(`{"type":"message_stop"}`)

type deltaEnvelope struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (s *eventStream) Recv() (genai.Event, error) {
	if s.stopped {
		return genai.Event{}, io.EOF
	}
	if s.pending {
		s.stopped = true
		return genai.Event{Chunk: stopEnvelope}, nil
	}

	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		s.stopped = true
		return genai.Event{Chunk: stopEnvelope}, nil
	}
	if err != nil {
		return genai.Event{}, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return genai.Event{}, nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason != "" {
		s.pending = true
	}
	if choice.Delta.Content == "" {
		return genai.Event{}, nil
	}

	var env deltaEnvelope
	env.Type = genai.TypeContentBlockDelta
	env.Delta.Type = "text_delta"
	env.Delta.Text = choice.Delta.Content
	chunk, err := json.Marshal(env)
	if err != nil {
		return genai.Event{}, err
	}
	return genai.Event{Chunk: chunk}, nil
}

func (s *eventStream) Close() error {
	s.once.Do(func() { s.closeErr = s.stream.Close() })
	return s.closeErr
}
