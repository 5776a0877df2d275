package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
)

// MaxPromptChars bounds the prompt of blocking calls. Streaming calls send
// the prompt untruncated.
const MaxPromptChars = 4000

var ErrEmptyQuestion = fmt.Errorf("%w: question is required", domain.ErrValidation)

// Service answers follow-up questions about a completed analysis.
type Service struct {
	Generator genai.Generator
	ModelID   string
	MaxTokens int
	Guardrail *genai.Guardrail
	Logger    *slog.Logger
}

// Ask sends a blocking request and returns the trimmed answer.
func (s *Service) Ask(ctx context.Context, rec *domain.AnalysisRecord, area, question string) (string, error) {
	if question == "" {
		return "", ErrEmptyQuestion
	}
	prompt := Truncate(Prompt(BuildContext(rec, area), question), MaxPromptChars)

	body, err := s.requestBody(prompt)
	if err != nil {
		return "", err
	}
	raw, err := s.Generator.Invoke(ctx, s.ModelID, body, s.Guardrail)
	if err != nil {
		return "", invocationError(err)
	}

	var resp genai.MessagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", genai.ErrInvocation, err)
	}
	return resp.Text(), nil
}

// AskStream sends a streaming request and returns the lazy fragment
// sequence. The sequence must be ranged over at most once. The stream is
// closed when iteration ends or ctx is done, whichever comes first.
func (s *Service) AskStream(ctx context.Context, rec *domain.AnalysisRecord, area, question string) (iter.Seq2[string, error], error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	prompt := Prompt(BuildContext(rec, area), question)

	body, err := s.requestBody(prompt)
	if err != nil {
		return nil, err
	}
	stream, err := s.Generator.InvokeStream(ctx, s.ModelID, body, s.Guardrail)
	if err != nil {
		return nil, invocationError(err)
	}

	// Callers that drop the sequence without ranging over it rely on ctx
	// cancellation to release the stream.
	stop := context.AfterFunc(ctx, func() { stream.Close() })

	log := s.logger()
	seq := genai.Assemble(stream, func(payload []byte, err error) {
		log.DebugContext(ctx, "skipping malformed stream event", "analysis_id", rec.ID, "bytes", len(payload), "error", err)
	})
	return func(yield func(string, error) bool) {
		defer stop()
		seq(yield)
	}, nil
}

func (s *Service) requestBody(prompt string) ([]byte, error) {
	body, err := json.Marshal(genai.NewUserRequest(prompt, s.MaxTokens))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return body, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func invocationError(err error) error {
	if errors.Is(err, genai.ErrInvocation) || errors.Is(err, genai.ErrQuotaExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", genai.ErrInvocation, err)
}
