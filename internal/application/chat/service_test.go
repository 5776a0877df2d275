package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/wafr-accelerator/internal/application/chat"
	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
)

type call struct {
	modelID   string
	body      []byte
	guardrail *genai.Guardrail
}

type fakeGenerator struct {
	response []byte
	events   []genai.Event
	err      error
	invokes  []call
	streams  []call
	stream   *genai.SliceStream
}

func (f *fakeGenerator) Invoke(_ context.Context, modelID string, body []byte, g *genai.Guardrail) ([]byte, error) {
	f.invokes = append(f.invokes, call{modelID, body, g})
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) InvokeStream(_ context.Context, modelID string, body []byte, g *genai.Guardrail) (genai.EventStream, error) {
	f.streams = append(f.streams, call{modelID, body, g})
	if f.err != nil {
		return nil, f.err
	}
	f.stream = &genai.SliceStream{Events: f.events}
	return f.stream, nil
}

func promptOf(t *testing.T, body []byte) string {
	t.Helper()

	var req genai.MessagesRequest
	require.NoError(t, json.Unmarshal(body, &req))
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Content, 1)
	return req.Messages[0].Content[0].Text
}

func record() *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:              "a-1",
		Title:           "Payments",
		Description:     "card payments",
		Status:          domain.StatusSubmitted,
		Lens:            "AWS Well-Architected Framework",
		Submitter:       "bob",
		ReviewOwner:     "alice",
		SelectedPillars: []string{"Security", "Reliability"},
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SolutionSummary: domain.Some("three-tier web app"),
		Pillars: domain.Some([]domain.PillarResult{
			{PillarName: "Security", GeneratedResponse: "enable MFA"},
			{PillarName: "Reliability"},
		}),
	}
}

func TestBuildContext(t *testing.T) {
	t.Parallel()

	rec := record()

	summary := chat.BuildContext(rec, chat.AreaSummary)
	assert.Contains(t, summary, "Workload Name: Payments")
	assert.Contains(t, summary, "Date: 2026-01-02 03-04-05")
	assert.Contains(t, summary, "Pillars: Security, Reliability")
	assert.Contains(t, summary, "Solution Summary: three-tier web app")

	assert.Equal(t, "Solution Summary:\nthree-tier web app", chat.BuildContext(rec, chat.AreaSolutionSummary))
	assert.Equal(t, "Document:\n(not yet available)", chat.BuildContext(rec, chat.AreaDocument))
	assert.Equal(t, "enable MFA", chat.BuildContext(rec, "Security"))
	assert.Empty(t, chat.BuildContext(rec, "Reliability"), "reviewed pillar without a response")
	assert.Equal(t, chat.NotFoundContext, chat.BuildContext(rec, "Sustainability"))
	assert.Equal(t, chat.NotFoundContext, chat.BuildContext(&domain.AnalysisRecord{}, "Security"))
}

func TestAreas(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"Summary", "Solution Summary", "Document", "Security", "Reliability"},
		chat.Areas(record()))
	assert.Equal(t,
		[]string{"Summary", "Solution Summary", "Document"},
		chat.Areas(&domain.AnalysisRecord{}))
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ctx\n\nUser Question: why?", chat.Prompt("  ctx\n ", "why?"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", chat.Truncate("abcdef", 3))
	assert.Equal(t, "ab", chat.Truncate("ab", 3))
	assert.Equal(t, "héé", chat.Truncate("héééé", 3))
	assert.Equal(t, "", chat.Truncate("abc", 0))
}

func TestAsk_ReturnsTrimmedFirstBlock(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: []byte(`{"content":[{"type":"text","text":"\n  Use multi-AZ.  "}]}`)}
	svc := &chat.Service{Generator: gen, ModelID: "model-1"}

	answer, err := svc.Ask(context.Background(), record(), chat.AreaSolutionSummary, "How to improve?")

	require.NoError(t, err)
	assert.Equal(t, "Use multi-AZ.", answer)
	require.Len(t, gen.invokes, 1)
	assert.Equal(t, "model-1", gen.invokes[0].modelID)
	assert.Equal(t, "Solution Summary:\nthree-tier web app\n\nUser Question: How to improve?", promptOf(t, gen.invokes[0].body))
}

func TestAsk_EmptyContentIsEmptyAnswer(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: []byte(`{"content":[]}`)}
	svc := &chat.Service{Generator: gen}

	answer, err := svc.Ask(context.Background(), record(), chat.AreaSummary, "q")

	require.NoError(t, err)
	assert.Empty(t, answer)
}

func TestAsk_InvocationFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("throttled")
	svc := &chat.Service{Generator: &fakeGenerator{err: cause}}

	_, err := svc.Ask(context.Background(), record(), chat.AreaSummary, "q")

	require.ErrorIs(t, err, genai.ErrInvocation)
	require.ErrorIs(t, err, cause)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	svc := &chat.Service{Generator: gen}

	_, err := svc.Ask(context.Background(), record(), chat.AreaSummary, "")

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, gen.invokes)
}

func TestPromptTruncationDiffersBetweenPaths(t *testing.T) {
	t.Parallel()

	rec := record()
	rec.ExtractedDocument = domain.Some(strings.Repeat("x", 6000))
	gen := &fakeGenerator{
		response: []byte(`{"content":[{"text":"ok"}]}`),
		events:   []genai.Event{{Chunk: []byte(`{"type":"message_stop"}`)}},
	}
	svc := &chat.Service{Generator: gen}

	_, err := svc.Ask(context.Background(), rec, chat.AreaDocument, "summarize")
	require.NoError(t, err)

	seq, err := svc.AskStream(context.Background(), rec, chat.AreaDocument, "summarize")
	require.NoError(t, err)
	_, err = genai.Collect(seq)
	require.NoError(t, err)

	blocking := promptOf(t, gen.invokes[0].body)
	streaming := promptOf(t, gen.streams[0].body)

	assert.Len(t, []rune(blocking), chat.MaxPromptChars)
	assert.Greater(t, len([]rune(streaming)), chat.MaxPromptChars)
	assert.Equal(t, chat.Prompt(chat.BuildContext(rec, chat.AreaDocument), "summarize"), streaming)
	assert.True(t, strings.HasPrefix(streaming, blocking))
}

func TestAskStream_AssemblesFragments(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{events: []genai.Event{
		{Chunk: []byte(`{"type":"message_start"}`)},
		{},
		{Chunk: []byte(`{"type":"content_block_delta","delta":{"text":"Hello "}}`)},
		{Chunk: []byte(`not json`)},
		{Chunk: []byte(`{"type":"content_block_delta","delta":{"text":"world"}}`)},
		{Chunk: []byte(`{"type":"message_stop"}`)},
	}}
	svc := &chat.Service{Generator: gen}

	seq, err := svc.AskStream(context.Background(), record(), chat.AreaSummary, "hi")
	require.NoError(t, err)

	var got []string
	for frag, err := range seq {
		require.NoError(t, err)
		got = append(got, frag)
	}

	assert.Equal(t, []string{"Hello ", "world", "\n"}, got)
	assert.True(t, gen.stream.Closed())
}

func TestAskStream_UnrangedSequenceReleasedOnCancel(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{events: []genai.Event{
		{Chunk: []byte(`{"type":"content_block_delta","delta":{"text":"never read"}}`)},
	}}
	svc := &chat.Service{Generator: gen}
	ctx, cancel := context.WithCancel(context.Background())

	_, err := svc.AskStream(ctx, record(), chat.AreaSummary, "hi")
	require.NoError(t, err)
	require.False(t, gen.stream.Closed())

	cancel()

	assert.Eventually(t, gen.stream.Closed, time.Second, 5*time.Millisecond)
	assert.Zero(t, gen.stream.Consumed())
}

func TestAskStream_EarlyBreakClosesStream(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{events: []genai.Event{
		{Chunk: []byte(`{"type":"content_block_delta","delta":{"text":"one"}}`)},
		{Chunk: []byte(`{"type":"content_block_delta","delta":{"text":"two"}}`)},
	}}
	svc := &chat.Service{Generator: gen}

	seq, err := svc.AskStream(context.Background(), record(), chat.AreaSummary, "hi")
	require.NoError(t, err)
	for frag := range seq {
		assert.Equal(t, "one", frag)
		break
	}

	assert.True(t, gen.stream.Closed())
	assert.Equal(t, 1, gen.stream.Consumed())
}

func TestGuardrailPassThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		guardrail *genai.Guardrail
	}{
		{"configured", genai.NewGuardrail("gr-123")},
		{"not configured", genai.NewGuardrail("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{response: []byte(`{"content":[]}`)}
			svc := &chat.Service{Generator: gen, Guardrail: tt.guardrail}

			_, err := svc.Ask(context.Background(), record(), chat.AreaSummary, "q")
			require.NoError(t, err)
			seq, err := svc.AskStream(context.Background(), record(), chat.AreaSummary, "q")
			require.NoError(t, err)
			_, err = genai.Collect(seq)
			require.NoError(t, err)

			assert.Equal(t, tt.guardrail, gen.invokes[0].guardrail)
			assert.Equal(t, tt.guardrail, gen.streams[0].guardrail)
		})
	}
}
