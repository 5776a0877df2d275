package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/ai/anthropic"
)

func requestBody(t *testing.T, text string) []byte {
	t.Helper()

	b, err := json.Marshal(genai.NewUserRequest(text, 0))
	require.NoError(t, err)
	return b
}

type chatBody struct {
	Model               string `json:"model"`
	MaxTokens           int    `json:"max_tokens"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	Stream              bool   `json:"stream"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestClient_Invoke(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "gr-1", r.Header.Get(anthropic.HeaderGuardrailID))
		assert.Equal(t, "DRAFT", r.Header.Get(anthropic.HeaderGuardrailVersion))

		var body chatBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Equal(t, genai.DefaultMaxTokens, body.MaxTokens)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "what now?", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  do this  "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "fallback")

	raw, err := c.Invoke(context.Background(), "gpt-4o-mini", requestBody(t, "what now?"), genai.NewGuardrail("gr-1"))
	require.NoError(t, err)

	var resp genai.MessagesResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "do this", resp.Text())
}

func TestClient_InvokeUsesDefaultModelAndCompletionTokens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, set := r.Header[anthropic.HeaderGuardrailID]
		assert.False(t, set)

		var body chatBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "o3-mini", body.Model)
		assert.Equal(t, genai.DefaultMaxTokens, body.MaxCompletionTokens)
		assert.Zero(t, body.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "o3-mini")

	raw, err := c.Invoke(context.Background(), "", requestBody(t, "q"), nil)
	require.NoError(t, err)

	var resp genai.MessagesResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Empty(t, resp.Text())
}

func TestClient_InvokeQuota(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "gpt-4o-mini")

	_, err := c.Invoke(context.Background(), "", requestBody(t, "q"), nil)

	require.ErrorIs(t, err, genai.ErrQuotaExceeded)
}

func TestClient_InvokeRejectsBadBody(t *testing.T) {
	t.Parallel()

	c := NewClient("key", "http://127.0.0.1:1", "gpt-4o-mini")

	_, err := c.Invoke(context.Background(), "", []byte("{"), nil)

	require.ErrorIs(t, err, genai.ErrInvocation)
}

func TestClient_InvokeStream(t *testing.T) {
	t.Parallel()

	chunk := func(content, finish string) string {
		fr := "null"
		if finish != "" {
			fr = fmt.Sprintf("%q", finish)
		}
		return fmt.Sprintf("data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":%s}]}\n\n", content, fr)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, chunk("", "")+chunk("Hello", "")+chunk(" world", "stop")+"data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "gpt-4o-mini")

	stream, err := c.InvokeStream(context.Background(), "", requestBody(t, "q"), nil)
	require.NoError(t, err)

	text, err := genai.Collect(genai.Assemble(stream, nil))
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", text)
}

func TestEventStream_StopOnEOFWithoutFinishReason(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"partial\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "gpt-4o-mini")
	stream, err := c.InvokeStream(context.Background(), "", requestBody(t, "q"), nil)
	require.NoError(t, err)
	defer stream.Close()

	var chunks []string
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, string(ev.Chunk))
	}

	require.Len(t, chunks, 2)
	assert.JSONEq(t, `{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`, chunks[0])
	assert.JSONEq(t, `{"type":"message_stop"}`, chunks[1])
}
