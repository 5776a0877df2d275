// Package anthropic invokes Anthropic messages models behind a Bedrock
// compatible runtime endpoint.
package anthropic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
)

const (
	HeaderGuardrailID      = "X-Amzn-Bedrock-GuardrailIdentifier"
	HeaderGuardrailVersion = "X-Amzn-Bedrock-GuardrailVersion"
)

// Client posts to {Endpoint}/model/{id}/invoke and
// {Endpoint}/model/{id}/invoke-with-response-stream.
type Client struct {
	Endpoint string
	APIKey   string

	// HTTPClient should not carry a total timeout; streams stay open as long
	// as the model keeps producing.
	HTTPClient *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{Endpoint: endpoint, APIKey: apiKey}
}

func (c *Client) Invoke(ctx context.Context, modelID string, body []byte, g *genai.Guardrail) ([]byte, error) {
	resp, err := c.post(ctx, modelID, "invoke", "application/json", body, g)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", genai.ErrInvocation, err)
	}
	return out, nil
}

func (c *Client) InvokeStream(ctx context.Context, modelID string, body []byte, g *genai.Guardrail) (genai.EventStream, error) {
	resp, err := c.post(ctx, modelID, "invoke-with-response-stream", "text/event-stream", body, g)
	if err != nil {
		return nil, err
	}
	return newSSEStream(resp.Body), nil
}

func (c *Client) post(ctx context.Context, modelID, action, accept string, body []byte, g *genai.Guardrail) (*http.Response, error) {
	if c.Endpoint == "" || modelID == "" {
		return nil, fmt.Errorf("%w: endpoint and model id required", genai.ErrInvocation)
	}
	u := strings.TrimRight(c.Endpoint, "/") + "/model/" + url.PathEscape(modelID) + "/" + action

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", genai.ErrInvocation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	SetGuardrailHeaders(req.Header, g)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", genai.ErrInvocation, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", genai.ErrQuotaExceeded, strings.TrimSpace(string(msg)))
	}
	return nil, fmt.Errorf("%w: status %d: %s", genai.ErrInvocation, resp.StatusCode, strings.TrimSpace(string(msg)))
}

// SetGuardrailHeaders attaches g to h. A nil guardrail sets nothing.
func SetGuardrailHeaders(h http.Header, g *genai.Guardrail) {
	if g == nil {
		return
	}
	h.Set(HeaderGuardrailID, g.ID)
	h.Set(HeaderGuardrailVersion, g.Version)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
