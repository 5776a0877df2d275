package genai

import "strings"

const (
	AnthropicVersion = "bedrock-2023-05-31"
	DefaultMaxTokens = 1024
	RoleUser         = "user"
	ContentTypeText  = "text"
)

type ContentBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// MessagesRequest is the request document sent to the generation service.
type MessagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
}

// MessagesResponse is the blocking response document.
type MessagesResponse struct {
	Content []ContentBlock `json:"content"`
}

// NewUserRequest builds a single-turn request carrying text as one content block.
func NewUserRequest(text string, maxTokens int) MessagesRequest {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return MessagesRequest{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        maxTokens,
		Messages: []Message{{
			Role:    RoleUser,
			Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
		}},
	}
}

// Text returns the first content block trimmed, or "" when there is none.
func (r MessagesResponse) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Content[0].Text)
}
