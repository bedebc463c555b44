// Package llm is a thin client for an OpenAI-compatible chat-completion API
// (OpenRouter in production).
//
// It does one thing: send a single completion request, optionally constrained
// by a strict JSON schema, and translate every failure into the apperror
// taxonomy. Parsing the structured output out of the message content is the
// caller's job.
//
// FAILURE MAPPING:
//
//	400            → validation          "Model 'x' is unavailable. <upstream>" + suggestion
//	401            → unauthorized        upstream message as-is
//	404, 503       → service unavailable model + suggestion
//	429            → rate limited        model + suggestion
//	other non-2xx  → service unavailable model + "(HTTP n)" + suggestion
//	timeout        → service unavailable "Request timeout: Model 'x' did not respond..."
//
// There are no retries; the caller decides whether to try again.
package llm

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// JSONSchema asks the provider to constrain the completion to schema.
// Name must be snake_case and Strict must be true; Complete rejects anything else.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type ResponseFormat struct {
	Type       string      `json:"type"` // "json_schema"
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the decoded completion, returned unchanged to the caller.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Created int64    `json:"created"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}
