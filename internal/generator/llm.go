package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/llm"
)

const (
	schemaName = "flashcard_generation"
	maxTokens  = 2000

	systemPrompt = "You are a helpful flashcard generator. Create high-quality flashcards from the provided content. " +
		"Each flashcard should have a concise question on the front and a clear answer on the back."
)

// flashcardSchema constrains the completion to {"flashcards": [{front, back}]}.
var flashcardSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"flashcards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"front": map[string]any{"type": "string", "maxLength": 200},
					"back":  map[string]any{"type": "string", "maxLength": 500},
				},
				"required":             []string{"front", "back"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"flashcards"},
	"additionalProperties": false,
}

// Completer is the part of *llm.Client the generator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// LLM generates suggestions with a strict structured-output completion.
type LLM struct {
	client Completer
}

var _ Generator = (*LLM)(nil)

func NewLLM(client Completer) *LLM {
	return &LLM{client: client}
}

func (g *LLM) Generate(ctx context.Context, req Request) ([]Suggestion, error) {
	temperature := req.Temperature
	tokens := maxTokens

	resp, err := g.client.Complete(ctx, llm.ChatRequest{
		Model: req.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Generate exactly %d flashcards from the following content:\n\n%s", req.Count, req.SourceText)},
		},
		Temperature: &temperature,
		MaxTokens:   &tokens,
		ResponseFormat: &llm.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &llm.JSONSchema{
				Name:   schemaName,
				Strict: true,
				Schema: flashcardSchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, apperror.ServiceUnavailable(fmt.Sprintf("Model '%s' returned an empty response. Try a different model.", req.Model))
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, malformed(req.Model, err)
	}
	if err := payload.check(); err != nil {
		return nil, malformed(req.Model, err)
	}
	return payload.Flashcards, nil
}

// suggestionPayload is the structured output. The schema asks the model for
// this shape but models do not always honor it, so it is checked again here.
type suggestionPayload struct {
	Flashcards []Suggestion `json:"flashcards" validate:"required,min=1,dive"`
}

var checkPayload = validator.New(validator.WithRequiredStructEnabled())

// check trims every suggestion and enforces the flashcard length limits.
func (p *suggestionPayload) check() error {
	for i := range p.Flashcards {
		p.Flashcards[i].Front = strings.TrimSpace(p.Flashcards[i].Front)
		p.Flashcards[i].Back = strings.TrimSpace(p.Flashcards[i].Back)
	}
	return checkPayload.Struct(p)
}

func malformed(model string, cause error) error {
	return &apperror.AppError{
		Err:     apperror.ErrServiceUnavailable,
		Message: fmt.Sprintf("Model '%s' returned malformed flashcards. Try a different model.", model),
		Cause:   cause,
	}
}
