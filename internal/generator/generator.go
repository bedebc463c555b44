package generator

import "context"

// Request asks for exactly Count suggestions drawn from SourceText.
type Request struct {
	SourceText  string
	Model       string
	Count       int
	Temperature float64
}

// Suggestion is a proposed flashcard. It only lives for one request/response
// cycle; nothing persists it until the user accepts it.
type Suggestion struct {
	Front string `json:"front" validate:"required,max=200"`
	Back  string `json:"back" validate:"required,max=500"`
}

// Generator produces flashcard suggestions from source text.
//
// Implementations return errors already classified in the apperror taxonomy
// where they can; the generation service treats anything else as the
// service being unavailable.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Suggestion, error)
}
