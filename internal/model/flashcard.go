// Package model defines the persistent entities of the flashcard service.
//
// JSON tags double as the API shape: fields that must never leave the server
// (the owning user id) are tagged `json:"-"`, so returning a model from a
// handler is always safe.
package model

import "time"

// Source records how a flashcard came to exist.
type Source string

const (
	SourceManual   Source = "manual"    // typed in by the user
	SourceAIFull   Source = "ai-full"   // accepted from a generation without edits
	SourceAIEdited Source = "ai-edited" // accepted from a generation after editing
)

// Sources lists every valid Source in display order.
var Sources = []Source{SourceManual, SourceAIFull, SourceAIEdited}

// FromGeneration reports whether flashcards of this source must reference a generation.
func (s Source) FromGeneration() bool {
	return s == SourceAIFull || s == SourceAIEdited
}

// Flashcard is a single question/answer unit owned by exactly one user.
//
// GenerationID is non-nil iff Source is ai-full or ai-edited. The referenced
// generation always belongs to the same user; services check this before writing.
type Flashcard struct {
	ID           int64     `json:"id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Source       Source    `json:"source"`
	GenerationID *int64    `json:"generation_id"`
	UserID       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
