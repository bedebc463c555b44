// Package repository declares the persistence contracts the services depend on.
//
// OWNERSHIP:
// The database does not isolate users from each other. Every method that reads or
// writes a user-scoped row therefore takes the owning user id and filters on it;
// a row owned by someone else behaves exactly like a missing row.
package repository

import (
	"context"

	"github.com/sakif/flashcards/internal/model"
)

// SortOrder is the direction of a list query.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListOptions is the common pagination window.
type ListOptions struct {
	Limit  int
	Offset int
	Order  SortOrder
}

// FlashcardListOptions narrows a flashcard listing.
type FlashcardListOptions struct {
	ListOptions
	Source *model.Source // nil means all sources
	SortBy string        // created_at, updated_at or front
}

// FlashcardPatch holds the editable fields of a flashcard. Nil means unchanged.
type FlashcardPatch struct {
	Front *string
	Back  *string
}

type FlashcardRepository interface {
	// CreateFlashcards inserts all cards atomically and fills in their ids and timestamps.
	CreateFlashcards(ctx context.Context, cards []*model.Flashcard) error
	GetFlashcard(ctx context.Context, userID string, id int64) (*model.Flashcard, error)
	ListFlashcards(ctx context.Context, userID string, opts FlashcardListOptions) ([]model.Flashcard, int, error)
	UpdateFlashcard(ctx context.Context, userID string, id int64, patch FlashcardPatch) (*model.Flashcard, error)
	// DeleteFlashcard returns apperror.ErrNotFound when no row matched.
	DeleteFlashcard(ctx context.Context, userID string, id int64) error
	CountFlashcardsBySource(ctx context.Context, userID string) (map[model.Source]int, error)
}

type GenerationRepository interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) error
	GetGeneration(ctx context.Context, userID string, id int64) (*model.Generation, error)
	ListGenerations(ctx context.Context, userID string, opts ListOptions) ([]model.Generation, int, error)
	UpdateAcceptedCounts(ctx context.Context, userID string, id int64, unedited, edited int) error
	CreateErrorLog(ctx context.Context, entry *model.GenerationErrorLog) error
	GenerationTotals(ctx context.Context, userID string) (*GenerationTotals, error)
}

// GenerationTotals aggregates every generation of one user.
type GenerationTotals struct {
	Generations      int
	Generated        int
	AcceptedUnedited int
	AcceptedEdited   int
	AvgDurationMS    float64
	ModelsUsed       map[string]int
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
