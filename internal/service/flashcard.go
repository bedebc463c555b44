package service

import (
	"context"
	"log/slog"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
	"github.com/sakif/flashcards/internal/validation"
)

// FlashcardService is ownership-scoped CRUD over flashcards.
//
// A flashcard that references a generation may only be created when that
// generation belongs to the same user; the check runs once per distinct
// generation id before anything is written.
type FlashcardService struct {
	flashcards  repository.FlashcardRepository
	generations repository.GenerationRepository
	logger      *slog.Logger
}

func NewFlashcardService(
	flashcards repository.FlashcardRepository,
	generations repository.GenerationRepository,
	logger *slog.Logger,
) *FlashcardService {
	return &FlashcardService{
		flashcards:  flashcards,
		generations: generations,
		logger:      orDiscard(logger),
	}
}

// BulkCreateResult is the response of a bulk create.
type BulkCreateResult struct {
	Message      string            `json:"message"`
	CreatedCount int               `json:"created_count"`
	Flashcards   []model.Flashcard `json:"flashcards"`
}

func (s *FlashcardService) List(ctx context.Context, userID string, q validation.FlashcardQuery) (*Page[model.Flashcard], error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	cards, total, err := s.flashcards.ListFlashcards(ctx, userID, repository.FlashcardListOptions{
		ListOptions: repository.ListOptions{
			Limit:  q.Limit,
			Offset: validation.Offset(q.Page, q.Limit),
			Order:  repository.SortOrder(q.Order),
		},
		Source: q.SourceFilter(),
		SortBy: q.Sort,
	})
	if err != nil {
		return nil, dbError(err, "Failed to fetch flashcards")
	}
	return newPage(cards, q.Page, q.Limit, total), nil
}

func (s *FlashcardService) Get(ctx context.Context, userID string, id int64) (*model.Flashcard, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	card, err := s.flashcards.GetFlashcard(ctx, userID, id)
	if err != nil {
		return nil, dbError(err, "Failed to fetch flashcard")
	}
	return card, nil
}

func (s *FlashcardService) Create(ctx context.Context, userID string, req *validation.CreateFlashcardRequest) (*model.Flashcard, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cards, err := s.create(ctx, userID, []validation.CreateFlashcardRequest{*req})
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// CreateBulk inserts up to 100 cards in one transaction.
func (s *FlashcardService) CreateBulk(ctx context.Context, userID string, req *validation.BulkCreateFlashcardsRequest) (*BulkCreateResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cards, err := s.create(ctx, userID, req.Flashcards)
	if err != nil {
		return nil, err
	}
	return &BulkCreateResult{
		Message:      "Flashcards successfully created",
		CreatedCount: len(cards),
		Flashcards:   cards,
	}, nil
}

func (s *FlashcardService) create(ctx context.Context, userID string, items []validation.CreateFlashcardRequest) ([]model.Flashcard, error) {
	if err := s.verifyGenerations(ctx, userID, items); err != nil {
		return nil, err
	}

	cards := make([]*model.Flashcard, len(items))
	for i, item := range items {
		cards[i] = &model.Flashcard{
			UserID:       userID,
			Front:        item.Front,
			Back:         item.Back,
			Source:       item.Source,
			GenerationID: item.GenerationID,
		}
	}
	if err := s.flashcards.CreateFlashcards(ctx, cards); err != nil {
		return nil, apperror.Database("Failed to create flashcards", err)
	}

	out := make([]model.Flashcard, len(cards))
	for i, c := range cards {
		out[i] = *c
	}
	s.logger.Info("flashcards created", "count", len(out))
	return out, nil
}

// verifyGenerations checks each distinct referenced generation once.
func (s *FlashcardService) verifyGenerations(ctx context.Context, userID string, items []validation.CreateFlashcardRequest) error {
	seen := make(map[int64]bool)
	for _, item := range items {
		if item.GenerationID == nil || seen[*item.GenerationID] {
			continue
		}
		seen[*item.GenerationID] = true

		if _, err := s.generations.GetGeneration(ctx, userID, *item.GenerationID); err != nil {
			return dbError(err, "Failed to verify generation")
		}
	}
	return nil
}

func (s *FlashcardService) Update(ctx context.Context, userID string, id int64, req *validation.UpdateFlashcardRequest) (*model.Flashcard, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	card, err := s.flashcards.UpdateFlashcard(ctx, userID, id, repository.FlashcardPatch{
		Front: req.Front,
		Back:  req.Back,
	})
	if err != nil {
		return nil, dbError(err, "Failed to update flashcard")
	}
	return card, nil
}

// Delete removes the card permanently. A card that does not exist or is not
// owned by userID is not-found.
func (s *FlashcardService) Delete(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.flashcards.DeleteFlashcard(ctx, userID, id); err != nil {
		return dbError(err, "Failed to delete flashcard")
	}
	s.logger.Info("flashcard deleted", "flashcard_id", id)
	return nil
}
