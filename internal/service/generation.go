package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/generator"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
	"github.com/sakif/flashcards/internal/validation"
)

// GenerationService turns source text into flashcard suggestions and turns
// accepted suggestions into flashcards.
//
// THE TWO-STEP FLOW:
//
//	Generate → suggestions are returned to the client, never stored.
//	           Only a generation row (metadata) is written.
//	Accept   → the client sends back the suggestions it kept, marked
//	           edited or not. They become ai-full / ai-edited flashcards
//	           pointing at the generation.
//
// The generator is a strategy picked once by the caller (mock or live LLM);
// the service never looks at configuration itself.
type GenerationService struct {
	generator   generator.Generator
	generations repository.GenerationRepository
	flashcards  repository.FlashcardRepository
	logger      *slog.Logger

	singleAcceptance bool
}

// GenerationOption configures a GenerationService.
type GenerationOption func(*GenerationService)

// WithSingleAcceptance rejects Accept for a generation whose accepted counts
// are already non-zero.
func WithSingleAcceptance() GenerationOption {
	return func(s *GenerationService) {
		s.singleAcceptance = true
	}
}

func NewGenerationService(
	gen generator.Generator,
	generations repository.GenerationRepository,
	flashcards repository.FlashcardRepository,
	logger *slog.Logger,
	opts ...GenerationOption,
) *GenerationService {
	s := &GenerationService{
		generator:   gen,
		generations: generations,
		flashcards:  flashcards,
		logger:      orDiscard(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateResult is the response of a successful generation.
type GenerateResult struct {
	GenerationID   int64                  `json:"generation_id"`
	Model          string                 `json:"model"`
	GeneratedCount int                    `json:"generated_count"`
	DurationMS     int64                  `json:"generation_duration"`
	SourceTextHash string                 `json:"source_text_hash"`
	Suggestions    []generator.Suggestion `json:"flashcardSuggestions"`
}

// AcceptResult is the response of a successful acceptance.
type AcceptResult struct {
	Message               string            `json:"message"`
	AcceptedCount         int               `json:"accepted_count"`
	AcceptedUneditedCount int               `json:"accepted_unedited_count"`
	AcceptedEditedCount   int               `json:"accepted_edited_count"`
	Flashcards            []model.Flashcard `json:"flashcards"`
}

const (
	msgGenerationSaveFailed = "Failed to save generation record"
	msgAcceptFailed         = "Failed to create flashcards"
	msgAcceptedMessage      = "Flashcards successfully saved"
	msgAlreadyAccepted      = "Generation has already been accepted"
	msgGenerationUnknown    = "AI service unavailable"
)

// Generate asks the generator for suggestions and records the call.
//
// Nothing is written before validation passes. On failure one error-log row
// is attempted; the error returned is the database error when the generation
// row itself could not be saved and service-unavailable for anything else.
func (s *GenerationService) Generate(ctx context.Context, userID string, req *validation.GenerateRequest) (*GenerateResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sum := md5.Sum([]byte(req.RawSourceText))
	hash := hex.EncodeToString(sum[:])

	start := time.Now()
	suggestions, err := s.generator.Generate(ctx, generator.Request{
		SourceText:  req.SourceText,
		Model:       req.Model,
		Count:       int(*req.Count),
		Temperature: *req.Temperature,
	})
	if err != nil {
		return nil, s.generationFailed(ctx, userID, req, hash, err)
	}
	duration := time.Since(start).Milliseconds()

	gen := &model.Generation{
		UserID:           userID,
		Model:            req.Model,
		GeneratedCount:   len(suggestions),
		SourceTextHash:   hash,
		SourceTextLength: len([]rune(req.SourceText)),
		DurationMS:       duration,
	}
	if err := s.generations.CreateGeneration(ctx, gen); err != nil {
		return nil, s.generationFailed(ctx, userID, req, hash, apperror.Database(msgGenerationSaveFailed, err))
	}

	s.logger.Info("generation completed",
		"generation_id", gen.ID,
		"model", gen.Model,
		"count", gen.GeneratedCount,
		"duration_ms", duration,
	)

	return &GenerateResult{
		GenerationID:   gen.ID,
		Model:          gen.Model,
		GeneratedCount: gen.GeneratedCount,
		DurationMS:     gen.DurationMS,
		SourceTextHash: hash,
		Suggestions:    suggestions,
	}, nil
}

// generationFailed classifies err and writes the error log.
func (s *GenerationService) generationFailed(ctx context.Context, userID string, req *validation.GenerateRequest, hash string, err error) error {
	classified := classifyGenerationError(err)

	entry := &model.GenerationErrorLog{
		UserID:           userID,
		Model:            req.Model,
		SourceTextHash:   hash,
		SourceTextLength: len([]rune(req.SourceText)),
		ErrorCode:        errorLogCode(err, classified),
		ErrorMessage:     err.Error(),
	}
	// Fire and forget: a failed log write is reported here and nowhere else.
	if logErr := bestEffort(ctx, func(ctx context.Context) error {
		return s.generations.CreateErrorLog(ctx, entry)
	}); logErr != nil {
		s.logger.Warn("writing generation error log", "error", logErr)
	}

	s.logger.Error("generation failed", "model", req.Model, "error", err)
	return classified
}

// classifyGenerationError keeps a database error as is. Everything else the
// generator reports, including upstream credential and rate-limit errors, is
// service-unavailable to the caller; the original stays as Cause.
func classifyGenerationError(err error) error {
	if apperror.Is(err, apperror.ErrDatabase) || apperror.Is(err, apperror.ErrServiceUnavailable) {
		return err
	}

	msg := msgGenerationUnknown
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	unavailable := apperror.ServiceUnavailable(msg)
	unavailable.Cause = err
	return unavailable
}

// errorLogCode is the code stored with a failed generation: the upstream
// kind when the generator classified the failure, the returned kind otherwise.
func errorLogCode(err, classified error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return apperror.Code(appErr)
	}
	return apperror.Code(classified)
}

// Accept turns kept suggestions into flashcards of generation generationID.
//
// The generation must belong to userID; otherwise nothing is written and
// the result is not-found. The flashcards are inserted atomically. The
// accepted counts on the generation are bookkeeping: failing to write them is
// logged and the call still succeeds.
func (s *GenerationService) Accept(ctx context.Context, userID string, generationID int64, req *validation.AcceptRequest) (*AcceptResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gen, err := s.generations.GetGeneration(ctx, userID, generationID)
	if err != nil {
		return nil, dbError(err, "Failed to verify generation")
	}
	if s.singleAcceptance && gen.Accepted() {
		return nil, apperror.ValidationFailed("generation_id", msgAlreadyAccepted)
	}

	var edited, unedited int
	cards := make([]*model.Flashcard, 0, len(req.Flashcards))
	for _, item := range req.Flashcards {
		source := model.SourceAIFull
		if item.IsEdited() {
			source = model.SourceAIEdited
			edited++
		} else {
			unedited++
		}
		id := gen.ID
		cards = append(cards, &model.Flashcard{
			UserID:       userID,
			Front:        item.Front,
			Back:         item.Back,
			Source:       source,
			GenerationID: &id,
		})
	}

	if err := s.flashcards.CreateFlashcards(ctx, cards); err != nil {
		return nil, apperror.Database(msgAcceptFailed, err)
	}

	// Fire and forget: the flashcards are already stored.
	if err := bestEffort(ctx, func(ctx context.Context) error {
		return s.generations.UpdateAcceptedCounts(ctx, userID, gen.ID, unedited, edited)
	}); err != nil {
		s.logger.Warn("updating accepted counts", "generation_id", gen.ID, "error", err)
	}

	created := make([]model.Flashcard, len(cards))
	for i, c := range cards {
		created[i] = *c
	}

	s.logger.Info("suggestions accepted",
		"generation_id", gen.ID,
		"unedited", unedited,
		"edited", edited,
	)

	return &AcceptResult{
		Message:               msgAcceptedMessage,
		AcceptedCount:         len(created),
		AcceptedUneditedCount: unedited,
		AcceptedEditedCount:   edited,
		Flashcards:            created,
	}, nil
}

// List returns one page of the user's generations, newest first by default.
func (s *GenerationService) List(ctx context.Context, userID string, q validation.GenerationQuery) (*Page[model.Generation], error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	gens, total, err := s.generations.ListGenerations(ctx, userID, repository.ListOptions{
		Limit:  q.Limit,
		Offset: validation.Offset(q.Page, q.Limit),
		Order:  repository.SortOrder(q.Order),
	})
	if err != nil {
		return nil, dbError(err, "Failed to fetch generations")
	}
	return newPage(gens, q.Page, q.Limit, total), nil
}
