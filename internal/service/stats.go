package service

import (
	"context"

	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// StatsService summarises a user's generations and flashcards.
type StatsService struct {
	generations repository.GenerationRepository
	flashcards  repository.FlashcardRepository
}

func NewStatsService(generations repository.GenerationRepository, flashcards repository.FlashcardRepository) *StatsService {
	return &StatsService{generations: generations, flashcards: flashcards}
}

type GenerationStats struct {
	TotalGenerations      int            `json:"total_generations"`
	TotalGenerated        int            `json:"total_generated"`
	TotalAccepted         int            `json:"total_accepted"`
	AcceptedUnedited      int            `json:"accepted_unedited"`
	AcceptedEdited        int            `json:"accepted_edited"`
	AcceptanceRate        float64        `json:"acceptance_rate"`
	EditRate              float64        `json:"edit_rate"`
	AverageGenerationTime float64        `json:"average_generation_time"`
	ModelsUsed            map[string]int `json:"models_used"`
}

type FlashcardStats struct {
	Total        int                  `json:"total"`
	BySource     map[model.Source]int `json:"by_source"`
	AICreatedPct float64              `json:"ai_created_percentage"`
}

// Generations reports acceptance (accepted/generated) and edit (edited/accepted)
// rates. A rate with a zero denominator is 0.
func (s *StatsService) Generations(ctx context.Context, userID string) (*GenerationStats, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	t, err := s.generations.GenerationTotals(ctx, userID)
	if err != nil {
		return nil, dbError(err, "Failed to fetch generation statistics")
	}

	accepted := t.AcceptedUnedited + t.AcceptedEdited
	stats := &GenerationStats{
		TotalGenerations:      t.Generations,
		TotalGenerated:        t.Generated,
		TotalAccepted:         accepted,
		AcceptedUnedited:      t.AcceptedUnedited,
		AcceptedEdited:        t.AcceptedEdited,
		AverageGenerationTime: round2(t.AvgDurationMS),
		ModelsUsed:            t.ModelsUsed,
	}
	if stats.ModelsUsed == nil {
		stats.ModelsUsed = map[string]int{}
	}
	if t.Generated > 0 {
		stats.AcceptanceRate = round2(float64(accepted) / float64(t.Generated))
	}
	if accepted > 0 {
		stats.EditRate = round2(float64(t.AcceptedEdited) / float64(accepted))
	}
	return stats, nil
}

// Flashcards counts cards per source; every source is present in BySource.
func (s *StatsService) Flashcards(ctx context.Context, userID string) (*FlashcardStats, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	counts, err := s.flashcards.CountFlashcardsBySource(ctx, userID)
	if err != nil {
		return nil, dbError(err, "Failed to fetch flashcard statistics")
	}

	stats := &FlashcardStats{BySource: make(map[model.Source]int, len(model.Sources))}
	for _, src := range model.Sources {
		stats.BySource[src] = counts[src]
		stats.Total += counts[src]
	}
	if stats.Total > 0 {
		ai := stats.BySource[model.SourceAIFull] + stats.BySource[model.SourceAIEdited]
		stats.AICreatedPct = round2(float64(ai) / float64(stats.Total) * 100)
	}
	return stats, nil
}
