package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flashcards/internal/service"
)

type StatsHandler struct {
	svc    *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(svc *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// HandleGenerations is GET /api/statistics/generations.
func (h *StatsHandler) HandleGenerations(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Generations(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleFlashcards is GET /api/statistics/flashcards.
func (h *StatsHandler) HandleFlashcards(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Flashcards(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
