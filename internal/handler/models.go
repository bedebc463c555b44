package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/llm"
)

// ModelChecker reports which of the given model ids the provider currently
// lists. *llm.Client implements it.
type ModelChecker interface {
	CheckModels(ctx context.Context, ids []string) map[string]bool
}

// ModelsHandler serves GET /api/models/check.
type ModelsHandler struct {
	checker ModelChecker
	logger  *slog.Logger
	now     func() time.Time
}

// NewModelsHandler accepts a nil checker when no provider key is configured;
// the endpoint then answers service-unavailable.
func NewModelsHandler(checker ModelChecker, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{checker: checker, logger: logger, now: time.Now}
}

type modelsCheckResponse struct {
	Models    map[string]bool `json:"models"`
	CheckedAt string          `json:"checked_at"`
}

func (h *ModelsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		writeError(w, r, h.logger, apperror.ServiceUnavailable("OpenRouter API key not configured"))
		return
	}

	writeJSON(w, http.StatusOK, modelsCheckResponse{
		Models:    h.checker.CheckModels(r.Context(), llm.AllowedModels),
		CheckedAt: h.now().UTC().Format(time.RFC3339),
	})
}
