package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashcards/internal/service"
	"github.com/sakif/flashcards/internal/validation"
)

// GenerationHandler serves the generate → accept pipeline and the history.
//
//	POST /api/generations/generate     → HandleGenerate
//	POST /api/generations/{id}/accept  → HandleAccept
//	GET  /api/generations              → HandleList
type GenerationHandler struct {
	svc    *service.GenerationService
	logger *slog.Logger
}

func NewGenerationHandler(svc *service.GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{svc: svc, logger: logger}
}

// HandleGenerate returns the suggestions with 200; nothing is stored yet
// except the generation record.
func (h *GenerationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req validation.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Generate(r.Context(), currentUser(r), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAccept stores the kept suggestions and returns 201.
func (h *GenerationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(chi.URLParam(r, "id"), "Invalid generation ID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req validation.AcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Accept(r.Context(), currentUser(r), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *GenerationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseGenerationQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
