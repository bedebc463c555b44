package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashcards/internal/service"
	"github.com/sakif/flashcards/internal/validation"
)

// FlashcardHandler is the REST surface over FlashcardService.
type FlashcardHandler struct {
	svc    *service.FlashcardService
	logger *slog.Logger
}

func NewFlashcardHandler(svc *service.FlashcardService, logger *slog.Logger) *FlashcardHandler {
	return &FlashcardHandler{svc: svc, logger: logger}
}

// HandleList is GET /api/flashcards?page=&limit=&source=&sort=&order=.
func (h *FlashcardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseFlashcardQuery(r.URL.Query())
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

func (h *FlashcardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := flashcardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	card, err := h.svc.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleCreate is POST /api/flashcards. A body with a "flashcards" key is a
// bulk create; anything else is a single card.
func (h *FlashcardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, bulk := raw["flashcards"]; bulk {
		var req validation.BulkCreateFlashcardsRequest
		if err := remarshal(raw, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		res, err := h.svc.CreateBulk(r.Context(), currentUser(r), &req)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
		return
	}

	var req validation.CreateFlashcardRequest
	if err := remarshal(raw, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	card, err := h.svc.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *FlashcardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := flashcardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req validation.UpdateFlashcardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	card, err := h.svc.Update(r.Context(), currentUser(r), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *FlashcardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := flashcardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Flashcard successfully deleted"})
}

func flashcardID(r *http.Request) (int64, error) {
	return validation.ParseID(chi.URLParam(r, "id"), "Invalid flashcard ID")
}

// remarshal decodes an already split object into dst. Type mismatches
// ("front": 5) are reported like any other malformed body.
func remarshal(raw map[string]json.RawMessage, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return errInvalidJSON
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}
