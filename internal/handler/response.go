package handler

// RESPONSE HELPERS:
// Every handler ends in writeJSON or writeError, so every response has the
// same shape:
//
//	success: the DTO itself
//	failure: {"error": {"code": "...", "message": "...", "details": {...}}}
//
// writeError never inspects messages. It hands the error to
// apperror.Translate, which owns the kind → status table, and logs the
// original error (with its cause) before it is reduced to an envelope.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/auth"
)

// maxBodyBytes bounds request bodies. The largest legitimate body is a
// 10000-character source text or 100 flashcards.
const maxBodyBytes = 1 << 20

// errInvalidJSON marks a body that could not be decoded. It is the one
// failure outside the apperror taxonomy: 422 rather than 400.
var errInvalidJSON = errors.New("handler: invalid JSON body")

const (
	codeInvalidJSON    = "UNPROCESSABLE_ENTITY"
	messageInvalidJSON = "Invalid JSON format"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError logs err (warn for 4xx, error for 5xx) and writes its envelope.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, errInvalidJSON) {
		logger.Warn("request rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnprocessableEntity, apperror.Envelope{
			Error: apperror.Body{Code: codeInvalidJSON, Message: messageInvalidJSON},
		})
		return
	}

	status, env := apperror.Translate(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("code", env.Error.Code),
		slog.Any("error", err),
	}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeJSON(w, status, env)
}

// decodeJSON reads a single JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errInvalidJSON
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

// currentUser is the id RequireAuth stored. Services reject an empty id, so a
// route mounted without RequireAuth fails closed.
func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
