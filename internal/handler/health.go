package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger is satisfied by the SQLite repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth is GET /healthz: 200 when the database answers, 503 otherwise.
func HandleHealth(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
