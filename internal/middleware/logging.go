// Package middleware contains the request logging middleware.
//
// Logger runs outside authentication, so it cannot read the user id from the
// context of the inner request. Instead it stores a mutable entry in the
// context; UserID, mounted after authentication, fills it in.
//
//	Logger → RequireAuth → UserID → handler
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

type entryKey struct{}

type entry struct {
	userID string
}

// Logger logs one line per request: method, path, status, duration, bytes,
// the chi request id and the user id when one was recorded.
// Responses with status 500 and above are logged at error level.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			e := &entry{}
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), entryKey{}, e)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if e.userID != "" {
				attrs = append(attrs, slog.String("user_id", e.userID))
			}

			level := slog.LevelInfo
			if wrapped.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}

// UserID records the authenticated user on the request's log entry. lookup
// is the authentication package's context accessor.
func UserID(lookup func(context.Context) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if e, ok := r.Context().Value(entryKey{}).(*entry); ok {
				if id, ok := lookup(r.Context()); ok {
					e.userID = id
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
