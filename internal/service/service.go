// Package service contains the business logic of the flashcard application.
//
// THE LAYERS:
//
//	Handler (HTTP)     → decodes requests, writes responses
//	Service (business) → validates, checks ownership, orchestrates
//	Repository (data)  → reads/writes SQLite
//
// OWNERSHIP:
// The database does not isolate users. Every service method that touches a
// user-scoped row therefore starts with requireUser and passes the caller's
// id down to the repository, which filters on it. A row that belongs to
// someone else is indistinguishable from a row that does not exist.
//
// ERRORS:
// Services return apperror kinds only. Repository failures on primary records
// become apperror.Database with a fixed message; the driver error is kept as
// the cause for logging. Failures on secondary bookkeeping (error logs,
// acceptance statistics) are logged and swallowed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](data []T, page, limit, total int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}
}

// requireUser rejects calls without an authenticated user before any other work.
func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.Unauthorized("")
	}
	return nil
}

// dbError classifies a repository failure. Errors the repository already
// classified (not found) pass through untouched.
func dbError(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Database(message, err)
}

// bestEffort runs a bookkeeping write detached from the request's cancellation
// and with its own deadline. Its error is returned for logging only.
func bestEffort(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return fn(ctx)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// orDiscard is used when a nil logger is passed to a constructor.
func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
