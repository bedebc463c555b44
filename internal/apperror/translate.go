package apperror

import (
	"errors"
	"net/http"
)

// Machine-readable codes returned in the error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable = "AI_SERVICE_ERROR"
	CodeDatabase           = "DATABASE_ERROR"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// InternalMessage replaces the message of every unclassified error.
const InternalMessage = "An unexpected error occurred"

// Envelope is the JSON body of every error response:
//
//	{"error": {"code": "NOT_FOUND", "message": "Flashcard not found"}}
type Envelope struct {
	Error Body `json:"error"`
}

// Body is the inner object of Envelope. Details is only set for validation errors;
// it is an interface so that an empty map still serialises as "details": {}.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// kinds is the fixed kind → (status, code) table. Order matters only for
// readability; an AppError carries exactly one kind.
var kinds = []struct {
	kind   error
	status int
	code   string
}{
	{ErrValidation, http.StatusBadRequest, CodeValidation},
	{ErrNotFound, http.StatusNotFound, CodeNotFound},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
	{ErrServiceUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable},
	{ErrDatabase, http.StatusInternalServerError, CodeDatabase},
}

// Translate maps any error (including nil) to a status code and envelope.
// It is total: unknown errors become a 500 with InternalMessage and their
// original text never reaches the envelope.
func Translate(err error) (int, Envelope) {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		for _, k := range kinds {
			if appErr.Err != k.kind {
				continue
			}
			body := Body{Code: k.code, Message: appErr.Message}
			if k.kind == ErrValidation {
				details := appErr.Details
				if details == nil {
					details = map[string]string{}
				}
				body.Details = details
			}
			return k.status, Envelope{Error: body}
		}
	}

	return http.StatusInternalServerError, Envelope{Error: Body{
		Code:    CodeInternal,
		Message: InternalMessage,
	}}
}

// Code returns the envelope code Translate assigns to err.
func Code(err error) string {
	_, env := Translate(err)
	return env.Error.Code
}
