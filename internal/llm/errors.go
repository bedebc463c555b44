package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/flashcards/internal/apperror"
)

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

// upstreamMessage extracts error.message from an OpenAI-style error body,
// falling back to the raw body and then to a generic status line.
func (e *HTTPError) upstreamMessage() string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if raw := strings.TrimSpace(e.Body); raw != "" {
		return raw
	}
	return fmt.Sprintf("OpenRouter API error (%d)", e.StatusCode)
}

func statusError(e *HTTPError, model string) error {
	upstream := e.upstreamMessage()
	info := fmt.Sprintf("Model '%s' is unavailable. %s", model, upstream)
	hint := suggestion(model)

	var err *apperror.AppError
	switch e.StatusCode {
	case http.StatusBadRequest:
		err = apperror.Validation(info+hint, map[string]string{"model": info + hint})
	case http.StatusUnauthorized:
		err = apperror.Unauthorized(upstream)
	case http.StatusNotFound, http.StatusServiceUnavailable:
		err = apperror.ServiceUnavailable(info + hint)
	case http.StatusTooManyRequests:
		err = apperror.RateLimited(info + hint)
	default:
		err = apperror.ServiceUnavailable(fmt.Sprintf("%s (HTTP %d)%s", info, e.StatusCode, hint))
	}
	err.Cause = e
	return err
}

// suggestion points the user at a known-working model other than the one
// that just failed.
func suggestion(failed string) string {
	var others []string
	for _, m := range KnownWorkingModels {
		if m != failed {
			others = append(others, m)
		}
	}
	if len(others) == 0 {
		return " Check model availability in the OpenRouter documentation."
	}
	return fmt.Sprintf(" Try model: %s.", strings.Join(others, " or "))
}
