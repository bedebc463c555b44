// Package validation holds the request schemas of every API operation.
//
// Each request type has a Validate method that trims its strings, applies the
// documented defaults and then checks the `validate` struct tags with
// go-playground/validator. Cross-field rules run only after the tags pass.
//
// A failure is a single apperror validation error: Details maps every failing
// field (dotted path, e.g. "flashcards.0.front") to its message, and the
// primary message is the first failure in field declaration order.
//
// Messages are looked up per request type by "<path without indexes>.<tag>",
// which is how the create and accept paths can report different text for
// the same length bound.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/llm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// whole: a float that carries an integer value. JSON numbers decode as
	// floats so 2.5 can be rejected with a message of its own.
	mustRegister(v, "whole", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})

	mustRegister(v, "model", func(fl validator.FieldLevel) bool {
		return llm.IsAllowed(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: registering %q: %v", tag, err))
	}
}

// check validates s against its struct tags and converts failures using messages.
func check(s any, messages map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}

	var primary string
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		msg, ok := messages[messageKey(path)+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", path)
		}
		if primary == "" {
			primary = msg
		}
		if _, seen := details[path]; !seen {
			details[path] = msg
		}
	}
	return apperror.Validation(primary, details)
}

// fieldPath turns "AcceptRequest.flashcards[0].front" into "flashcards.0.front".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	path = strings.ReplaceAll(path, "[", ".")
	return strings.ReplaceAll(path, "]", "")
}

// messageKey drops the numeric segments of a path: "flashcards.0.front" → "flashcards.front".
func messageKey(path string) string {
	parts := strings.Split(path, ".")
	kept := parts[:0]
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err == nil {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

// ParseID parses a positive integer path parameter.
func ParseID(raw, message string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", message)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. Absent means def; a
// present value that is not an integer fails rather than falling back.
func queryInt(raw string, def int, field, message string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperror.ValidationFailed(field, message)
	}
	return n, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Offset is the row offset of a 1-based page. It saturates at math.MaxInt
// so a page far past the end is still an empty page.
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
