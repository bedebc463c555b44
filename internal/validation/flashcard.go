package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
)

// CreateFlashcardRequest is one card of POST /api/flashcards. An empty source
// means manual.
type CreateFlashcardRequest struct {
	Front        string       `json:"front" validate:"required,max=200"`
	Back         string       `json:"back" validate:"required,max=500"`
	Source       model.Source `json:"source" validate:"oneof=manual ai-full ai-edited"`
	GenerationID *int64       `json:"generation_id" validate:"omitnil,gt=0"`
}

// BulkCreateFlashcardsRequest is POST /api/flashcards with a "flashcards" array.
type BulkCreateFlashcardsRequest struct {
	Flashcards []CreateFlashcardRequest `json:"flashcards" validate:"min=1,max=100,dive"`
}

var createMessages = map[string]string{
	"front.required":              "Front text is required",
	"front.max":                   "Front text must be at most 200 characters",
	"back.required":               "Back text is required",
	"back.max":                    "Back text must be at most 500 characters",
	"source.oneof":                "Invalid source",
	"generation_id.gt":            "generation_id must be a positive integer",
	"flashcards.min":              "At least one flashcard is required",
	"flashcards.max":              "Maximum 100 flashcards can be created at once",
	"flashcards.front.required":   "Front text is required",
	"flashcards.front.max":        "Front text must be at most 200 characters",
	"flashcards.back.required":    "Back text is required",
	"flashcards.back.max":         "Back text must be at most 500 characters",
	"flashcards.source.oneof":     "Invalid source",
	"flashcards.generation_id.gt": "generation_id must be a positive integer",
}

const (
	msgGenerationRequired  = "generation_id is required when source is ai-full or ai-edited"
	msgGenerationForbidden = "generation_id must be empty when source is manual"
)

func (r *CreateFlashcardRequest) normalize() {
	r.Front = strings.TrimSpace(r.Front)
	r.Back = strings.TrimSpace(r.Back)
	if r.Source == "" {
		r.Source = model.SourceManual
	}
}

// generationRule enforces "generation_id present iff source is AI". prefix is
// the path of the card inside its request ("" or "flashcards.3.").
func (r *CreateFlashcardRequest) generationRule(prefix string) (string, string, bool) {
	switch {
	case r.Source.FromGeneration() && r.GenerationID == nil:
		return prefix + "generation_id", msgGenerationRequired, false
	case r.Source == model.SourceManual && r.GenerationID != nil:
		return prefix + "generation_id", msgGenerationForbidden, false
	}
	return "", "", true
}

func (r *CreateFlashcardRequest) Validate() error {
	r.normalize()
	if err := check(r, createMessages); err != nil {
		return err
	}
	if field, msg, ok := r.generationRule(""); !ok {
		return apperror.ValidationFailed(field, msg)
	}
	return nil
}

func (r *BulkCreateFlashcardsRequest) Validate() error {
	for i := range r.Flashcards {
		r.Flashcards[i].normalize()
	}
	if err := check(r, createMessages); err != nil {
		return err
	}

	var primary string
	details := map[string]string{}
	for i := range r.Flashcards {
		field, msg, ok := r.Flashcards[i].generationRule("flashcards." + strconv.Itoa(i) + ".")
		if ok {
			continue
		}
		if primary == "" {
			primary = msg
		}
		details[field] = msg
	}
	if primary != "" {
		return apperror.Validation(primary, details)
	}
	return nil
}

// UpdateFlashcardRequest is the body of PUT /api/flashcards/{id}. Absent
// fields are left unchanged.
type UpdateFlashcardRequest struct {
	Front *string `json:"front" validate:"omitnil,min=1,max=200"`
	Back  *string `json:"back" validate:"omitnil,min=1,max=500"`
}

var updateMessages = map[string]string{
	"front.min": "Front text is required",
	"front.max": "Front text must be at most 200 characters",
	"back.min":  "Back text is required",
	"back.max":  "Back text must be at most 500 characters",
}

func (r *UpdateFlashcardRequest) Validate() error {
	for _, s := range []*string{r.Front, r.Back} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if err := check(r, updateMessages); err != nil {
		return err
	}
	if r.Front == nil && r.Back == nil {
		return apperror.Validation("At least one field (front or back) must be provided", nil)
	}
	return nil
}

// FlashcardQuery is the query string of GET /api/flashcards.
type FlashcardQuery struct {
	Page   int    `json:"page" validate:"min=1"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Source string `json:"source" validate:"omitempty,oneof=manual ai-full ai-edited"`
	Sort   string `json:"sort" validate:"oneof=created_at updated_at front"`
	Order  string `json:"order" validate:"oneof=asc desc"`
}

var flashcardQueryMessages = map[string]string{
	"page.min":     "Page must be a positive integer",
	"limit.min":    "Limit must be a positive integer",
	"limit.max":    "Limit cannot exceed 100",
	"source.oneof": "Invalid source",
	"sort.oneof":   "Invalid sort field",
	"order.oneof":  "Invalid sort order",
}

func ParseFlashcardQuery(q url.Values) (FlashcardQuery, error) {
	var (
		out FlashcardQuery
		err error
	)
	if out.Page, err = queryInt(q.Get("page"), 1, "page", flashcardQueryMessages["page.min"]); err != nil {
		return out, err
	}
	if out.Limit, err = queryInt(q.Get("limit"), 20, "limit", flashcardQueryMessages["limit.min"]); err != nil {
		return out, err
	}
	out.Source = q.Get("source")
	out.Sort = orDefault(q.Get("sort"), "created_at")
	out.Order = orDefault(q.Get("order"), "desc")

	return out, check(&out, flashcardQueryMessages)
}

// SourceFilter is the parsed source filter, nil when absent.
func (q FlashcardQuery) SourceFilter() *model.Source {
	if q.Source == "" {
		return nil
	}
	s := model.Source(q.Source)
	return &s
}
