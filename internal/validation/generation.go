package validation

import (
	"net/url"
	"strings"

	"github.com/sakif/flashcards/internal/llm"
)

const (
	DefaultCount       = 5
	DefaultTemperature = 0.7
)

// GenerateRequest is the body of POST /api/generations/generate.
//
// Count and Temperature are pointers so that an absent field can take its
// default while an explicit 0 is still checked. After Validate they are never nil.
type GenerateRequest struct {
	SourceText  string   `json:"source_text" validate:"min=1000,max=10000"`
	Model       string   `json:"model" validate:"model"`
	Count       *float64 `json:"count" validate:"required,whole,min=1,max=20"`
	Temperature *float64 `json:"temperature" validate:"required,min=0,max=2"`

	// RawSourceText is SourceText as received, before trimming. The content
	// hash is computed over it.
	RawSourceText string `json:"-"`
}

var generateMessages = map[string]string{
	"source_text.min": "Source text must be at least 1000 characters",
	"source_text.max": "Source text must not exceed 10000 characters",
	"model.model":     "Invalid model selected",
	"count.whole":     "Count must be an integer",
	"count.min":       "Must generate at least 1 flashcard",
	"count.max":       "Cannot generate more than 20 flashcards at once",
	"temperature.min": "Temperature must be at least 0",
	"temperature.max": "Temperature must not exceed 2",
}

func (r *GenerateRequest) Validate() error {
	r.RawSourceText = r.SourceText
	r.SourceText = strings.TrimSpace(r.SourceText)
	r.Model = orDefault(r.Model, llm.DefaultModel)
	if r.Count == nil {
		c := float64(DefaultCount)
		r.Count = &c
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	return check(r, generateMessages)
}

// AcceptItem is one suggestion the user keeps. Edited is required so that
// source attribution is never guessed.
type AcceptItem struct {
	Front  string `json:"front" validate:"required,max=200"`
	Back   string `json:"back" validate:"required,max=500"`
	Edited *bool  `json:"edited" validate:"required"`
}

// IsEdited is false for a nil flag; Validate rejects nil flags.
func (i AcceptItem) IsEdited() bool {
	return i.Edited != nil && *i.Edited
}

// AcceptRequest is the body of POST /api/generations/{id}/accept.
type AcceptRequest struct {
	Flashcards []AcceptItem `json:"flashcards" validate:"min=1,max=100,dive"`
}

var acceptMessages = map[string]string{
	"flashcards.min":             "At least one flashcard must be provided",
	"flashcards.max":             "Cannot accept more than 100 flashcards at once",
	"flashcards.front.required":  "Front text is required",
	"flashcards.front.max":       "Front text exceeds 200 characters",
	"flashcards.back.required":   "Back text is required",
	"flashcards.back.max":        "Back text exceeds 500 characters",
	"flashcards.edited.required": "Edited flag is required",
}

func (r *AcceptRequest) Validate() error {
	for i := range r.Flashcards {
		r.Flashcards[i].Front = strings.TrimSpace(r.Flashcards[i].Front)
		r.Flashcards[i].Back = strings.TrimSpace(r.Flashcards[i].Back)
	}
	return check(r, acceptMessages)
}

// GenerationQuery is the query string of GET /api/generations.
type GenerationQuery struct {
	Page  int    `json:"page" validate:"min=1"`
	Limit int    `json:"limit" validate:"min=1,max=100"`
	Sort  string `json:"sort" validate:"oneof=created_at"`
	Order string `json:"order" validate:"oneof=asc desc"`
}

var generationQueryMessages = map[string]string{
	"page.min":    "Page must be a positive integer",
	"limit.min":   "Limit must be a positive integer",
	"limit.max":   "Limit cannot exceed 100",
	"sort.oneof":  "Invalid sort field",
	"order.oneof": "Invalid sort order",
}

func ParseGenerationQuery(q url.Values) (GenerationQuery, error) {
	var (
		out GenerationQuery
		err error
	)
	if out.Page, err = queryInt(q.Get("page"), 1, "page", generationQueryMessages["page.min"]); err != nil {
		return out, err
	}
	if out.Limit, err = queryInt(q.Get("limit"), 20, "limit", generationQueryMessages["limit.min"]); err != nil {
		return out, err
	}
	out.Sort = orDefault(q.Get("sort"), "created_at")
	out.Order = orDefault(q.Get("order"), "desc")

	return out, check(&out, generationQueryMessages)
}
