package validation

import (
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/llm"
	"github.com/sakif/flashcards/internal/model"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64 { return &v }
func str(v string) *string { return &v }
func boolp(v bool) *bool { return &v }

// requireValidation asserts err is a validation error with the given primary
// message and returns its details.
func requireValidation(t *testing.T, err error, wantMsg string) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperror.Is(err, apperror.ErrValidation), "got %v", err)
	assert.Equal(t, wantMsg, err.Error())

	_, env := apperror.Translate(err)
	details, ok := env.Error.Details.(map[string]string)
	require.True(t, ok)
	return details
}

func TestGenerateRequest_Defaults(t *testing.T) {
	text := strings.Repeat("a", 1000)
	req := GenerateRequest{SourceText: "  " + text + "  "}

	require.NoError(t, req.Validate())

	assert.Equal(t, text, req.SourceText)
	assert.Equal(t, "  "+text+"  ", req.RawSourceText)
	assert.Equal(t, llm.DefaultModel, req.Model)
	assert.Equal(t, 5.0, *req.Count)
	assert.Equal(t, 0.7, *req.Temperature)
}

func TestGenerateRequest_Rules(t *testing.T) {
	valid := strings.Repeat("a", 1000)

	tests := []struct {
		name      string
		req       GenerateRequest
		wantField string
		wantMsg   string
	}{
		{"too short", GenerateRequest{SourceText: strings.Repeat("a", 999)},
			"source_text", "Source text must be at least 1000 characters"},
		{"short after trim", GenerateRequest{SourceText: strings.Repeat("a", 999) + "     "},
			"source_text", "Source text must be at least 1000 characters"},
		{"too long", GenerateRequest{SourceText: strings.Repeat("a", 10001)},
			"source_text", "Source text must not exceed 10000 characters"},
		{"unknown model", GenerateRequest{SourceText: valid, Model: "invalid-model-name"},
			"model", "Invalid model selected"},
		{"fractional count", GenerateRequest{SourceText: valid, Count: f64(2.5)},
			"count", "Count must be an integer"},
		{"zero count", GenerateRequest{SourceText: valid, Count: f64(0)},
			"count", "Must generate at least 1 flashcard"},
		{"too many", GenerateRequest{SourceText: valid, Count: f64(21)},
			"count", "Cannot generate more than 20 flashcards at once"},
		{"temperature too high", GenerateRequest{SourceText: valid, Temperature: f64(2.1)},
			"temperature", "Temperature must not exceed 2"},
		{"temperature negative", GenerateRequest{SourceText: valid, Temperature: f64(-0.1)},
			"temperature", "Temperature must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := requireValidation(t, tt.req.Validate(), tt.wantMsg)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestGenerateRequest_Bounds(t *testing.T) {
	for _, n := range []int{1000, 10000} {
		req := GenerateRequest{SourceText: strings.Repeat("x", n), Count: f64(20), Temperature: f64(2)}
		assert.NoError(t, req.Validate(), "length %d", n)
	}
	zero := GenerateRequest{SourceText: strings.Repeat("x", 1000), Temperature: f64(0)}
	assert.NoError(t, zero.Validate())
}

func TestGenerateRequest_PrimaryIsFirstField(t *testing.T) {
	req := GenerateRequest{SourceText: "short", Model: "nope", Count: f64(50)}

	details := requireValidation(t, req.Validate(), "Source text must be at least 1000 characters")
	assert.Len(t, details, 3)
	assert.Equal(t, "Invalid model selected", details["model"])
}

func TestAcceptRequest(t *testing.T) {
	ok := AcceptRequest{Flashcards: []AcceptItem{
		{Front: "  Q  ", Back: "A", Edited: boolp(false)},
		{Front: "Q2", Back: "A2", Edited: boolp(true)},
	}}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "Q", ok.Flashcards[0].Front)
	assert.False(t, ok.Flashcards[0].IsEdited())
	assert.True(t, ok.Flashcards[1].IsEdited())

	tests := []struct {
		name      string
		req       AcceptRequest
		wantField string
		wantMsg   string
	}{
		{"empty list", AcceptRequest{Flashcards: []AcceptItem{}},
			"flashcards", "At least one flashcard must be provided"},
		{"missing list", AcceptRequest{},
			"flashcards", "At least one flashcard must be provided"},
		{"front too long",
			AcceptRequest{Flashcards: []AcceptItem{{Front: strings.Repeat("a", 201), Back: "valid", Edited: boolp(false)}}},
			"flashcards.0.front", "Front text exceeds 200 characters"},
		{"blank back",
			AcceptRequest{Flashcards: []AcceptItem{
				{Front: "ok", Back: "ok", Edited: boolp(false)},
				{Front: "ok", Back: "   ", Edited: boolp(true)},
			}},
			"flashcards.1.back", "Back text is required"},
		{"back too long",
			AcceptRequest{Flashcards: []AcceptItem{{Front: "ok", Back: strings.Repeat("b", 501), Edited: boolp(true)}}},
			"flashcards.0.back", "Back text exceeds 500 characters"},
		{"missing edited",
			AcceptRequest{Flashcards: []AcceptItem{{Front: "ok", Back: "ok"}}},
			"flashcards.0.edited", "Edited flag is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := requireValidation(t, tt.req.Validate(), tt.wantMsg)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestAcceptRequest_TooMany(t *testing.T) {
	items := make([]AcceptItem, 101)
	for i := range items {
		items[i] = AcceptItem{Front: "f", Back: "b", Edited: boolp(false)}
	}
	req := AcceptRequest{Flashcards: items}

	requireValidation(t, req.Validate(), "Cannot accept more than 100 flashcards at once")
}

func TestCreateFlashcardRequest(t *testing.T) {
	manual := CreateFlashcardRequest{Front: " Q ", Back: " A "}
	require.NoError(t, manual.Validate())
	assert.Equal(t, model.SourceManual, manual.Source)
	assert.Equal(t, "Q", manual.Front)

	tests := []struct {
		name      string
		req       CreateFlashcardRequest
		wantField string
		wantMsg   string
	}{
		{"front too long", CreateFlashcardRequest{Front: strings.Repeat("a", 201), Back: "valid"},
			"front", "Front text must be at most 200 characters"},
		{"blank front", CreateFlashcardRequest{Front: "  ", Back: "valid"},
			"front", "Front text is required"},
		{"back too long", CreateFlashcardRequest{Front: "ok", Back: strings.Repeat("b", 501)},
			"back", "Back text must be at most 500 characters"},
		{"unknown source", CreateFlashcardRequest{Front: "ok", Back: "ok", Source: "imported"},
			"source", "Invalid source"},
		{"ai without generation", CreateFlashcardRequest{Front: "ok", Back: "ok", Source: model.SourceAIFull},
			"generation_id", "generation_id is required when source is ai-full or ai-edited"},
		{"manual with generation", CreateFlashcardRequest{Front: "ok", Back: "ok", GenerationID: i64(3)},
			"generation_id", "generation_id must be empty when source is manual"},
		{"non-positive generation", CreateFlashcardRequest{Front: "ok", Back: "ok", Source: model.SourceAIEdited, GenerationID: i64(0)},
			"generation_id", "generation_id must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := requireValidation(t, tt.req.Validate(), tt.wantMsg)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestBulkCreateFlashcardsRequest(t *testing.T) {
	ok := BulkCreateFlashcardsRequest{Flashcards: []CreateFlashcardRequest{
		{Front: "a", Back: "b"},
		{Front: "c", Back: "d", Source: model.SourceAIEdited, GenerationID: i64(7)},
	}}
	require.NoError(t, ok.Validate())

	requireValidation(t, (&BulkCreateFlashcardsRequest{}).Validate(), "At least one flashcard is required")

	tooLong := BulkCreateFlashcardsRequest{Flashcards: []CreateFlashcardRequest{
		{Front: "a", Back: "b"},
		{Front: strings.Repeat("a", 201), Back: "valid"},
	}}
	details := requireValidation(t, tooLong.Validate(), "Front text must be at most 200 characters")
	assert.Contains(t, details, "flashcards.1.front")

	missingGen := BulkCreateFlashcardsRequest{Flashcards: []CreateFlashcardRequest{
		{Front: "a", Back: "b"},
		{Front: "c", Back: "d", Source: model.SourceAIFull},
	}}
	details = requireValidation(t, missingGen.Validate(), "generation_id is required when source is ai-full or ai-edited")
	assert.Contains(t, details, "flashcards.1.generation_id")
}

func TestUpdateFlashcardRequest(t *testing.T) {
	onlyBack := UpdateFlashcardRequest{Back: str("  new  ")}
	require.NoError(t, onlyBack.Validate())
	assert.Equal(t, "new", *onlyBack.Back)

	requireValidation(t, (&UpdateFlashcardRequest{}).Validate(), "At least one field (front or back) must be provided")
	requireValidation(t, (&UpdateFlashcardRequest{Front: str(strings.Repeat("a", 201))}).Validate(),
		"Front text must be at most 200 characters")
	requireValidation(t, (&UpdateFlashcardRequest{Back: str(" ")}).Validate(), "Back text is required")
}

func TestParseFlashcardQuery(t *testing.T) {
	q, err := ParseFlashcardQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, FlashcardQuery{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}, q)
	assert.Nil(t, q.SourceFilter())

	q, err = ParseFlashcardQuery(url.Values{"page": {"3"}, "limit": {"10"}, "source": {"ai-edited"}, "sort": {"front"}, "order": {"asc"}})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, model.SourceAIEdited, *q.SourceFilter())
	assert.Equal(t, 20, Offset(q.Page, q.Limit))

	tests := []struct {
		name    string
		values  url.Values
		wantMsg string
	}{
		{"non-numeric page", url.Values{"page": {"abc"}}, "Page must be a positive integer"},
		{"zero page", url.Values{"page": {"0"}}, "Page must be a positive integer"},
		{"trailing garbage", url.Values{"limit": {"10abc"}}, "Limit must be a positive integer"},
		{"limit too high", url.Values{"limit": {"101"}}, "Limit cannot exceed 100"},
		{"bad source", url.Values{"source": {"imported"}}, "Invalid source"},
		{"bad sort", url.Values{"sort": {"back"}}, "Invalid sort field"},
		{"bad order", url.Values{"order": {"up"}}, "Invalid sort order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlashcardQuery(tt.values)
			requireValidation(t, err, tt.wantMsg)
		})
	}
}

func TestParseGenerationQuery(t *testing.T) {
	q, err := ParseGenerationQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, GenerationQuery{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}, q)

	_, err = ParseGenerationQuery(url.Values{"sort": {"model"}})
	requireValidation(t, err, "Invalid sort field")

	_, err = ParseGenerationQuery(url.Values{"limit": {"x"}})
	requireValidation(t, err, "Limit must be a positive integer")
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42", "Invalid flashcard ID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(raw, "Invalid flashcard ID")
		requireValidation(t, err, "Invalid flashcard ID")
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 20, 0},
		{3, 20, 40},
		{0, 20, 0},
		{92233720368547760, 100, math.MaxInt},
		{math.MaxInt, 1, math.MaxInt - 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Offset(tt.page, tt.limit), "page=%d limit=%d", tt.page, tt.limit)
	}
}
