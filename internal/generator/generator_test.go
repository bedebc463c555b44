package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/llm"
)

func TestMock_ReturnsExactlyCount(t *testing.T) {
	m := NewMock(0)

	for _, n := range []int{1, 5, 20} {
		got, err := m.Generate(context.Background(), Request{Count: n})
		require.NoError(t, err)
		require.Len(t, got, n)
		assert.Equal(t, "Question 1 from the source text", got[0].Front)
		assert.Equal(t, "Answer 1 based on the content provided", got[0].Back)
	}
}

func TestMock_HonoursContext(t *testing.T) {
	m := NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, Request{Count: 3})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// fakeCompleter records the request and replays a canned response.
type fakeCompleter struct {
	got  llm.ChatRequest
	resp *llm.ChatResponse
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

func contentResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: content}}}}
}

func TestLLM_ShapesStrictRequest(t *testing.T) {
	fake := &fakeCompleter{resp: contentResponse(`{"flashcards":[{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]}`)}
	g := NewLLM(fake)

	got, err := g.Generate(context.Background(), Request{
		SourceText:  "some text",
		Model:       "openai/gpt-4",
		Count:       2,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{"Q1", "A1"}, {"Q2", "A2"}}, got)

	req := fake.got
	assert.Equal(t, "openai/gpt-4", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Generate exactly 2 flashcards")
	assert.Contains(t, req.Messages[1].Content, "some text")
	assert.Equal(t, 0.3, *req.Temperature)
	assert.Equal(t, 2000, *req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "json_schema", req.ResponseFormat.Type)
	assert.Equal(t, "flashcard_generation", req.ResponseFormat.JSONSchema.Name)
	assert.True(t, req.ResponseFormat.JSONSchema.Strict)
}

func TestLLM_PassesAdapterErrorsThrough(t *testing.T) {
	upstream := apperror.RateLimited("slow down")
	g := NewLLM(&fakeCompleter{err: upstream})

	_, err := g.Generate(context.Background(), Request{Model: "m", Count: 1})
	assert.True(t, errors.Is(err, upstream))
}

func TestLLM_BadContent(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.ChatResponse
	}{
		{"no choices", &llm.ChatResponse{}},
		{"empty content", contentResponse("  ")},
		{"not json", contentResponse("Here are your flashcards: ...")},
		{"missing array", contentResponse(`{}`)},
		{"null array", contentResponse(`{"flashcards":null}`)},
		{"empty array", contentResponse(`{"flashcards":[]}`)},
		{"blank sides", contentResponse(`{"flashcards":[{"front":"  ","back":""}]}`)},
		{"wrong fields", contentResponse(`{"flashcards":[{"x":1}]}`)},
		{"one bad item", contentResponse(`{"flashcards":[{"front":"Q","back":"A"},{"front":"Q2","back":""}]}`)},
		{"front too long", contentResponse(`{"flashcards":[{"front":"` + strings.Repeat("é", 201) + `","back":"A"}]}`)},
		{"back too long", contentResponse(`{"flashcards":[{"front":"Q","back":"` + strings.Repeat("a", 501) + `"}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLLM(&fakeCompleter{resp: tt.resp})

			_, err := g.Generate(context.Background(), Request{Model: "m", Count: 1})
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.ErrServiceUnavailable))
			assert.Contains(t, err.Error(), "Model 'm'")
		})
	}
}

func TestLLM_TrimsAndAcceptsLimits(t *testing.T) {
	front := strings.Repeat("é", 200)
	fake := &fakeCompleter{resp: contentResponse(`{"flashcards":[{"front":"  ` + front + `  ","back":" A "}]}`)}

	got, err := NewLLM(fake).Generate(context.Background(), Request{Model: "m", Count: 1})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{Front: front, Back: "A"}, got[0])
}
