package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/generator"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They apply the
// same ownership rule as the SQLite implementation: a row owned by another
// user is reported exactly like a missing row. The *Err fields simulate a
// failing database; the call counters let tests assert that nothing was
// touched.

type fakeGenerationRepo struct {
	mu        sync.Mutex
	gens      map[int64]*model.Generation
	errorLogs []model.GenerationErrorLog
	nextID    int64
	calls     int
	getCalls  int

	createErr   error
	getErr      error
	updateErr   error
	errorLogErr error
	listErr     error
	totals      *repository.GenerationTotals
	totalsErr   error
}

var _ repository.GenerationRepository = (*fakeGenerationRepo)(nil)

func newFakeGenerationRepo() *fakeGenerationRepo {
	return &fakeGenerationRepo{gens: make(map[int64]*model.Generation)}
}

// seed stores a generation owned by userID and returns its id.
func (f *fakeGenerationRepo) seed(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.gens[f.nextID] = &model.Generation{
		ID:             f.nextID,
		UserID:         userID,
		Model:          "mistralai/mistral-7b-instruct:free",
		GeneratedCount: 5,
		CreatedAt:      time.Now(),
	}
	return f.nextID
}

func (f *fakeGenerationRepo) CreateGeneration(_ context.Context, gen *model.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	gen.ID = f.nextID
	gen.CreatedAt = time.Now()
	gen.UpdatedAt = gen.CreatedAt
	stored := *gen
	f.gens[gen.ID] = &stored
	return nil
}

func (f *fakeGenerationRepo) GetGeneration(_ context.Context, userID string, id int64) (*model.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	g, ok := f.gens[id]
	if !ok || g.UserID != userID {
		return nil, apperror.NotFound("Generation not found or access denied")
	}
	result := *g
	return &result, nil
}

func (f *fakeGenerationRepo) ListGenerations(_ context.Context, userID string, opts repository.ListOptions) ([]model.Generation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var owned []model.Generation
	for _, g := range f.gens {
		if g.UserID == userID {
			owned = append(owned, *g)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })
	total := len(owned)
	if opts.Offset >= total {
		return []model.Generation{}, total, nil
	}
	owned = owned[opts.Offset:]
	if opts.Limit < len(owned) {
		owned = owned[:opts.Limit]
	}
	return owned, total, nil
}

func (f *fakeGenerationRepo) UpdateAcceptedCounts(_ context.Context, userID string, id int64, unedited, edited int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.updateErr != nil {
		return f.updateErr
	}
	g, ok := f.gens[id]
	if !ok || g.UserID != userID {
		return apperror.NotFound("Generation not found or access denied")
	}
	g.AcceptedUneditedCount = unedited
	g.AcceptedEditedCount = edited
	return nil
}

func (f *fakeGenerationRepo) CreateErrorLog(ctx context.Context, entry *model.GenerationErrorLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.errorLogErr != nil {
		return f.errorLogErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.errorLogs = append(f.errorLogs, *entry)
	return nil
}

func (f *fakeGenerationRepo) GenerationTotals(_ context.Context, _ string) (*repository.GenerationTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.totalsErr != nil {
		return nil, f.totalsErr
	}
	if f.totals == nil {
		return &repository.GenerationTotals{ModelsUsed: map[string]int{}}, nil
	}
	return f.totals, nil
}

func (f *fakeGenerationRepo) generation(id int64) model.Generation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.gens[id]
}

type fakeFlashcardRepo struct {
	mu          sync.Mutex
	cards       map[int64]*model.Flashcard
	nextID      int64
	calls       int
	createCalls int

	createErr error
	listErr   error
	counts    map[model.Source]int
	countErr  error
}

var _ repository.FlashcardRepository = (*fakeFlashcardRepo)(nil)

func newFakeFlashcardRepo() *fakeFlashcardRepo {
	return &fakeFlashcardRepo{cards: make(map[int64]*model.Flashcard)}
}

func (f *fakeFlashcardRepo) CreateFlashcards(_ context.Context, cards []*model.Flashcard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now().UTC()
	for _, c := range cards {
		f.nextID++
		c.ID = f.nextID
		c.CreatedAt = now
		c.UpdatedAt = now
		stored := *c
		f.cards[c.ID] = &stored
	}
	return nil
}

func (f *fakeFlashcardRepo) GetFlashcard(_ context.Context, userID string, id int64) (*model.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	c, ok := f.cards[id]
	if !ok || c.UserID != userID {
		return nil, apperror.NotFound("Flashcard not found")
	}
	result := *c
	return &result, nil
}

func (f *fakeFlashcardRepo) ListFlashcards(_ context.Context, userID string, opts repository.FlashcardListOptions) ([]model.Flashcard, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var owned []model.Flashcard
	for _, c := range f.cards {
		if c.UserID != userID {
			continue
		}
		if opts.Source != nil && c.Source != *opts.Source {
			continue
		}
		owned = append(owned, *c)
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	total := len(owned)
	if opts.Offset >= total {
		return []model.Flashcard{}, total, nil
	}
	owned = owned[opts.Offset:]
	if opts.Limit < len(owned) {
		owned = owned[:opts.Limit]
	}
	return owned, total, nil
}

func (f *fakeFlashcardRepo) UpdateFlashcard(_ context.Context, userID string, id int64, patch repository.FlashcardPatch) (*model.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	c, ok := f.cards[id]
	if !ok || c.UserID != userID {
		return nil, apperror.NotFound("Flashcard not found")
	}
	if patch.Front != nil {
		c.Front = *patch.Front
	}
	if patch.Back != nil {
		c.Back = *patch.Back
	}
	c.UpdatedAt = time.Now().UTC()
	result := *c
	return &result, nil
}

func (f *fakeFlashcardRepo) DeleteFlashcard(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	c, ok := f.cards[id]
	if !ok || c.UserID != userID {
		return apperror.NotFound("Flashcard not found")
	}
	delete(f.cards, id)
	return nil
}

func (f *fakeFlashcardRepo) CountFlashcardsBySource(_ context.Context, _ string) (map[model.Source]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

func (f *fakeFlashcardRepo) stored() []model.Flashcard {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Flashcard, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeGenerator records its calls and returns either err or count suggestions.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	last  generator.Request
	err   error
	// returned overrides the number of suggestions; 0 means req.Count
	returned int
}

var _ generator.Generator = (*fakeGenerator)(nil)

func (f *fakeGenerator) Generate(_ context.Context, req generator.Request) ([]generator.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	n := req.Count
	if f.returned > 0 {
		n = f.returned
	}
	out := make([]generator.Suggestion, n)
	for i := range out {
		out[i] = generator.Suggestion{Front: "Q", Back: "A"}
	}
	return out, nil
}
