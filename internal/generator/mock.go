package generator

import (
	"context"
	"fmt"
	"time"
)

// DefaultMockDelay imitates the latency of a real completion.
const DefaultMockDelay = 1500 * time.Millisecond

// Mock returns Count numbered placeholder suggestions after a fixed delay.
// It is used when no provider credential is configured.
type Mock struct {
	delay time.Duration
}

var _ Generator = (*Mock)(nil)

func NewMock(delay time.Duration) *Mock {
	return &Mock{delay: delay}
}

func (m *Mock) Generate(ctx context.Context, req Request) ([]Suggestion, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]Suggestion, req.Count)
	for i := range out {
		out[i] = Suggestion{
			Front: fmt.Sprintf("Question %d from the source text", i+1),
			Back:  fmt.Sprintf("Answer %d based on the content provided", i+1),
		}
	}
	return out, nil
}
