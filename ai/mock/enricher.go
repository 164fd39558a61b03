package mock

import (
	"context"
	"strings"
	"sync/atomic"
)

// MockEnricher is a test double for ai.Enricher.
// It allows custom behavior injection via function fields.
type MockEnricher struct {
	// EnrichFunc is called by Enrich if set.
	// If nil, uses default deterministic behavior.
	EnrichFunc func(ctx context.Context, content string) (string, error)

	callCount atomic.Int64
}

// NewMockEnricher creates a mock enricher with default behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockEnricher() *MockEnricher {
	return &MockEnricher{}
}

// Enrich returns a deterministic explanation derived from the content.
func (m *MockEnricher) Enrich(ctx context.Context, content string) (string, error) {
	m.callCount.Add(1)

	if m.EnrichFunc != nil {
		return m.EnrichFunc(ctx, content)
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return "", nil
	}
	if len(words) > 6 {
		words = words[:6]
	}
	return "Explains " + strings.Join(words, " ") + ".", nil
}

// CallCount returns the number of times Enrich was called.
func (m *MockEnricher) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEnricher) Reset() {
	m.callCount.Store(0)
	m.EnrichFunc = nil
}
