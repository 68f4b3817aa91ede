package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/communehq/membersearch/ai"
)

// MockQueryExtractor is a test double for ai.QueryExtractor.
// It allows custom behavior injection via function fields.
type MockQueryExtractor struct {
	// ExtractQueryFunc is called by ExtractQuery if set.
	// If nil, uses a simple keyword heuristic.
	ExtractQueryFunc func(ctx context.Context, text string) (*ai.QueryAnalysis, error)

	callCount atomic.Int64
}

// NewMockQueryExtractor creates a mock query extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockQueryExtractor() *MockQueryExtractor {
	return &MockQueryExtractor{}
}

// ExtractQuery returns a simple heuristic analysis unless a custom func is set.
// The default classifies questions as document_qa and everything else as
// member_search with a fixed confidence of 0.9.
func (m *MockQueryExtractor) ExtractQuery(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
	m.callCount.Add(1)

	if m.ExtractQueryFunc != nil {
		return m.ExtractQueryFunc(ctx, text)
	}

	analysis := &ai.QueryAnalysis{
		Intent:     "member_search",
		Confidence: 0.9,
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "?") || strings.HasPrefix(lower, "what") || strings.HasPrefix(lower, "how") {
		analysis.Intent = "document_qa"
	}
	return analysis, nil
}

// CallCount returns the number of times ExtractQuery was called.
func (m *MockQueryExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and any injected behavior.
func (m *MockQueryExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractQueryFunc = nil
}
