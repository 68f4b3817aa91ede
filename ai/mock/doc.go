// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.QueryExtractor,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockExtractor := mock.NewMockQueryExtractor()
//	mockExtractor.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
//	    return &ai.QueryAnalysis{Intent: "member_search", Confidence: 0.8}, nil
//	}
//
//	// Check call counts
//	count := mockExtractor.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockQueryExtractor: Classifies question-style text as document_qa
//   - MockProvider: Aggregates mock embedder and extractor
package mock
