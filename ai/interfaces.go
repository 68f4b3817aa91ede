package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryExtractor extracts a structured query analysis from free text using a
// structured-output contract. It is the slow path behind the deterministic
// pattern extractor and is only consulted when pattern confidence is low.
// Implementations must be thread-safe for concurrent use.
type QueryExtractor interface {
	// ExtractQuery analyzes free text and returns the intent plus any
	// structured filters it can identify. The reported confidence is the
	// model's own estimate and may exceed [0,1]; callers clamp it.
	// Returns an error if the provider call or response parsing fails.
	ExtractQuery(ctx context.Context, text string) (*QueryAnalysis, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and QueryExtractor
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// QueryExtractor returns the structured query extraction service.
	// The returned QueryExtractor is safe for concurrent use.
	QueryExtractor() QueryExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
