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
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Enricher produces a short explanation of a documentation chunk at
// ingestion time. The explanation is stored on the chunk and consumed by
// the metadata rerank stage. Enrichment is optional: a missing or failing
// enricher must never break ingestion or scoring.
// Implementations must be thread-safe for concurrent use.
type Enricher interface {
	// Enrich returns a one-or-two sentence explanation of what the chunk
	// demonstrates. Returns an empty string (not an error) when the model
	// produces nothing useful.
	Enrich(ctx context.Context, content string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Enricher instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Enricher returns the chunk enrichment service, or nil when
	// enrichment is not configured.
	Enricher() Enricher

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
