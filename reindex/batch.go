package reindex

import (
	"context"
	"fmt"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/storage"
)

// BatchProcessor re-embeds one batch of chunks at a time. Embedding
// requests are retried with exponential backoff before the batch is
// declared failed.
type BatchProcessor struct {
	embedder    ai.Embedder
	vectorIndex storage.VectorIndex
	cache       *ingestion.EmbeddingCache
	config      Config
}

// NewBatchProcessor creates a processor. The cache may be nil when no
// embedding cache needs refreshing.
func NewBatchProcessor(embedder ai.Embedder, vectorIndex storage.VectorIndex, cache *ingestion.EmbeddingCache, config Config) *BatchProcessor {
	return &BatchProcessor{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		cache:       cache,
		config:      config,
	}
}

// Process re-embeds every chunk in the batch and persists the new
// vectors. Vectors are normalized to unit length before storage. When
// a cache is configured its entries are refreshed as well, so searches
// issued after the run see the new model's vectors.
func (p *BatchProcessor) Process(ctx context.Context, batch []*core.Chunk) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, p.config.MaxRetries, p.config.RetryDelay, func() error {
		var embedErr error
		embeddings, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("embedding batch of %d chunks: %w", len(batch), err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbeddingMismatch, len(embeddings), len(batch))
	}

	for i, chunk := range batch {
		if len(embeddings[i]) == 0 {
			return fmt.Errorf("%w: chunk %d", ErrEmptyEmbedding, chunk.Id)
		}
		vector := NormalizeVector(embeddings[i])
		if err := p.vectorIndex.Upsert(ctx, chunk.Id, vector); err != nil {
			return fmt.Errorf("upserting vector for chunk %d: %w", chunk.Id, err)
		}
		if p.cache != nil {
			p.cache.Store(chunk.Id, vector)
		}
	}
	return nil
}
