package reindex

import (
	"context"
	"fmt"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// ChunkIterator walks the chunk repository in fixed-size batches so a
// corpus larger than memory can be reprocessed incrementally.
type ChunkIterator struct {
	repository storage.ChunkRepository
	batchSize  int
}

// NewChunkIterator creates an iterator over the repository. A batchSize
// of zero or less falls back to the default of 100.
func NewChunkIterator(repository storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ChunkIterator{
		repository: repository,
		batchSize:  batchSize,
	}
}

// ForEachBatch calls fn with successive batches of chunks until the
// corpus is exhausted, fn returns an error, or the context ends. The
// final batch may be smaller than the configured batch size.
func (it *ChunkIterator) ForEachBatch(ctx context.Context, fn func(batch []*core.Chunk) error) error {
	batch := make([]*core.Chunk, 0, it.batchSize)

	err := it.repository.IterateChunks(ctx, func(chunk *core.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, chunk)
		if len(batch) < it.batchSize {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return fmt.Errorf("iterating chunks: %w", err)
		}
	}
	return nil
}
