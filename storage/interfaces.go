package storage

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// ChunkRepository provides durable, content-addressed storage of chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks adds one or more chunks to storage. Chunks are keyed by
	// their content hash: adding a chunk whose hash already exists is a
	// no-op for that chunk. Sets InsertedAt if not already set.
	// Returns the stored chunks (existing ones for duplicate hashes).
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks, refreshing UpdatedAt.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs, including index entries.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// HasChunk reports whether a chunk with the given ID exists.
	HasChunk(ctx context.Context, id core.ID) (bool, error)

	// GetChunksByDocument retrieves all chunks belonging to a document.
	GetChunksByDocument(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// IterateChunks calls fn for every stored chunk in key order.
	// Iteration stops on the first error from fn, which is returned.
	IterateChunks(ctx context.Context, fn func(chunk *core.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// VectorIndex provides nearest-neighbor search over chunk embeddings.
// Implementations must be thread-safe.
type VectorIndex interface {
	// Upsert inserts or replaces the embedding for a chunk.
	Upsert(ctx context.Context, id core.ID, vector []float32) error

	// Query returns up to topK chunk IDs nearest to the given vector,
	// restricted to chunks passing the filters, ordered by similarity
	// descending.
	Query(ctx context.Context, vector []float32, filters core.SearchFilters, topK int) ([]core.VectorMatch, error)

	// Delete removes the embedding for a chunk. Missing IDs are ignored.
	Delete(ctx context.Context, id core.ID) error

	// Close closes the index and releases resources.
	Close() error
}
