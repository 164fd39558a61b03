package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// VectorIndex implements storage.VectorIndex as a brute-force cosine scan
// over the chunk records. Embeddings live on the chunk records themselves;
// chunks without a vector are invisible to the index. Filters are applied
// during the scan so filtered-out chunks never enter the candidate set.
type VectorIndex struct {
	backend *Backend
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a vector index over the given backend.
func NewVectorIndex(backend *Backend) (storage.VectorIndex, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &VectorIndex{backend: backend}, nil
}

// Close releases index resources.
func (v *VectorIndex) Close() error {
	return nil
}

// Upsert stores the embedding on the chunk record.
// Returns storage.ErrNotFound if the chunk doesn't exist.
func (v *VectorIndex) Upsert(ctx context.Context, id core.ID, vector []float32) error {
	return v.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(id)
		item, err := tx.Get(key)
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var chunk *core.Chunk
		if err := item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		}); err != nil {
			return err
		}

		chunk.Vector = vector
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes the embedding from the chunk record. Missing IDs are ignored.
func (v *VectorIndex) Delete(ctx context.Context, id core.ID) error {
	err := v.Upsert(ctx, id, nil)
	if err == storage.ErrNotFound {
		return nil
	}
	return err
}

// Query returns up to topK chunks nearest to the given vector, restricted to
// chunks passing the filters, ordered by similarity descending with ties
// broken by ID ascending.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, filters core.SearchFilters, topK int) ([]core.VectorMatch, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var matches []core.VectorMatch
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(chunkPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}

			if len(chunk.Vector) == 0 {
				continue
			}
			if !filters.Match(chunk) {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			matches = append(matches, core.VectorMatch{
				Id:         chunk.Id,
				Similarity: dotProduct(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b core.VectorMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
