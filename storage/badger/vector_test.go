package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addChunkWithVector(t *testing.T, repo storage.ChunkRepository, index storage.VectorIndex, content string, vector []float32, access core.AccessLevel) core.ID {
	t.Helper()
	chunk := newTestChunk(content)
	chunk.Access = access

	added, err := repo.AddChunks(context.Background(), chunk)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(context.Background(), added[0].Id, vector))
	return added[0].Id
}

func TestVectorIndex_Query(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	near := addChunkWithVector(t, repo, index, "near match", []float32{1, 0, 0}, core.AccessPublic)
	mid := addChunkWithVector(t, repo, index, "mid match", []float32{0.7, 0.7, 0}, core.AccessPublic)
	far := addChunkWithVector(t, repo, index, "far match", []float32{0, 0, 1}, core.AccessPublic)

	matches, err := index.Query(ctx, []float32{1, 0, 0}, core.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, near, matches[0].Id)
	assert.Equal(t, mid, matches[1].Id)
	assert.Equal(t, far, matches[2].Id)
}

func TestVectorIndex_Query_TopK(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	for i, content := range []string{"one", "two", "three", "four"} {
		addChunkWithVector(t, repo, index, content, []float32{float32(i), 1, 0}, core.AccessPublic)
	}

	matches, err := index.Query(context.Background(), []float32{1, 1, 0}, core.SearchFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestVectorIndex_Query_FiltersAreHard(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// The private chunk is the nearest neighbor but must never surface
	// under a public filter.
	addChunkWithVector(t, repo, index, "private secret", []float32{1, 0, 0}, core.AccessPrivate)
	public := addChunkWithVector(t, repo, index, "public doc", []float32{0.5, 0.5, 0}, core.AccessPublic)

	matches, err := index.Query(ctx, []float32{1, 0, 0}, core.SearchFilters{Access: core.AccessPublic}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, public, matches[0].Id)
}

func TestVectorIndex_Query_SkipsUnembedded(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	_, err = repo.AddChunks(ctx, newTestChunk("no vector yet"))
	require.NoError(t, err)

	matches, err := index.Query(ctx, []float32{1, 0, 0}, core.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorIndex_Query_InvalidArgs(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	_, err = index.Query(context.Background(), nil, core.SearchFilters{}, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = index.Query(context.Background(), []float32{1}, core.SearchFilters{}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestVectorIndex_UpsertMissingChunk(t *testing.T) {
	repo, index, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		index.Close()
		repo.Close()
		backend.Close()
	}()

	err = index.Upsert(context.Background(), core.ID(42), []float32{1})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Delete of a missing chunk is a no-op
	assert.NoError(t, index.Delete(context.Background(), core.ID(42)))
}
