package ingestion

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentStore(t *testing.T) {
	_, err := NewContentStore(nil)
	assert.Equal(t, ErrChunkRepositoryRequired, err)
}

func TestContentStore_GetOrCreate(t *testing.T) {
	repo, index, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		repo.Close()
		backend.Close()
	})

	store, err := NewContentStore(repo)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("new content", func(t *testing.T) {
		hash, isNew, err := store.GetOrCreate(ctx, "brand new content")
		require.NoError(t, err)
		assert.True(t, isNew)
		assert.Equal(t, core.IDFromContent("brand new content"), hash)
	})

	t.Run("repeated content is not new", func(t *testing.T) {
		first, isNew, err := store.GetOrCreate(ctx, "repeated content")
		require.NoError(t, err)
		assert.True(t, isNew)

		second, isNew, err := store.GetOrCreate(ctx, "repeated content")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, first, second)
	})

	t.Run("normalized content shares a hash", func(t *testing.T) {
		first, _, err := store.GetOrCreate(ctx, "line one\nline two")
		require.NoError(t, err)

		second, isNew, err := store.GetOrCreate(ctx, "line one  \r\nline two\n")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, first, second)
	})

	t.Run("content stored by another writer is not new", func(t *testing.T) {
		chunk := &core.Chunk{Content: "stored elsewhere", Access: core.AccessPublic}
		added, err := repo.AddChunks(ctx, chunk)
		require.NoError(t, err)

		hash, isNew, err := store.GetOrCreate(ctx, "stored elsewhere")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, added[0].Id, hash)
	})
}

func TestContentStore_ConcurrentCreation(t *testing.T) {
	repo, index, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		repo.Close()
		backend.Close()
	})

	store, err := NewContentStore(repo)
	require.NoError(t, err)
	ctx := context.Background()

	const callers = 16
	hashes := make([]core.ID, callers)
	creators := make([]bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash, isNew, err := store.GetOrCreate(ctx, "contested content")
			require.NoError(t, err)
			hashes[i] = hash
			creators[i] = isNew
		}(i)
	}
	wg.Wait()

	// Every caller resolves to the same hash; exactly one owns creation.
	var owners int
	for i := 0; i < callers; i++ {
		assert.Equal(t, hashes[0], hashes[i])
		if creators[i] {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}
