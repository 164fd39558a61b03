package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingCache(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cache, err := NewEmbeddingCache(mock.NewMockEmbedder())
		require.NoError(t, err)
		require.NotNil(t, cache)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEmbeddingCache(nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestEmbeddingCache_GetOrCompute(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	cache, err := NewEmbeddingCache(embedder)
	require.NoError(t, err)

	content := "how to open a connection"
	hash := core.IDFromContent(content)

	first, err := cache.GetOrCompute(ctx, hash, content)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, embedder.CallCount())

	// Second call is a cache hit
	second, err := cache.GetOrCompute(ctx, hash, content)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.CallCount())

	vector, ok := cache.Lookup(hash)
	require.True(t, ok)
	assert.Equal(t, first, vector)
}

func TestEmbeddingCache_ConcurrentSameHash(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	cache, err := NewEmbeddingCache(embedder)
	require.NoError(t, err)

	content := "identical content submitted many times"
	hash := core.IDFromContent(content)

	const callers = 32
	results := make([][]float32, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrCompute(ctx, hash, content)
		}(i)
	}
	wg.Wait()

	// Exactly one embedding computation; every caller joined it.
	assert.Equal(t, 1, embedder.CallCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestEmbeddingCache_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("service unavailable")
	}
	cache, err := NewEmbeddingCache(embedder)
	require.NoError(t, err)

	content := "will fail at first"
	hash := core.IDFromContent(content)

	_, err = cache.GetOrCompute(ctx, hash, content)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingGeneration)

	_, ok := cache.Lookup(hash)
	assert.False(t, ok, "failed computation must not populate the cache")

	// The hash stays eligible for retry once the embedder recovers.
	embedder.EmbedTextFunc = nil
	vector, err := cache.GetOrCompute(ctx, hash, content)
	require.NoError(t, err)
	require.NotEmpty(t, vector)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbeddingCache_StoreAndForget(t *testing.T) {
	cache, err := NewEmbeddingCache(mock.NewMockEmbedder())
	require.NoError(t, err)

	hash := core.IDFromContent("precomputed")
	cache.Store(hash, []float32{0.1, 0.2})

	vector, ok := cache.Lookup(hash)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
	assert.Equal(t, 1, cache.Len())

	cache.Forget(hash)
	_, ok = cache.Lookup(hash)
	assert.False(t, ok)
	assert.Zero(t, cache.Len())

	// Empty vectors are ignored
	cache.Store(hash, nil)
	_, ok = cache.Lookup(hash)
	assert.False(t, ok)
}
