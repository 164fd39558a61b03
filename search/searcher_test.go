package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (storage.ChunkRepository, storage.VectorIndex) {
	repo, index, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		repo.Close()
		backend.Close()
	})
	return repo, index
}

func seedChunk(t *testing.T, repo storage.ChunkRepository, index storage.VectorIndex, chunk *core.Chunk, vector []float32) *core.Chunk {
	if chunk.Access == core.AccessAny {
		chunk.Access = core.AccessPublic
	}
	added, err := repo.AddChunks(context.Background(), chunk)
	require.NoError(t, err)
	if vector != nil {
		require.NoError(t, index.Upsert(context.Background(), added[0].Id, vector))
	}
	return added[0]
}

// queryEmbedder returns a provider whose embedder always produces the given
// query vector, making vector rankings in tests exact.
func queryEmbedder(vector []float32) (ai.AIProvider, *mock.MockEmbedder) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return mock.NewMockProviderWithServices(embedder, nil), embedder
}

func TestNewSearcher(t *testing.T) {
	repo, index := setupTestStorage(t)
	provider := mock.NewMockProvider()

	t.Run("valid", func(t *testing.T) {
		searcher, err := NewSearcher(repo, index, provider)
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(nil, index, provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil vector index", func(t *testing.T) {
		_, err := NewSearcher(repo, nil, provider)
		assert.Equal(t, ErrVectorIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(repo, index, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestSearcher_Validation(t *testing.T) {
	repo, index := setupTestStorage(t)
	searcher, err := NewSearcher(repo, index, mock.NewMockProvider())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		_, err := searcher.Search(ctx, "   ", nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("invalid search type", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{Type: "fuzzy"})
		assert.ErrorIs(t, err, ErrInvalidSearchType)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{Limit: -1})
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("invalid filter access level", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{
			Filters: core.SearchFilters{Access: core.AccessLevel(42)},
		})
		assert.ErrorIs(t, err, core.ErrInvalidFilters)
	})

	t.Run("negative rerank weights", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{
			RerankWeights: &core.RerankWeights{Relevance: -0.5},
		})
		assert.ErrorIs(t, err, core.ErrInvalidWeights)
	})

	t.Run("negative fusion weights", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{
			FusionWeights: &FusionWeights{Vector: -1},
		})
		assert.ErrorIs(t, err, core.ErrInvalidWeights)
	})

	t.Run("negative token budget", func(t *testing.T) {
		_, err := searcher.Search(ctx, "query", &SearchOptions{MaxTokens: -5})
		assert.ErrorIs(t, err, core.ErrInvalidTokenBudget)
	})
}

func TestSearcher_KeywordSearch(t *testing.T) {
	repo, index := setupTestStorage(t)
	seedChunk(t, repo, index, &core.Chunk{Content: "Connecting to the database requires a connection string."}, nil)
	seedChunk(t, repo, index, &core.Chunk{Content: "Logging configuration lives in the config file."}, nil)

	searcher, err := NewSearcher(repo, index, mock.NewMockProvider())
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), "database connection", &SearchOptions{Type: SearchTypeKeyword})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Results[0].Content, "database")
	assert.False(t, resp.Partial)
	assert.Empty(t, resp.Warnings)
}

func TestSearcher_VectorSearch(t *testing.T) {
	repo, index := setupTestStorage(t)
	target := seedChunk(t, repo, index, &core.Chunk{Content: "alpha"}, []float32{1, 0, 0})
	seedChunk(t, repo, index, &core.Chunk{Content: "beta"}, []float32{0, 1, 0})

	provider, _ := queryEmbedder([]float32{1, 0, 0})
	searcher, err := NewSearcher(repo, index, provider)
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), "anything", &SearchOptions{Type: SearchTypeVector})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, target.Content, resp.Results[0].Content)
}

func TestSearcher_HybridUnionAndFilters(t *testing.T) {
	repo, index := setupTestStorage(t)

	// Strong vector match, weak lexically
	vectorHit := seedChunk(t, repo, index, &core.Chunk{Content: "alpha beta gamma"}, []float32{1, 0, 0})
	// Strong lexical match, no embedding at all
	lexicalHit := seedChunk(t, repo, index, &core.Chunk{Content: "database connection pooling for the database"}, nil)
	// Private chunk with a perfect vector must never surface
	seedChunk(t, repo, index, &core.Chunk{Content: "database secrets", Access: core.AccessPrivate}, []float32{1, 0, 0})

	provider, _ := queryEmbedder([]float32{1, 0, 0})
	searcher, err := NewSearcher(repo, index, provider)
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), "database connection", &SearchOptions{
		Filters: core.SearchFilters{Access: core.AccessPublic},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	contents := []string{resp.Results[0].Content, resp.Results[1].Content}
	assert.Contains(t, contents, vectorHit.Content)
	assert.Contains(t, contents, lexicalHit.Content)
	for _, result := range resp.Results {
		assert.NotContains(t, result.Content, "secrets")
	}
}

func TestSearcher_Determinism(t *testing.T) {
	repo, index := setupTestStorage(t)
	seedChunk(t, repo, index, &core.Chunk{Content: "Install the database client library."}, []float32{0.9, 0.1, 0})
	seedChunk(t, repo, index, &core.Chunk{Content: "db := Open(dsn)\ndefer db.Close()", IsCodeSnippet: true, CodeLanguage: "go"}, []float32{0.8, 0.2, 0})
	seedChunk(t, repo, index, &core.Chunk{Content: "Database tuning guide for production."}, []float32{0.7, 0.3, 0})

	provider, _ := queryEmbedder([]float32{1, 0, 0})
	searcher, err := NewSearcher(repo, index, provider)
	require.NoError(t, err)

	opts := &SearchOptions{UseReranking: true}
	first, err := searcher.Search(context.Background(), "database client", opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)

	for range 5 {
		again, err := searcher.Search(context.Background(), "database client", opts)
		require.NoError(t, err)
		require.Len(t, again.Results, len(first.Results))
		for i := range first.Results {
			assert.Equal(t, first.Results[i].Content, again.Results[i].Content)
			assert.Equal(t, first.Results[i].FinalScore, again.Results[i].FinalScore)
		}
	}
}

func TestSearcher_BranchDegradation(t *testing.T) {
	repo, index := setupTestStorage(t)
	seedChunk(t, repo, index, &core.Chunk{Content: "database connection guide"}, nil)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := mock.NewMockProviderWithServices(embedder, nil)

	searcher, err := NewSearcher(repo, index, provider)
	require.NoError(t, err)

	t.Run("hybrid degrades to keyword branch", func(t *testing.T) {
		resp, err := searcher.Search(context.Background(), "database connection", nil)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Results)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "vector branch degraded")
	})

	t.Run("vector-only fails outright", func(t *testing.T) {
		_, err := searcher.Search(context.Background(), "database connection", &SearchOptions{Type: SearchTypeVector})
		assert.ErrorIs(t, err, ErrAllBranchesFailed)
	})
}

func TestSearcher_LimitAndTokenBudget(t *testing.T) {
	repo, index := setupTestStorage(t)
	seedChunk(t, repo, index, &core.Chunk{Content: "database guide part one with plenty of words"}, nil)
	seedChunk(t, repo, index, &core.Chunk{Content: "database guide part two with plenty of words"}, nil)
	seedChunk(t, repo, index, &core.Chunk{Content: "database guide part three with plenty of words"}, nil)

	searcher, err := NewSearcher(repo, index, mock.NewMockProvider())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("limit caps result count", func(t *testing.T) {
		resp, err := searcher.Search(ctx, "database guide", &SearchOptions{Type: SearchTypeKeyword, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, resp.Results, 2)
	})

	t.Run("token budget truncates the list", func(t *testing.T) {
		// Each result is ~11 heuristic tokens; a budget of 25 admits two.
		resp, err := searcher.Search(ctx, "database guide", &SearchOptions{Type: SearchTypeKeyword, MaxTokens: 25})
		require.NoError(t, err)
		assert.Len(t, resp.Results, 2)
	})

	t.Run("too-small budget warns with empty results", func(t *testing.T) {
		resp, err := searcher.Search(ctx, "database guide", &SearchOptions{Type: SearchTypeKeyword, MaxTokens: 3})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		assert.NotEmpty(t, resp.Warnings)
	})
}

// cancellingMonitor cancels the request context once fusion completes, so
// the rerank pass observes an expired deadline.
type cancellingMonitor struct {
	noopMonitor
	cancel context.CancelFunc
}

func (m *cancellingMonitor) AfterFusion(_ []*core.SearchCandidate) {
	m.cancel()
}

func TestSearcher_PartialOnDeadlineDuringRerank(t *testing.T) {
	repo, index := setupTestStorage(t)
	seedChunk(t, repo, index, &core.Chunk{Content: "database connection guide"}, nil)
	seedChunk(t, repo, index, &core.Chunk{Content: "database tuning reference"}, nil)

	searcher, err := NewSearcher(repo, index, mock.NewMockProvider())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := searcher.SearchWithMonitor(ctx, "database", &SearchOptions{
		Type:         SearchTypeKeyword,
		UseReranking: true,
	}, &cancellingMonitor{cancel: cancel})
	require.NoError(t, err)
	assert.True(t, resp.Partial)
	assert.NotEmpty(t, resp.Results)
}
