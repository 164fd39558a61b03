package docquery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/reindex"
	"github.com/poiesic/docquery/search"
)

func TestNewEngine(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		engine, err := NewEngine(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		// Verify components are initialized
		assert.NotNil(t, engine.ChunkRepository())
		assert.NotNil(t, engine.VectorIndex())
		assert.NotNil(t, engine.backend)
		assert.NotNil(t, engine.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create an engine at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		engine, err := NewEngine(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, engine)
	})
}

func TestEngine_Close(t *testing.T) {
	tmpDir := t.TempDir()
	engine, err := NewEngine(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, engine)

	err = engine.Close()
	assert.NoError(t, err)
}

func TestEngine_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	engine, err := NewEngine(tmpDir, WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, engine)
	defer engine.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := engine.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := engine.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create reindexer", func(t *testing.T) {
		reindexer, err := engine.NewReindexer(reindex.DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, reindexer)
	})
}

// End-to-end: ingest a document through the engine, then search for it.
func TestEngine_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	engine, err := NewEngine(tmpDir, WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	doc := &ingestion.Document{
		ID:        "doc-1",
		Title:     "Driver Guide",
		LibraryID: "acme-db",
		Version:   "2.0",
		Access:    core.AccessPublic,
		Content: "# Connecting\n\nCall Open with a connection string to connect to the server.\n\n" +
			"```go\nconn, err := acmedb.Open(\"localhost:5432\")\n```\n",
	}
	chunks, err := pipeline.Ingest(ctx, doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	searcher, err := engine.NewSearcher()
	require.NoError(t, err)

	response, err := searcher.Search(ctx, "connect to the server", &search.SearchOptions{
		Type: search.SearchTypeHybrid,
	})
	require.NoError(t, err)
	require.NotEmpty(t, response.Results)
	assert.False(t, response.Partial)
}
