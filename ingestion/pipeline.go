package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Pipeline orchestrates the ingestion of documents into indexed chunks.
// It manages content-hash deduplication, concurrent embedding generation,
// and optional enrichment.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	vectorIndex     storage.VectorIndex
	contentStore    *ContentStore
	embeddingCache  *EmbeddingCache
	enricher        ai.Enricher
	embeddingPool   *ants.Pool
	enrichmentPool  *ants.Pool
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		if p.enrichmentPool != nil {
			p.enrichmentPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		enrichmentPool, err := ants.NewPool(size)
		if err != nil {
			embeddingPool.Release()
			return err
		}

		p.embeddingPool = embeddingPool
		p.enrichmentPool = enrichmentPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	vectorIndex storage.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectorIndex == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	contentStore, err := NewContentStore(chunkRepository)
	if err != nil {
		return nil, err
	}

	embeddingCache, err := NewEmbeddingCache(provider.Embedder())
	if err != nil {
		return nil, err
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	enrichmentPool, err := ants.NewPool(poolSize)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	p := &Pipeline{
		chunkRepository: chunkRepository,
		vectorIndex:     vectorIndex,
		contentStore:    contentStore,
		embeddingCache:  embeddingCache,
		enricher:        provider.Enricher(),
		embeddingPool:   embeddingPool,
		enrichmentPool:  enrichmentPool,
		logger:          slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Document is a source document submitted for ingestion.
type Document struct {
	ID        string
	Title     string
	URL       string
	Source    string
	LibraryID string
	Version   string
	Topics    []string
	Access    core.AccessLevel
	Content   string // Markdown text
}

// Ingest splits the document into chunks, stores them, and enriches them
// with embeddings and optional LLM metadata. Content already known to the
// store is not re-created and not re-embedded.
//
// Embedding and enrichment run concurrently on worker pools and are awaited
// before Ingest returns. An embedding failure leaves the affected chunk
// unembedded and retryable; an enrichment failure only costs the enrichment
// text. Neither fails the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, doc *Document) ([]*core.Chunk, error) {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, core.ErrEmptyContent
	}

	access := doc.Access
	if access == core.AccessAny {
		access = core.AccessPublic
	}

	inputs := SplitMarkdown(doc.Content)
	if len(inputs) == 0 {
		return nil, core.ErrEmptyContent
	}

	chunks := make([]*core.Chunk, 0, len(inputs))
	toAdd := make([]*core.Chunk, 0, len(inputs))
	for _, input := range inputs {
		hash, isNew, err := p.contentStore.GetOrCreate(ctx, input.Content)
		if err != nil {
			return nil, err
		}

		if !isNew {
			// Fast path: the chunk usually already exists. A concurrent
			// ingestion of the same content may still be writing it, in
			// which case AddChunks below resolves to the stored copy.
			existing, err := p.chunkRepository.GetChunk(ctx, hash)
			if err == nil {
				chunks = append(chunks, existing)
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
		}

		title := input.Title
		if title == "" {
			title = doc.Title
		}

		chunk := &core.Chunk{
			Id:            hash,
			DocumentID:    doc.ID,
			Content:       input.Content,
			Title:         title,
			URL:           doc.URL,
			Source:        doc.Source,
			LibraryID:     doc.LibraryID,
			Version:       doc.Version,
			Topics:        doc.Topics,
			IsCodeSnippet: input.IsCodeSnippet,
			CodeLanguage:  input.CodeLanguage,
			Access:        access,
		}
		ScoreQuality(chunk)

		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		toAdd = append(toAdd, chunk)
	}

	if len(toAdd) > 0 {
		added, err := p.chunkRepository.AddChunks(ctx, toAdd...)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, added...)
	}

	p.embed(ctx, chunks)
	p.enrich(ctx, chunks)

	return chunks, nil
}

// embed generates and indexes embeddings for chunks that lack one, fanning
// out over the embedding pool. Already-embedded chunks seed the cache.
// Upsert persists the vector on the stored chunk, so no separate update
// pass is needed.
func (p *Pipeline) embed(ctx context.Context, chunks []*core.Chunk) {
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		if len(chunk.Vector) > 0 {
			p.embeddingCache.Store(chunk.Id, chunk.Vector)
			continue
		}

		wg.Add(1)
		c := chunk
		task := func() {
			defer wg.Done()

			vector, err := p.embeddingCache.GetOrCompute(ctx, c.Id, c.Content)
			if err != nil {
				p.logger.Error("error generating embedding", "chunk", c.Id, "err", err)
				return
			}
			if err := p.vectorIndex.Upsert(ctx, c.Id, vector); err != nil {
				p.logger.Error("error indexing embedding", "chunk", c.Id, "err", err)
				return
			}
			c.Vector = vector
		}
		if err := p.embeddingPool.Submit(task); err != nil {
			wg.Done()
			p.logger.Error("error submitting embedding task", "chunk", c.Id, "err", err)
		}
	}
	wg.Wait()
}

// enrich populates missing enrichment text via the optional enricher and
// persists the result. Failures are logged and skipped.
func (p *Pipeline) enrich(ctx context.Context, chunks []*core.Chunk) {
	if p.enricher == nil {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var enriched []*core.Chunk

	for _, chunk := range chunks {
		if chunk.Enrichment != "" {
			continue
		}

		wg.Add(1)
		c := chunk
		task := func() {
			defer wg.Done()

			text, err := p.enricher.Enrich(ctx, c.Content)
			if err != nil {
				p.logger.Warn("error enriching chunk", "chunk", c.Id, "err", err)
				return
			}
			if text == "" {
				return
			}

			c.Enrichment = text
			ScoreQuality(c)
			mu.Lock()
			enriched = append(enriched, c)
			mu.Unlock()
		}
		if err := p.enrichmentPool.Submit(task); err != nil {
			wg.Done()
			p.logger.Warn("error submitting enrichment task", "chunk", c.Id, "err", err)
		}
	}
	wg.Wait()

	if len(enriched) == 0 {
		return
	}
	if _, err := p.chunkRepository.UpdateChunks(ctx, enriched...); err != nil {
		p.logger.Warn("error persisting enrichment", "chunks", len(enriched), "err", err)
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
	if p.enrichmentPool != nil {
		p.enrichmentPool.Release()
	}
}
