// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/storage"
)

// Config controls batch sizing, progress reporting, and retry behavior
// for a reindex run.
type Config struct {
	// BatchSize is the number of chunks embedded per request.
	BatchSize int

	// ReportInterval is how many processed chunks between progress lines.
	ReportInterval int

	// MaxRetries is the number of embedding attempts per batch.
	MaxRetries int

	// RetryDelay is the initial backoff delay between attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the standard reindex configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Result summarizes a completed reindex run.
type Result struct {
	Total     int
	Processed int
	Failed    int
}

// Reindexer re-embeds the entire chunk corpus, typically after switching
// to a new embedding model. Failed batches are logged and skipped so a
// single bad batch does not abort the run.
type Reindexer struct {
	repository storage.ChunkRepository
	processor  *BatchProcessor
	config     Config
	logger     *slog.Logger
}

// Option configures a Reindexer.
type Option func(*Reindexer)

// WithLogger sets the logger used for progress and error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) {
		r.logger = logger
	}
}

// WithEmbeddingCache refreshes the given cache with the new vectors as
// chunks are reprocessed.
func WithEmbeddingCache(cache *ingestion.EmbeddingCache) Option {
	return func(r *Reindexer) {
		r.processor.cache = cache
	}
}

// NewReindexer creates a reindexer over the given repository and vector
// index, embedding with the provider's embedder.
func NewReindexer(repository storage.ChunkRepository, vectorIndex storage.VectorIndex, provider ai.AIProvider, config Config, opts ...Option) (*Reindexer, error) {
	if repository == nil {
		return nil, ingestion.ErrChunkRepositoryRequired
	}
	if vectorIndex == nil {
		return nil, ingestion.ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ingestion.ErrAIProviderRequired
	}
	if provider.Embedder() == nil {
		return nil, ingestion.ErrEmbedderRequired
	}

	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.MaxRetries < 1 {
		return nil, ErrInvalidMaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig().RetryDelay
	}

	r := &Reindexer{
		repository: repository,
		processor:  NewBatchProcessor(provider.Embedder(), vectorIndex, nil, config),
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run re-embeds every stored chunk and returns a summary of the run.
// A batch that fails after all retries is skipped and counted in
// Result.Failed; the run itself only fails on iteration errors or
// context cancellation.
func (r *Reindexer) Run(ctx context.Context) (*Result, error) {
	total, err := r.repository.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	r.logger.Info("starting reindex", "total_chunks", total, "batch_size", r.config.BatchSize)

	tracker := NewProgressTracker(r.logger, total, r.config.ReportInterval)
	iterator := NewChunkIterator(r.repository, r.config.BatchSize)

	err = iterator.ForEachBatch(ctx, func(batch []*core.Chunk) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("batch failed, skipping", "batch_size", len(batch), "error", err)
			tracker.AddFailed(len(batch))
			return nil
		}
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracker.Finish()
	return &Result{
		Total:     total,
		Processed: tracker.Processed(),
		Failed:    tracker.Failed(),
	}, nil
}
