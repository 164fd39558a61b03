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


package docquery

import (
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/reindex"
	"github.com/poiesic/docquery/search"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
)

// Engine bundles the storage backend, the AI provider, and factories for
// the ingestion, search, and reindex components. It is the main entry
// point for embedding the library in an application.
type Engine struct {
	backend     *badger.Backend
	chunkRepo   storage.ChunkRepository
	vectorIndex storage.VectorIndex
	provider    ai.AIProvider
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible
// AI provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider supplies a pre-built AI provider, bypassing the default
// OpenAI-compatible provider construction.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// NewEngine opens the storage at filePath and wires up the chunk
// repository, vector index, and AI provider.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create vector index
	vectorIndex, err := badger.NewVectorIndex(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			vectorIndex.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Engine{
		backend:     backend,
		chunkRepo:   chunkRepo,
		vectorIndex: vectorIndex,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close vector index and repository
	if err := e.vectorIndex.Close(); err != nil {
		e.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) VectorIndex() storage.VectorIndex {
	return e.vectorIndex
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.chunkRepo, e.vectorIndex, e.provider, opts...)
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.chunkRepo, e.vectorIndex, e.provider, opts...)
}

func (e *Engine) NewReindexer(config reindex.Config, opts ...reindex.Option) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(e.chunkRepo, e.vectorIndex, e.provider, config, opts...)
}
