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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EnrichmentHost is the base URL for the enrichment LLM API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EnrichmentHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EnrichmentModel is the model identifier to use for chunk enrichment.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	EnrichmentModel string

	// EnrichmentEnabled toggles ingestion-time enrichment. Search and
	// reranking work without enrichment; absent enrichment contributes 0
	// to the metadata stage.
	// Default: false
	EnrichmentEnabled bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEnrichmentHost sets the enrichment LLM host URL.
func WithEnrichmentHost(host string) ConfigOption {
	return func(c *Config) {
		c.EnrichmentHost = host
	}
}

// WithHost sets both embedding and enrichment hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.EnrichmentHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEnrichmentModel sets the enrichment model identifier.
func WithEnrichmentModel(model string) ConfigOption {
	return func(c *Config) {
		c.EnrichmentModel = model
	}
}

// WithEnrichment toggles ingestion-time chunk enrichment.
func WithEnrichment(enabled bool) ConfigOption {
	return func(c *Config) {
		c.EnrichmentEnabled = enabled
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and enrichment use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		EnrichmentHost:  defaultHost,
		EmbeddingModel:  "embeddinggemma",
		EnrichmentModel: "qwen2.5:3b",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.EnrichmentHost != "" && !strings.HasSuffix(c.EnrichmentHost, "/v1") {
		c.EnrichmentHost = strings.TrimSuffix(c.EnrichmentHost, "/")
		c.EnrichmentHost = c.EnrichmentHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EnrichmentEnabled {
		if c.EnrichmentHost == "" {
			return errors.New("ai config: EnrichmentHost is required when enrichment is enabled")
		}
		if c.EnrichmentModel == "" {
			return errors.New("ai config: EnrichmentModel is required when enrichment is enabled")
		}
	}
	return nil
}
