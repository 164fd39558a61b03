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


package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const enricherSystemPrompt = `You are a documentation indexing assistant.
Given a documentation excerpt or code snippet, reply with one or two short
sentences explaining what it demonstrates. Reply with plain text only, no
markdown, no preamble. If the excerpt is not meaningful, reply with an
empty string.`

// Maximum excerpt length submitted to the enrichment model.
const enricherMaxInput = 4000

// Enricher implements ai.Enricher using OpenAI-compatible chat APIs.
type Enricher struct {
	client llms.Model
	logger *slog.Logger
}

// newEnricher is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEnricher(config *ai.Config) (*Enricher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EnrichmentHost),
		openai.WithToken("none"),
		openai.WithModel(config.EnrichmentModel),
	)
	if err != nil {
		return nil, err
	}

	return &Enricher{
		client: client,
		logger: slog.Default().With("component", "openai-enricher"),
	}, nil
}

// NewEnricher creates a new enricher using the provided configuration.
//
// Returns ai.Enricher interface to enforce abstraction.
func NewEnricher(config *ai.Config) (ai.Enricher, error) {
	return newEnricher(config)
}

// Enrich returns a short model-generated explanation of the chunk content.
// An empty model response yields an empty string, not an error.
func (e *Enricher) Enrich(ctx context.Context, content string) (string, error) {
	if len(content) > enricherMaxInput {
		content = content[:enricherMaxInput]
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(enricherSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(content),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, messages, llms.WithTemperature(0.0))
	if err != nil {
		e.logger.Error("failed to generate enrichment", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		e.logger.Debug("no choices returned from model")
		return "", nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
