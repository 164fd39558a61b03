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

package rerank

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/docquery/core"
)

// Reranker re-scores search candidates across the five quality stages.
type Reranker struct {
	logger *slog.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReranker creates a new reranker.
func NewReranker(opts ...Option) *Reranker {
	r := &Reranker{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerank scores each candidate across the five stages and re-sorts the list
// by final score. Weights are renormalized so only their relative proportions
// matter; an invalid weight vector falls back to the defaults rather than
// failing the request.
//
// When useStoredScores is true, the four query-independent stages reuse the
// scores computed at ingestion time; relevance is always recomputed since it
// depends on the query.
//
// If the context deadline expires mid-pass, candidates not yet rescored keep
// their fused score as the final score and partial reports true. The returned
// list is always fully sorted.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []*core.SearchCandidate, weights core.RerankWeights, useStoredScores bool) (ranked []*core.SearchCandidate, partial bool) {
	if len(candidates) == 0 {
		return candidates, false
	}

	if err := core.ValidateRerankWeights(weights); err != nil {
		r.logger.Warn("invalid rerank weights, using defaults", "err", err)
		weights = core.DefaultRerankWeights()
	}
	sum := weights.Sum()

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			// Deadline expired. Remaining candidates fall back to their
			// fusion ranking.
			candidate.FinalScore = candidate.FusedScore
			partial = true
			continue
		}

		candidate.Stages = r.scoreStages(query, candidate.Chunk, useStoredScores)
		candidate.FinalScore = finalScore(candidate.Stages, weights, sum)
	}

	// Deterministic order: final score desc, lexical score desc, id asc.
	slices.SortFunc(candidates, func(a, b *core.SearchCandidate) int {
		if a.FinalScore != b.FinalScore {
			if a.FinalScore > b.FinalScore {
				return -1
			}
			return 1
		}
		if a.LexicalScore != b.LexicalScore {
			if a.LexicalScore > b.LexicalScore {
				return -1
			}
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})

	return candidates, partial
}

func (r *Reranker) scoreStages(query string, chunk *core.Chunk, useStoredScores bool) core.StageScores {
	var quality core.QualityScores
	if useStoredScores {
		quality = chunk.Quality
	} else {
		quality = QualityScores(chunk)
	}

	return core.StageScores{
		Relevance:      RelevanceScore(query, chunk),
		CodeQuality:    quality.CodeQuality,
		Formatting:     quality.Formatting,
		Metadata:       quality.Metadata,
		Initialization: quality.Initialization,
	}
}

func finalScore(stages core.StageScores, weights core.RerankWeights, sum float64) float64 {
	return (weights.Relevance*stages.Relevance +
		weights.CodeQuality*stages.CodeQuality +
		weights.Formatting*stages.Formatting +
		weights.Metadata*stages.Metadata +
		weights.Initialization*stages.Initialization) / sum
}
