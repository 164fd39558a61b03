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


package core

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Access must be Public or Private (AccessAny is filter-only)
//   - Stored quality scores must be in [0,1]
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until the embedding step runs)
//   - Enrichment (optional, supplied by the enricher)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Access != AccessPublic && chunk.Access != AccessPrivate {
		return fmt.Errorf("%w: %w: value %d", ErrInvalidChunk, ErrInvalidAccessLevel, chunk.Access)
	}

	for _, score := range []float64{
		chunk.Quality.CodeQuality,
		chunk.Quality.Formatting,
		chunk.Quality.Metadata,
		chunk.Quality.Initialization,
	} {
		if score < 0 || score > 1 {
			return fmt.Errorf("%w: %w: value %f", ErrInvalidChunk, ErrScoreOutOfRange, score)
		}
	}

	return nil
}

// ValidateRerankWeights validates a rerank weight vector.
// Any vector with non-negative components and a positive sum is valid;
// consumers renormalize, so weights need not sum to 1.
func ValidateRerankWeights(w RerankWeights) error {
	for _, weight := range []float64{w.Relevance, w.CodeQuality, w.Formatting, w.Metadata, w.Initialization} {
		if weight < 0 {
			return fmt.Errorf("%w: negative weight %f", ErrInvalidWeights, weight)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return nil
}

// ValidateFilters validates search filters at the request boundary.
func ValidateFilters(f SearchFilters) error {
	switch f.Access {
	case AccessAny, AccessPublic, AccessPrivate:
	default:
		return fmt.Errorf("%w: %w: value %d", ErrInvalidFilters, ErrInvalidAccessLevel, f.Access)
	}
	return nil
}

// ValidateTokenBudget validates a token budget.
// A budget of 0 disables limiting; a budget too small for any candidate is
// not an error and yields an empty result list.
func ValidateTokenBudget(b TokenBudget) error {
	if b.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens %d", ErrInvalidTokenBudget, b.MaxTokens)
	}
	return nil
}
