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

package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

// EmbeddingCache guarantees at-most-once embedding computation per content
// hash. Reads are lock-free; computations for the same hash are coalesced
// with a per-key single-flight group, so N concurrent requests for a new
// hash trigger exactly one embedder call.
//
// A failed computation is never cached: the hash stays eligible for retry.
type EmbeddingCache struct {
	embedder ai.Embedder
	vectors  sync.Map // core.ID -> []float32
	group    singleflight.Group
}

// NewEmbeddingCache creates an embedding cache around the given embedder.
func NewEmbeddingCache(embedder ai.Embedder) (*EmbeddingCache, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &EmbeddingCache{embedder: embedder}, nil
}

// Lookup returns the cached vector for a hash, if present. Lock-free.
func (c *EmbeddingCache) Lookup(hash core.ID) ([]float32, bool) {
	v, ok := c.vectors.Load(hash)
	if !ok {
		return nil, false
	}
	return v.([]float32), true
}

// Store records a vector for a hash without invoking the embedder. Used
// when loading precomputed embeddings, such as during reindexing.
func (c *EmbeddingCache) Store(hash core.ID, vector []float32) {
	if len(vector) == 0 {
		return
	}
	c.vectors.Store(hash, vector)
}

// GetOrCompute returns the embedding for the given content, computing it at
// most once per hash. Concurrent callers for the same in-flight hash join
// the first computation rather than duplicating it.
//
// Embedding failures are wrapped in ErrEmbeddingGeneration and do not
// populate the cache.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, hash core.ID, content string) ([]float32, error) {
	if v, ok := c.vectors.Load(hash); ok {
		return v.([]float32), nil
	}

	key := strconv.FormatUint(uint64(hash), 16)
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have completed while this one queued.
		if cached, ok := c.vectors.Load(hash); ok {
			return cached, nil
		}

		vector, embedErr := c.embedder.EmbedText(ctx, content)
		if embedErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingGeneration, embedErr)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("%w: embedder returned an empty vector", ErrEmbeddingGeneration)
		}

		c.vectors.Store(hash, vector)
		return vector, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// Forget drops the cached vector for a hash. Used when a chunk is deleted
// or its embedding must be recomputed under a new model.
func (c *EmbeddingCache) Forget(hash core.ID) {
	c.vectors.Delete(hash)
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	var n int
	c.vectors.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
