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
	"sync"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// ContentStore deduplicates chunk content by hash. The first caller to
// submit a piece of content owns its creation; later callers for the same
// normalized content observe isNew=false. Known hashes are tracked in memory
// so repeated submissions skip the repository entirely.
type ContentStore struct {
	repository storage.ChunkRepository
	known      sync.Map // core.ID -> struct{}
}

// NewContentStore creates a content store backed by the given repository.
func NewContentStore(repository storage.ChunkRepository) (*ContentStore, error) {
	if repository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	return &ContentStore{repository: repository}, nil
}

// GetOrCreate resolves content to its hash and reports whether the hash is
// new to the store. The hash is a pure function of normalized content: equal
// content always yields the same hash, and exactly one concurrent caller
// observes isNew=true for a given new hash.
func (s *ContentStore) GetOrCreate(ctx context.Context, content string) (hash core.ID, isNew bool, err error) {
	hash = core.IDFromContent(content)

	if _, ok := s.known.Load(hash); ok {
		return hash, false, nil
	}

	exists, err := s.repository.HasChunk(ctx, hash)
	if err != nil {
		return 0, false, err
	}
	if exists {
		s.known.Store(hash, struct{}{})
		return hash, false, nil
	}

	// LoadOrStore makes creation ownership atomic under concurrent
	// submissions of the same content.
	if _, loaded := s.known.LoadOrStore(hash, struct{}{}); loaded {
		return hash, false, nil
	}
	return hash, true, nil
}

// Has reports whether the hash has been seen by this store or exists in the
// repository.
func (s *ContentStore) Has(ctx context.Context, hash core.ID) (bool, error) {
	if _, ok := s.known.Load(hash); ok {
		return true, nil
	}
	return s.repository.HasChunk(ctx, hash)
}
