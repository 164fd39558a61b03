package ingestion

import (
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/rerank"
)

// ScoreQuality populates the chunk's stored quality sub-scores. These are
// the query-independent rerank dimensions, computed once here so that query
// time reranking with stored scores skips the recomputation.
func ScoreQuality(chunk *core.Chunk) {
	if chunk == nil {
		return
	}
	chunk.Quality = rerank.QualityScores(chunk)
}
