package search

import (
	"slices"

	"github.com/poiesic/docquery/core"
)

// Default branch union size and fusion weights.
const (
	DefaultTopK          = 50
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
)

// FusionWeights weights the vector and keyword branches during fusion.
type FusionWeights struct {
	Vector  float64
	Keyword float64
}

// DefaultFusionWeights returns the standard 0.7/0.3 branch weighting.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Vector: DefaultVectorWeight, Keyword: DefaultKeywordWeight}
}

// Fuse merges the vector and keyword candidate branches into one ranked
// list. Each branch list must be sorted by its own score descending, with
// Chunk and the branch's score populated.
//
// Filters are hard predicates: a chunk failing any of them never enters the
// fused set regardless of score. The union of the top-K candidates per
// branch is scored as
//
//	fused = weights.Vector*vectorScore + weights.Keyword*lexicalScore
//
// with branch scores clamped to [0,1] and a missing branch contributing 0.
// Weights are renormalized by their sum, so fused scores stay in [0,1]
// regardless of the scale the caller picked. The result is sorted fused
// desc, then lexical score desc, then id asc, which makes the order
// deterministic.
func Fuse(vectorBranch, keywordBranch []*core.SearchCandidate, filters core.SearchFilters, weights FusionWeights, topK int) []*core.SearchCandidate {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if weights.Vector == 0 && weights.Keyword == 0 {
		weights = DefaultFusionWeights()
	}
	if sum := weights.Vector + weights.Keyword; sum != 1 {
		weights.Vector /= sum
		weights.Keyword /= sum
	}
	if len(vectorBranch) > topK {
		vectorBranch = vectorBranch[:topK]
	}
	if len(keywordBranch) > topK {
		keywordBranch = keywordBranch[:topK]
	}

	merged := make(map[core.ID]*core.SearchCandidate, len(vectorBranch)+len(keywordBranch))

	for _, c := range vectorBranch {
		if !filters.Match(c.Chunk) {
			continue
		}
		merged[c.Chunk.Id] = &core.SearchCandidate{
			Chunk:       c.Chunk,
			VectorScore: clamp01(c.VectorScore),
		}
	}

	for _, c := range keywordBranch {
		if !filters.Match(c.Chunk) {
			continue
		}
		if existing, ok := merged[c.Chunk.Id]; ok {
			existing.LexicalScore = clamp01(c.LexicalScore)
			continue
		}
		merged[c.Chunk.Id] = &core.SearchCandidate{
			Chunk:        c.Chunk,
			LexicalScore: clamp01(c.LexicalScore),
		}
	}

	fused := make([]*core.SearchCandidate, 0, len(merged))
	for _, c := range merged {
		c.FusedScore = weights.Vector*c.VectorScore + weights.Keyword*c.LexicalScore
		c.FinalScore = c.FusedScore
		fused = append(fused, c)
	}

	slices.SortFunc(fused, func(a, b *core.SearchCandidate) int {
		if a.FusedScore != b.FusedScore {
			if a.FusedScore > b.FusedScore {
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

	return fused
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
