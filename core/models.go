package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk IDs are content hashes: deterministic fingerprints of normalized chunk text.
type ID uint64

// NormalizeContent canonicalizes chunk text before hashing so that
// insignificant whitespace differences do not produce distinct chunks.
// Line endings are unified and trailing whitespace is stripped per line.
func NormalizeContent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Content is normalized first, so two chunks with equal normalized content
// always produce the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(NormalizeContent(text)))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// AccessLevel controls result visibility.
type AccessLevel int

const (
	// AccessAny matches every access level. Only valid in filters.
	AccessAny AccessLevel = iota
	// AccessPublic marks a chunk visible to all callers.
	AccessPublic
	// AccessPrivate marks a chunk visible only to its owner.
	AccessPrivate
)

// QualityScores holds the query-independent rerank sub-scores computed once
// at ingestion time. Each score is normalized to [0,1].
type QualityScores struct {
	CodeQuality    float64
	Formatting     float64
	Metadata       float64
	Initialization float64
}

// Chunk is the minimal indexed unit of documentation text.
// A chunk is created once during ingestion and immutable thereafter;
// its Id is the content hash of its normalized text.
type Chunk struct {
	Id            ID
	DocumentID    string
	Content       string
	Title         string
	URL           string
	Source        string
	LibraryID     string
	Version       string
	Topics        []string
	IsCodeSnippet bool
	CodeLanguage  string
	Access        AccessLevel
	Enrichment    string // Optional LLM-generated explanation (populated by the enricher)
	Quality       QualityScores
	Vector        []float32 // Embedding vector for semantic search (populated by the pipeline)
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// StageScores holds the five reranker sub-scores, each normalized to [0,1].
type StageScores struct {
	Relevance      float64
	CodeQuality    float64
	Formatting     float64
	Metadata       float64
	Initialization float64
}

// RerankWeights weights the five rerank stages. Weights must be non-negative
// with a positive sum; they need not sum to 1 since consumers renormalize.
type RerankWeights struct {
	Relevance      float64
	CodeQuality    float64
	Formatting     float64
	Metadata       float64
	Initialization float64
}

// DefaultRerankWeights returns the standard stage weighting.
func DefaultRerankWeights() RerankWeights {
	return RerankWeights{
		Relevance:      0.35,
		CodeQuality:    0.25,
		Formatting:     0.15,
		Metadata:       0.10,
		Initialization: 0.15,
	}
}

// Sum returns the sum of all weights.
func (w RerankWeights) Sum() float64 {
	return w.Relevance + w.CodeQuality + w.Formatting + w.Metadata + w.Initialization
}

// SearchFilters restrict the candidate set. Zero values match everything.
// Filters are hard predicates: a chunk that fails any set filter never
// enters the candidate set, regardless of score.
type SearchFilters struct {
	LibraryID string
	Version   string
	Topic     string
	Access    AccessLevel
}

// Match reports whether the chunk passes every set filter.
func (f SearchFilters) Match(chunk *Chunk) bool {
	if chunk == nil {
		return false
	}
	if f.LibraryID != "" && chunk.LibraryID != f.LibraryID {
		return false
	}
	if f.Version != "" && chunk.Version != f.Version {
		return false
	}
	if f.Topic != "" && !containsTopic(chunk.Topics, f.Topic) {
		return false
	}
	if f.Access != AccessAny && chunk.Access != f.Access {
		return false
	}
	return true
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}

// TokenBudget caps the total output size of a ranked result list.
type TokenBudget struct {
	MaxTokens         int
	PreserveSentences bool
}

// SearchCandidate is an ephemeral, per-query scoring record for a chunk.
// Candidates hold no persistent identity and are discarded after the
// response is returned.
type SearchCandidate struct {
	Chunk        *Chunk
	VectorScore  float64 // Normalized vector similarity in [0,1]; 0 if absent from the vector branch
	LexicalScore float64 // Lexical relevance in [0,1]; 0 if absent from the lexical branch
	FusedScore   float64
	Stages       StageScores
	FinalScore   float64
}

// VectorMatch is a raw nearest-neighbor hit from a vector index.
type VectorMatch struct {
	Id         ID
	Similarity float32
}

// RankedResult is the final per-chunk payload returned to callers.
type RankedResult struct {
	Content       string
	Title         string
	URL           string
	Source        string
	FinalScore    float64
	Stages        StageScores
	IsCodeSnippet bool
	CodeLanguage  string
	Truncated     bool // True when the content was cut to a sentence boundary by the budget limiter
}
