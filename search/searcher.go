package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/budget"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/lexical"
	"github.com/poiesic/docquery/rerank"
	"github.com/poiesic/docquery/storage"
)

// SearchType selects which retrieval branches a query runs.
type SearchType string

const (
	// SearchTypeVector runs only the embedding similarity branch.
	SearchTypeVector SearchType = "vector"
	// SearchTypeKeyword runs only the lexical scoring branch.
	SearchTypeKeyword SearchType = "keyword"
	// SearchTypeHybrid runs both branches and fuses them.
	SearchTypeHybrid SearchType = "hybrid"
)

// DefaultLimit is the result count returned when the caller does not set one.
const DefaultLimit = 10

// SearchOptions holds optional parameters for a search request.
// The zero value runs a hybrid search with default limits and no reranking.
type SearchOptions struct {
	Type              SearchType
	Filters           core.SearchFilters
	Limit             int
	TopK              int // Per-branch candidate count before fusion
	MaxTokens         int // 0 disables the token budget
	PreserveSentences bool
	UseReranking      bool
	UseStoredScores   bool
	RerankWeights     *core.RerankWeights // nil selects the defaults
	FusionWeights     *FusionWeights      // nil selects the defaults; ignored outside hybrid
}

// SearchResponse is the outcome of a search request.
type SearchResponse struct {
	Results []core.RankedResult
	// Partial is set when the deadline expired before all work finished
	// and the results are best-effort.
	Partial bool
	// Warnings describe non-fatal degradations, such as a failed branch.
	Warnings []string
}

// Searcher provides hybrid vector and keyword search over indexed chunks.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	vectorIndex     storage.VectorIndex
	embedder        ai.Embedder
	reranker        *rerank.Reranker
	limiter         *budget.Limiter
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTokenCounter sets the token counter used for budget limiting.
// Default is the character heuristic.
func WithTokenCounter(counter budget.Counter) Option {
	return func(s *Searcher) error {
		s.limiter = budget.NewLimiter(counter)
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunkRepository storage.ChunkRepository,
	vectorIndex storage.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectorIndex == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		vectorIndex:     vectorIndex,
		embedder:        provider.Embedder(),
		reranker:        rerank.NewReranker(),
		limiter:         budget.NewLimiter(nil),
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs a query and returns ranked results.
// See SearchWithMonitor for the full semantics.
func (s *Searcher) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResponse, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor runs a query with monitoring callbacks at each stage.
//
// Validation failures are rejected before any work begins. The vector and
// keyword branches run concurrently; in a hybrid search a failed branch
// degrades the request to the surviving branch with a warning, and the
// request fails only when no branch produced candidates. A deadline that
// expires after partial work yields best-effort results with Partial set.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts *SearchOptions, monitor SearchMonitor) (*SearchResponse, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	// Boundary validation, before any work
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	searchType := opts.Type
	if searchType == "" {
		searchType = SearchTypeHybrid
	}
	switch searchType {
	case SearchTypeVector, SearchTypeKeyword, SearchTypeHybrid:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSearchType, searchType)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	if err := core.ValidateFilters(opts.Filters); err != nil {
		return nil, err
	}
	if opts.RerankWeights != nil {
		if err := core.ValidateRerankWeights(*opts.RerankWeights); err != nil {
			return nil, err
		}
	}
	if opts.FusionWeights != nil && (opts.FusionWeights.Vector < 0 || opts.FusionWeights.Keyword < 0) {
		return nil, core.ErrInvalidWeights
	}
	if err := core.ValidateTokenBudget(core.TokenBudget{MaxTokens: opts.MaxTokens}); err != nil {
		return nil, err
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	monitor.Start(query)

	// Fan out the branches, fan in before fusion
	var (
		wg            sync.WaitGroup
		vectorBranch  []*core.SearchCandidate
		keywordBranch []*core.SearchCandidate
		vectorErr     error
		keywordErr    error
	)

	runVector := searchType != SearchTypeKeyword
	runKeyword := searchType != SearchTypeVector

	if runVector {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorBranch, vectorErr = s.vectorSearch(ctx, query, opts.Filters, topK, monitor)
		}()
	}
	if runKeyword {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keywordBranch, keywordErr = s.keywordSearch(ctx, query, opts.Filters, topK, monitor)
		}()
	}
	wg.Wait()

	var warnings []string
	branchesFailed := 0
	branchesRun := 0
	if runVector {
		branchesRun++
		if vectorErr != nil {
			branchesFailed++
			s.logger.Warn("vector branch failed", "err", vectorErr)
			monitor.BranchDegraded("vector", vectorErr)
			warnings = append(warnings, "vector branch degraded: "+vectorErr.Error())
		}
	}
	if runKeyword {
		branchesRun++
		if keywordErr != nil {
			branchesFailed++
			s.logger.Warn("keyword branch failed", "err", keywordErr)
			monitor.BranchDegraded("keyword", keywordErr)
			warnings = append(warnings, "keyword branch degraded: "+keywordErr.Error())
		}
	}
	if branchesFailed == branchesRun {
		return nil, fmt.Errorf("%w: %v", ErrAllBranchesFailed, errors.Join(vectorErr, keywordErr))
	}

	fusionWeights := s.fusionWeightsFor(searchType, opts.FusionWeights)
	fused := Fuse(vectorBranch, keywordBranch, opts.Filters, fusionWeights, topK)
	monitor.AfterFusion(fused)

	var partial bool
	if opts.UseReranking {
		rerankWeights := core.DefaultRerankWeights()
		if opts.RerankWeights != nil {
			rerankWeights = *opts.RerankWeights
		}
		fused, partial = s.reranker.Rerank(ctx, query, fused, rerankWeights, opts.UseStoredScores)
		monitor.AfterRerank(fused)
	}

	if len(fused) > limit {
		fused = fused[:limit]
	}

	results := make([]core.RankedResult, 0, len(fused))
	for _, c := range fused {
		results = append(results, core.RankedResult{
			Content:       c.Chunk.Content,
			Title:         c.Chunk.Title,
			URL:           c.Chunk.URL,
			Source:        c.Chunk.Source,
			FinalScore:    c.FinalScore,
			Stages:        c.Stages,
			IsCodeSnippet: c.Chunk.IsCodeSnippet,
			CodeLanguage:  c.Chunk.CodeLanguage,
		})
	}

	if opts.MaxTokens > 0 {
		limited, tooSmall := s.limiter.Limit(results, core.TokenBudget{
			MaxTokens:         opts.MaxTokens,
			PreserveSentences: opts.PreserveSentences,
		})
		if tooSmall {
			warnings = append(warnings, "token budget too small for any result")
		}
		results = limited
	}

	if ctx.Err() != nil {
		partial = true
	}

	monitor.Finish(results)

	return &SearchResponse{
		Results:  results,
		Partial:  partial,
		Warnings: warnings,
	}, nil
}

func (s *Searcher) fusionWeightsFor(searchType SearchType, override *FusionWeights) FusionWeights {
	switch searchType {
	case SearchTypeVector:
		return FusionWeights{Vector: 1}
	case SearchTypeKeyword:
		return FusionWeights{Keyword: 1}
	default:
		if override != nil {
			return *override
		}
		return DefaultFusionWeights()
	}
}

// vectorSearch embeds the query and returns the top-K nearest chunks as
// candidates, ordered by similarity descending.
func (s *Searcher) vectorSearch(ctx context.Context, query string, filters core.SearchFilters, topK int, monitor SearchMonitor) ([]*core.SearchCandidate, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := s.vectorIndex.Query(ctx, embedding, filters, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}
	monitor.AfterVectorSearch(matches)

	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, len(matches))
	for i, match := range matches {
		ids[i] = match.Id
	}

	chunks, err := s.chunkRepository.GetChunks(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("retrieving chunks: %w", err)
	}

	byID := make(map[core.ID]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.Id] = chunk
	}

	candidates := make([]*core.SearchCandidate, 0, len(matches))
	for _, match := range matches {
		chunk, ok := byID[match.Id]
		if !ok {
			continue
		}
		candidates = append(candidates, &core.SearchCandidate{
			Chunk:       chunk,
			VectorScore: float64(match.Similarity),
		})
	}
	return candidates, nil
}

// keywordSearch scores every stored chunk lexically against the query and
// returns the top-K as candidates, ordered by score descending.
func (s *Searcher) keywordSearch(ctx context.Context, query string, filters core.SearchFilters, topK int, monitor SearchMonitor) ([]*core.SearchCandidate, error) {
	var candidates []*core.SearchCandidate

	err := s.chunkRepository.IterateChunks(ctx, func(chunk *core.Chunk) error {
		if !filters.Match(chunk) {
			return nil
		}
		score := lexical.Score(query, chunk.Content)
		if score <= 0 {
			return nil
		}
		candidates = append(candidates, &core.SearchCandidate{
			Chunk:        chunk,
			LexicalScore: score,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}

	slices.SortFunc(candidates, func(a, b *core.SearchCandidate) int {
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
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	ids := make([]core.ID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Chunk.Id
	}
	monitor.AfterKeywordSearch(ids)

	return candidates, nil
}
