package search

import "github.com/poiesic/docquery/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during
// search. The branch hooks run on the branch goroutines, so implementations
// must tolerate concurrent calls.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(matches []core.VectorMatch)
	AfterKeywordSearch(ids []core.ID)
	BranchDegraded(branch string, err error)
	AfterFusion(candidates []*core.SearchCandidate)
	AfterRerank(candidates []*core.SearchCandidate)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterVectorSearch(_ []core.VectorMatch)     {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ID)             {}
func (n *noopMonitor) BranchDegraded(_ string, _ error)           {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchCandidate)      {}
func (n *noopMonitor) AfterRerank(_ []*core.SearchCandidate)      {}
func (n *noopMonitor) Finish(_ []core.RankedResult)               {}
