// Package rerank re-scores fused search candidates using five weighted
// quality dimensions: query relevance, code quality, formatting, metadata
// richness, and initialization guidance.
//
// Relevance is always recomputed per query. The four query-independent
// stages can be recomputed on the fly or reused from the scores stored on
// each chunk at ingestion time. Weights are renormalized before use, so any
// non-negative weight vector with a positive sum is valid input.
package rerank
