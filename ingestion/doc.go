// Package ingestion provides pipeline orchestration for turning documents
// into indexed chunks.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Splitting markdown documents into prose and code chunks
//   - Content-hash deduplication via the ContentStore
//   - At-most-once embedding generation via the EmbeddingCache
//   - Optional LLM enrichment of chunk metadata
//   - Scoring the stored quality dimensions used by the reranker
//
// Embedding and enrichment run concurrently on worker pools. Enrichment
// failures are logged but never fail ingestion; embedding failures leave the
// chunk unembedded and retryable.
package ingestion
