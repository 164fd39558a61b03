// Package reindex provides functionality for re-embedding the stored chunk
// corpus with a new or updated embedding model.
//
// This package supports batch processing of chunks, progress tracking,
// retry logic with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search.
package reindex
