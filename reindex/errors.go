package reindex

import "errors"

// Package-level errors for reindex operations.
var (
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	ErrEmbeddingMismatch  = errors.New("embedding count does not match chunk count")
	ErrEmptyEmbedding     = errors.New("embedding service returned an empty vector")
)
