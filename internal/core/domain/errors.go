package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingConfig indicates a required configuration value is not set.
	// Commands that hit it exit at startup with a descriptive message.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrDimensionMismatch indicates an embedding vector does not have the
	// dimensionality the chunk store was created with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the source API rate limit was exceeded.
	// The fetcher retries these itself; callers only see it wrapped in
	// a cancellation.
	ErrRateLimited = errors.New("rate limited")

	// ErrSyncInProgress indicates a sync is already running for the channel.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnsupportedType indicates an unknown provider or store driver.
	ErrUnsupportedType = errors.New("unsupported type")
)
