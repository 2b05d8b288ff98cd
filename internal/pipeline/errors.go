package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy for a question request. Only the reranker has a local
// recovery path (fallback ordering, handled inside rerank); every other
// external failure fails the whole request — no partial answers.
var (
	// ErrEmptyQuery rejects blank questions before any external call.
	ErrEmptyQuery = errors.New("empty query")
	// ErrEmbedding reports a failed or malformed embedding call.
	ErrEmbedding = errors.New("embedding service error")
	// ErrGeneration reports a failed answer-generation call.
	ErrGeneration = errors.New("generation service error")
	// ErrTimeout reports that an external call exceeded its deadline.
	ErrTimeout = errors.New("service timeout")
)

// classify wraps an external-call error with its stage sentinel, adding
// ErrTimeout when the failure was a deadline.
func classify(stage error, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", stage, ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", stage, err)
}
