// Package store provides read-only passage stores with vector similarity
// search. A store is built once from a corpus feed and never mutated at
// query time, so concurrent searches need no locking.
package store

import (
	"context"
	"errors"

	"github.com/kestrellabs/lexrag/internal/corpus"
)

// ErrIndexCorrupt reports a build-time defect detected at load or query
// time: vector/metadata length mismatch or inconsistent dimensionality.
var ErrIndexCorrupt = errors.New("passage store index corrupt")

// Hit is a single match from a similarity search.
type Hit struct {
	// Index is the passage's position in the store. -1 is the no-match
	// sentinel some backends emit when fewer than k results exist; callers
	// must skip it.
	Index   int
	Score   float32
	Passage corpus.Passage
}

// Store is an immutable snapshot of one corpus.
type Store interface {
	// Name identifies the corpus ("statute", "caselaw").
	Name() string
	// Search returns up to k hits ordered by the store's metric (ascending
	// L2 distance for flat stores). An empty store returns no hits.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
	// Len reports the number of indexed passages.
	Len() int
}
