// Package retrieve queries multiple passage stores with one query vector
// and merges the hits into a single flat candidate list.
package retrieve

import (
	"context"
	"fmt"

	"github.com/kestrellabs/lexrag/internal/observability"
	"github.com/kestrellabs/lexrag/internal/store"
)

// Default retrieval widths: wider when a reranker will cut the list down
// afterwards, narrower when candidates go straight into the context.
const (
	DefaultKWithRerank = 10
	DefaultKDirect     = 5
)

// Candidate is a transient per-query record: a retrieved passage plus its
// provenance. Score follows the source store's metric and is only
// comparable to other candidates from the same store.
type Candidate struct {
	Text   string
	Ref    string
	Vector []float32
	Score  float32
	Source string // name of the store the hit came from
}

// Retriever fans one query vector out over a fixed set of stores.
type Retriever struct {
	stores []store.Store
	k      int
}

// New creates a Retriever over the given stores fetching k hits per
// store. Store order is preserved in the merged output.
func New(stores []store.Store, k int) *Retriever {
	if k <= 0 {
		k = DefaultKDirect
	}
	return &Retriever{stores: stores, k: k}
}

// Retrieve queries every store and concatenates the hits: all of store
// A's hits in rank order, then store B's, and so on. Raw scores are not
// comparable across stores, so no cross-store re-sort happens here.
// Sentinel (index -1) and empty-text hits are skipped.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32) ([]Candidate, error) {
	var out []Candidate
	for _, s := range r.stores {
		searchCtx, span := observability.StartSearchSpan(ctx, s.Name(), r.k)
		hits, err := s.Search(searchCtx, vector, r.k)
		observability.RecordError(span, err)
		span.End()
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", s.Name(), err)
		}
		for _, h := range hits {
			if h.Index < 0 || h.Passage.Text == "" {
				continue
			}
			out = append(out, Candidate{
				Text:   h.Passage.Text,
				Ref:    h.Passage.Ref,
				Vector: h.Passage.Vector,
				Score:  h.Score,
				Source: s.Name(),
			})
		}
	}
	return out, nil
}
