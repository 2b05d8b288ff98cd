// Package rerank reorders retrieval candidates by a secondary relevance
// signal before context composition.
package rerank

import (
	"context"

	"github.com/kestrellabs/lexrag/internal/retrieve"
)

// DefaultFinalK is the number of candidates kept for the context.
const DefaultFinalK = 5

// Strategy reorders candidates for a query. Implementations never fail
// the request: reranking is best-effort and falls back to the input
// order on any internal problem. Selection happens in Select.
type Strategy interface {
	// Name identifies the strategy ("cosine", "judgment").
	Name() string
	// Rerank returns the candidates in relevance order. queryVector is the
	// embedded query; query is its original text.
	Rerank(ctx context.Context, query string, queryVector []float32, cands []retrieve.Candidate) []retrieve.Candidate
}

// Select takes the first k candidates, dropping any repeat of an already
// seen citation label. The same paragraph can surface through two store
// queries; only its first occurrence survives.
func Select(cands []retrieve.Candidate, k int) []retrieve.Candidate {
	if k <= 0 {
		k = DefaultFinalK
	}
	seen := make(map[string]bool, k)
	out := make([]retrieve.Candidate, 0, k)
	for _, c := range cands {
		if seen[c.Ref] {
			continue
		}
		seen[c.Ref] = true
		out = append(out, c)
		if len(out) == k {
			break
		}
	}
	return out
}
