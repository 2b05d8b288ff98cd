package rerank

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/kestrellabs/lexrag/internal/llm"
	"github.com/kestrellabs/lexrag/internal/retrieve"
)

// Cosine reorders candidates by cosine similarity between the query
// vector and each candidate's own embedding, descending. Deterministic
// and, when all candidates carry vectors, free of external calls.
type Cosine struct {
	embedder llm.Provider // re-embeds candidates missing vectors; may be nil
	logger   *slog.Logger
}

// NewCosine creates the cosine strategy. embedder may be nil when every
// store attaches vectors to its hits.
func NewCosine(embedder llm.Provider) *Cosine {
	return &Cosine{embedder: embedder, logger: slog.Default()}
}

func (c *Cosine) Name() string { return "cosine" }

func (c *Cosine) Rerank(ctx context.Context, _ string, queryVector []float32, cands []retrieve.Candidate) []retrieve.Candidate {
	cands = c.fillVectors(ctx, cands)

	type scored struct {
		cand retrieve.Candidate
		sim  float64
	}
	all := make([]scored, len(cands))
	for i, cand := range cands {
		all[i] = scored{cand: cand, sim: cosineSim(queryVector, cand.Vector)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	out := make([]retrieve.Candidate, len(all))
	for i, s := range all {
		out[i] = s.cand
	}
	return out
}

// fillVectors re-embeds candidates that arrived without vectors. On
// embedding failure the candidates keep their missing vectors (similarity
// 0) rather than failing the request.
func (c *Cosine) fillVectors(ctx context.Context, cands []retrieve.Candidate) []retrieve.Candidate {
	if c.embedder == nil {
		return cands
	}
	var missing []int
	for i, cand := range cands {
		if len(cand.Vector) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return cands
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = cands[idx].Text
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		c.logger.Warn("cosine rerank: re-embedding candidates failed", "count", len(missing), "err", err)
		return cands
	}
	for i, idx := range missing {
		cands[idx].Vector = vectors[i]
	}
	return cands
}

// cosineSim returns the cosine similarity of a and b. Malformed input
// (zero-norm or mismatched vectors) scores 0.
func cosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
