package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/kestrellabs/lexrag/internal/llm"
	"github.com/kestrellabs/lexrag/internal/retrieve"
)

// previewLen bounds the candidate text shown to the judge; prompt size
// grows linearly with it.
const previewLen = 200

const judgeSystemPrompt = "You rank legal passages by relevance to a question. " +
	"Reply with ONLY a bracketed, comma-separated list of passage numbers, " +
	"most relevant first, e.g. [3, 1, 2]. No explanation."

// Judgment asks a generative model to rank the candidates and reorders
// them by the returned permutation. The only non-deterministic step in
// the pipeline, and strictly best-effort: any malformed judgment falls
// back to the input order and is logged, never surfaced.
type Judgment struct {
	judge  llm.Provider
	logger *slog.Logger
}

// NewJudgment creates the model-judgment strategy.
func NewJudgment(judge llm.Provider) *Judgment {
	return &Judgment{judge: judge, logger: slog.Default()}
}

func (j *Judgment) Name() string { return "judgment" }

func (j *Judgment) Rerank(ctx context.Context, query string, _ []float32, cands []retrieve.Candidate) []retrieve.Candidate {
	if len(cands) < 2 || j.judge == nil {
		return cands
	}

	resp, err := j.judge.Complete(ctx, llm.UserPrompt(judgeSystemPrompt, j.buildPrompt(query, cands)), nil)
	if err != nil {
		j.logger.Warn("rerank judgment failed, keeping retrieval order", "err", err)
		return cands
	}

	order, err := ParsePermutation(llm.StripThinkingTags(resp.Content), len(cands))
	if err != nil {
		j.logger.Warn("rerank judgment unparseable, keeping retrieval order",
			"response", resp.Content, "err", err)
		return cands
	}

	out := make([]retrieve.Candidate, 0, len(cands))
	used := make([]bool, len(cands))
	for _, idx := range order {
		out = append(out, cands[idx-1])
		used[idx-1] = true
	}
	// A subset judgment drops nothing: unlisted candidates follow in
	// their original order.
	for i, c := range cands {
		if !used[i] {
			out = append(out, c)
		}
	}
	return out
}

func (j *Judgment) buildPrompt(query string, cands []retrieve.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nPassages:\n", query)
	for i, c := range cands {
		preview := c.Text
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		fmt.Fprintf(&sb, "[%d] %s: %s\n", i+1, c.Ref, preview)
	}
	fmt.Fprintf(&sb, "\nRank the %d passages by relevance to the question.", len(cands))
	return sb.String()
}

// ParsePermutation parses a model ranking judgment: an optionally
// bracketed, comma- or space-separated list of integers, each in 1..n.
// Duplicates collapse to their first occurrence. Any token that is not an
// in-range integer fails the parse; model output is data, never code.
func ParsePermutation(s string, n int) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no indices in %q", s)
	}

	seen := make(map[int]bool, len(fields))
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		idx, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("non-integer token %q", f)
		}
		if idx < 1 || idx > n {
			return nil, fmt.Errorf("index %d out of range 1..%d", idx, n)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out, nil
}
