package rerank

import (
	"testing"

	"github.com/kestrellabs/lexrag/internal/retrieve"
)

func TestSelectDeduplicatesByRef(t *testing.T) {
	cands := []retrieve.Candidate{
		{Ref: "Equality Act - s.6", Text: "from statute query", Source: "statute"},
		{Ref: "Case Law - Smith v Jones", Source: "caselaw"},
		{Ref: "Equality Act - s.6", Text: "same paragraph again", Source: "caselaw"},
	}

	got := Select(cands, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates after dedup, got %d", len(got))
	}
	if got[0].Text != "from statute query" {
		t.Errorf("dedup should keep the first occurrence, got %q", got[0].Text)
	}
}

func TestSelectTruncatesToK(t *testing.T) {
	var cands []retrieve.Candidate
	for i := 0; i < 10; i++ {
		cands = append(cands, retrieve.Candidate{Ref: string(rune('a' + i))})
	}

	if got := Select(cands, 3); len(got) != 3 {
		t.Errorf("expected 3 candidates, got %d", len(got))
	}
	if got := Select(cands, 0); len(got) != DefaultFinalK {
		t.Errorf("k=0 should use the default %d, got %d", DefaultFinalK, len(got))
	}
}

func TestSelectFewerThanK(t *testing.T) {
	cands := []retrieve.Candidate{{Ref: "only"}}
	if got := Select(cands, 5); len(got) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(got))
	}
}
