package compose

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/kestrellabs/lexrag/internal/retrieve"
)

var bracketRe = regexp.MustCompile(`\[(\d+)\]`)

func TestContextNumbering(t *testing.T) {
	cands := []retrieve.Candidate{
		{Ref: "Equality Act - s.6", Text: "A person has a disability if..."},
		{Ref: "Case Law - Smith v Jones", Text: "The tribunal held..."},
		{Ref: "Equality Act - s.13", Text: "Direct discrimination occurs..."},
	}

	block := Context(cands)
	indices := bracketRe.FindAllStringSubmatch(block, -1)
	if len(indices) != len(cands) {
		t.Fatalf("expected %d bracketed indices, got %d", len(cands), len(indices))
	}
	for i, m := range indices {
		if m[1] != fmt.Sprint(i+1) {
			t.Errorf("index %d rendered as [%s]", i+1, m[1])
		}
	}

	if !strings.Contains(block, "[1] Equality Act - s.6\nA person has a disability if...") {
		t.Errorf("entry format wrong:\n%s", block)
	}
	if !strings.Contains(block, "\n\n[2]") {
		t.Error("entries should be separated by a blank line")
	}
}

func TestContextEmpty(t *testing.T) {
	if got := Context(nil); got != "" {
		t.Errorf("empty candidate list rendered %q", got)
	}
}

func TestGroundingPrompt(t *testing.T) {
	cands := []retrieve.Candidate{
		{Ref: "Equality Act - s.6", Text: "A person has a disability if..."},
	}
	question := "What counts as a disability?"

	prompt := GroundingPrompt(question, cands)
	if !strings.Contains(prompt, "Question: "+question) {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(prompt, Context(cands)) {
		t.Error("prompt missing the context block")
	}
	if !strings.Contains(prompt, "only the context below") {
		t.Error("prompt missing the grounding instruction")
	}
	// Composition must not reorder or filter.
	if strings.Count(prompt, "[1]") != 1 {
		t.Errorf("unexpected index duplication:\n%s", prompt)
	}
}
