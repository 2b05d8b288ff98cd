// Package compose renders the final candidates into a citation-labeled
// context block and the grounding prompt. Pure string composition; any
// ordering or filtering has already happened upstream.
package compose

import (
	"fmt"
	"strings"

	"github.com/kestrellabs/lexrag/internal/retrieve"
)

const promptTemplate = `You are a helpful UK legal assistant. Use only the context below to answer the question, citing passages by their bracketed index.

Context:
%s

Question: %s

Answer:`

// Context renders candidates as a numbered list, one blank line between
// entries:
//
//	[1] Equality Act - Section 6
//	<passage text>
func Context(cands []retrieve.Candidate) string {
	blocks := make([]string, len(cands))
	for i, c := range cands {
		blocks[i] = fmt.Sprintf("[%d] %s\n%s", i+1, c.Ref, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// GroundingPrompt embeds the rendered context and the question into the
// instruction template sent to the answer model.
func GroundingPrompt(question string, cands []retrieve.Candidate) string {
	return fmt.Sprintf(promptTemplate, Context(cands), question)
}
