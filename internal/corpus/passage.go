// Package corpus defines the canonical passage schema shared by every
// store backend, and loads passage feeds produced by upstream parsers.
package corpus

import "strings"

// Kind identifies which document collection a passage belongs to.
type Kind string

const (
	KindStatute Kind = "statute"
	KindCaseLaw Kind = "caselaw"
)

// Citation is the structured reference attached to a passage. Statute
// passages fill the Part/Chapter/Section/Label fields; case-law passages
// fill CaseID/ParagraphID/CaseTitle. The schema is fixed here once, at
// ingestion time; nothing downstream inspects raw feed fields.
type Citation struct {
	Part    string `json:"part,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Section string `json:"section,omitempty"`
	Label   string `json:"label,omitempty"`

	CaseID      string `json:"case_id,omitempty"`
	ParagraphID string `json:"paragraph_id,omitempty"`
	CaseTitle   string `json:"case_title,omitempty"`
}

// Location renders the statute position as "Part.Chapter.Section",
// omitting empty segments.
func (c Citation) Location() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{c.Part, c.Chapter, c.Section} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}

// leaf returns the most specific human-readable component.
func (c Citation) leaf() string {
	switch {
	case c.Label != "":
		return c.Label
	case c.CaseTitle != "":
		return c.CaseTitle
	case c.CaseID != "":
		return c.CaseID
	}
	return "Unknown"
}

// Passage is the atomic retrievable unit. Passages are immutable once a
// store has indexed them; Ref is the display label ("Equality Act - s.6",
// "Case Law - Smith v Jones"), computed once at build time.
type Passage struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector,omitempty"`
	Ref      string    `json:"ref"`
	Citation Citation  `json:"citation"`
}

// NormalizeText collapses all runs of whitespace to single spaces and
// trims the ends. Applied once when a feed is loaded.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
