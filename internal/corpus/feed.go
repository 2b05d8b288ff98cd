package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// Feed describes one corpus worth of passage records to ingest.
type Feed struct {
	Kind        Kind
	LabelPrefix string // e.g. "Equality Act", "Case Law"
}

// textKeys are the alternative field names older ingestion paths used for
// the passage body. The translation happens here and nowhere else.
var textKeys = []string{"text", "Text", "Paragraph Text", "paragraph_text"}

// rawRecord mirrors the upstream JSON passage feed. Statute feeds carry
// capitalized keys, case-law feeds lowercase ones.
type rawRecord struct {
	Text          string `json:"text"`
	TextCap       string `json:"Text"`
	ParagraphText string `json:"Paragraph Text"`
	ParagraphTxt  string `json:"paragraph_text"`

	Part    string `json:"Part"`
	Chapter string `json:"Chapter"`
	Section string `json:"Section"`
	Label   string `json:"Label"`

	CaseID      string `json:"case_id"`
	ParagraphID string `json:"paragraph_id"`
	CaseTitle   string `json:"case_title"`
}

func (r rawRecord) body() string {
	for _, s := range []string{r.Text, r.TextCap, r.ParagraphText, r.ParagraphTxt} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Load reads a JSON passage feed (an array of records) and converts it to
// canonical passages. Records with an empty body are rejected: the feed
// contract requires non-empty text.
func (f Feed) Load(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return f.Parse(data)
}

// Parse converts raw feed JSON into canonical passages.
func (f Feed) Parse(data []byte) ([]Passage, error) {
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	passages := make([]Passage, 0, len(raw))
	for i, r := range raw {
		text := NormalizeText(r.body())
		if text == "" {
			return nil, fmt.Errorf("feed record %d: empty text (known keys: %v)", i, textKeys)
		}
		cit := Citation{
			Part:        r.Part,
			Chapter:     r.Chapter,
			Section:     r.Section,
			Label:       r.Label,
			CaseID:      r.CaseID,
			ParagraphID: r.ParagraphID,
			CaseTitle:   r.CaseTitle,
		}
		passages = append(passages, Passage{
			ID:       fmt.Sprintf("%s-%d", f.Kind, i),
			Text:     text,
			Ref:      fmt.Sprintf("%s - %s", f.LabelPrefix, cit.leaf()),
			Citation: cit,
		})
	}
	return passages, nil
}
