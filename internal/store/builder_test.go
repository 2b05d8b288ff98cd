package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/kestrellabs/lexrag/internal/corpus"
	"github.com/kestrellabs/lexrag/internal/llm"
)

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// stubEmbedder returns a deterministic vector per text length.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Complete(context.Context, *llm.Prompt, *llm.RequestOptions) (*llm.Response, error) {
	return &llm.Response{}, nil
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		out[i] = []float32{float32(len(txt)), 1}
	}
	return out, nil
}

func TestBuilderBuildFlat(t *testing.T) {
	passages := []corpus.Passage{
		{ID: "s-0", Text: "one", Ref: "A - 1"},
		{ID: "s-1", Text: "three", Ref: "A - 2"},
	}

	b := NewBuilder(&stubEmbedder{})
	f, err := b.BuildFlat(context.Background(), "statute", passages)
	if err != nil {
		t.Fatalf("BuildFlat: %v", err)
	}
	if f.Len() != 2 || f.Dim() != 2 {
		t.Errorf("store len=%d dim=%d", f.Len(), f.Dim())
	}
}

func TestBuilderEmbedBatches(t *testing.T) {
	passages := make([]corpus.Passage, embedBatchSize+5)
	for i := range passages {
		passages[i] = corpus.Passage{ID: "p", Text: "text"}
	}

	emb := &stubEmbedder{}
	if err := NewBuilder(emb).Embed(context.Background(), passages); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if emb.calls != 2 {
		t.Errorf("expected 2 batches, got %d", emb.calls)
	}
	for i, p := range passages {
		if len(p.Vector) == 0 {
			t.Fatalf("passage %d missing vector", i)
		}
	}
}

func TestBuilderEmbedPropagatesFailure(t *testing.T) {
	b := NewBuilder(&stubEmbedder{fail: true})
	err := b.Embed(context.Background(), []corpus.Passage{{ID: "p", Text: "text"}})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
}
