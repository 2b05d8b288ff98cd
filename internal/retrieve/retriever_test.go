package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/kestrellabs/lexrag/internal/corpus"
	"github.com/kestrellabs/lexrag/internal/store"
)

// fakeStore serves canned hits, including sentinel entries.
type fakeStore struct {
	name string
	hits []store.Hit
	err  error

	gotK int
}

func (f *fakeStore) Name() string { return f.name }
func (f *fakeStore) Len() int     { return len(f.hits) }

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]store.Hit, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func hit(index int, ref, text string) store.Hit {
	return store.Hit{Index: index, Passage: corpus.Passage{Ref: ref, Text: text}}
}

func TestRetrieveMergesBlockOrdered(t *testing.T) {
	statute := &fakeStore{name: "statute", hits: []store.Hit{
		hit(0, "Equality Act - s.6", "disability definition"),
		hit(1, "Equality Act - s.13", "direct discrimination"),
	}}
	caselaw := &fakeStore{name: "caselaw", hits: []store.Hit{
		hit(0, "Case Law - Smith v Jones", "tribunal holding"),
		hit(1, "Case Law - R v Brown", "appeal outcome"),
	}}

	r := New([]store.Store{statute, caselaw}, 2)
	cands, err := r.Retrieve(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(cands) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(cands))
	}
	for i := 0; i < 2; i++ {
		if cands[i].Source != "statute" {
			t.Errorf("candidate %d: source = %q, want statute", i, cands[i].Source)
		}
	}
	for i := 2; i < 4; i++ {
		if cands[i].Source != "caselaw" {
			t.Errorf("candidate %d: source = %q, want caselaw", i, cands[i].Source)
		}
	}
	if cands[0].Ref != "Equality Act - s.6" || cands[2].Ref != "Case Law - Smith v Jones" {
		t.Errorf("per-store rank order not preserved: %q, %q", cands[0].Ref, cands[2].Ref)
	}
}

func TestRetrieveSkipsSentinels(t *testing.T) {
	s := &fakeStore{name: "statute", hits: []store.Hit{
		hit(0, "Equality Act - s.6", "real hit"),
		hit(-1, "", ""),
		hit(2, "Equality Act - s.7", ""),
	}}

	r := New([]store.Store{s}, 3)
	cands, err := r.Retrieve(context.Background(), []float32{1})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected sentinel and empty-text hits skipped, got %d candidates", len(cands))
	}
	if cands[0].Ref != "Equality Act - s.6" {
		t.Errorf("wrong surviving candidate: %q", cands[0].Ref)
	}
}

func TestRetrievePropagatesSearchError(t *testing.T) {
	s := &fakeStore{name: "statute", err: errors.New("index unavailable")}
	r := New([]store.Store{s}, 2)
	if _, err := r.Retrieve(context.Background(), []float32{1}); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestRetrieveDefaultK(t *testing.T) {
	s := &fakeStore{name: "statute"}
	r := New([]store.Store{s}, 0)
	if _, err := r.Retrieve(context.Background(), []float32{1}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if s.gotK != DefaultKDirect {
		t.Errorf("default k = %d, want %d", s.gotK, DefaultKDirect)
	}
}
