package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kestrellabs/lexrag/internal/corpus"
)

const (
	vectorsFile  = "vectors.json"
	metadataFile = "metadata.json"
)

// Flat is an exact in-memory store using brute-force L2 distance, the
// same metric the corpus indexes were originally built with. The i-th
// vector corresponds to the i-th metadata record; that positional
// correspondence is load-bearing.
type Flat struct {
	name     string
	dim      int
	vectors  [][]float32
	passages []corpus.Passage
}

// NewFlat builds a flat store from passages that already carry vectors.
func NewFlat(name string, passages []corpus.Passage) (*Flat, error) {
	f := &Flat{name: name}
	for i, p := range passages {
		if len(p.Vector) == 0 {
			return nil, fmt.Errorf("%w: passage %d (%s) has no vector", ErrIndexCorrupt, i, p.ID)
		}
		if f.dim == 0 {
			f.dim = len(p.Vector)
		}
		if len(p.Vector) != f.dim {
			return nil, fmt.Errorf("%w: passage %d has dimension %d, store has %d", ErrIndexCorrupt, i, len(p.Vector), f.dim)
		}
		f.vectors = append(f.vectors, p.Vector)
		stripped := p
		stripped.Vector = nil
		f.passages = append(f.passages, stripped)
	}
	return f, nil
}

func (f *Flat) Name() string { return f.name }

func (f *Flat) Len() int { return len(f.passages) }

// Dim reports the embedding dimensionality, 0 for an empty store.
func (f *Flat) Dim() int { return f.dim }

// Search returns the k nearest passages by L2 distance, ascending, ties
// broken by insertion order. Hits carry the matched passage's vector so
// rerankers need not re-embed.
func (f *Flat) Search(_ context.Context, vector []float32, k int) ([]Hit, error) {
	if len(f.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vector) != f.dim {
		return nil, fmt.Errorf("%w: query dimension %d, store dimension %d", ErrIndexCorrupt, len(vector), f.dim)
	}

	type scored struct {
		index int
		dist  float32
	}
	all := make([]scored, len(f.vectors))
	for i, v := range f.vectors {
		all[i] = scored{index: i, dist: l2sq(vector, v)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	if k > len(all) {
		k = len(all)
	}
	hits := make([]Hit, k)
	for i := 0; i < k; i++ {
		p := f.passages[all[i].index]
		p.Vector = f.vectors[all[i].index]
		hits[i] = Hit{Index: all[i].index, Score: all[i].dist, Passage: p}
	}
	return hits, nil
}

// l2sq is squared Euclidean distance; squaring preserves L2 ordering.
func l2sq(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Save writes the store as a vector file plus a parallel metadata file in
// dir, one record per indexed passage, in index order.
func (f *Flat) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	vecData, err := json.Marshal(f.vectors)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, vectorsFile), vecData, 0o644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	metaData, err := json.MarshalIndent(f.passages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), metaData, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadFlat reads a persisted vector/metadata pair and validates their
// positional correspondence before serving queries from it.
func LoadFlat(name, dir string) (*Flat, error) {
	vecData, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	var vectors [][]float32
	if err := json.Unmarshal(vecData, &vectors); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}

	metaData, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var passages []corpus.Passage
	if err := json.Unmarshal(metaData, &passages); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("%w: %d vectors, %d metadata records", ErrIndexCorrupt, len(vectors), len(passages))
	}
	for i := range passages {
		passages[i].Vector = vectors[i]
	}
	return NewFlat(name, passages)
}
