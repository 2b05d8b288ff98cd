package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kestrellabs/lexrag/internal/corpus"
	"github.com/kestrellabs/lexrag/internal/llm"
)

// embedBatchSize bounds the number of texts per embedding request.
const embedBatchSize = 64

// Builder embeds corpus passages and produces stores.
type Builder struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewBuilder creates a Builder using the given provider for embeddings.
func NewBuilder(provider llm.Provider) *Builder {
	return &Builder{provider: provider, logger: slog.Default()}
}

// Embed attaches vectors to the passages in place, batching requests.
func (b *Builder) Embed(ctx context.Context, passages []corpus.Passage) error {
	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = passages[i].Text
		}

		vectors, err := b.provider.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", start, end, len(vectors), len(texts))
		}
		for i := range vectors {
			passages[start+i].Vector = vectors[i]
		}
		b.logger.Info("embedded passages", "from", start, "to", end, "total", len(passages))
	}
	return nil
}

// BuildFlat embeds the passages and returns a flat store over them.
func (b *Builder) BuildFlat(ctx context.Context, name string, passages []corpus.Passage) (*Flat, error) {
	if err := b.Embed(ctx, passages); err != nil {
		return nil, err
	}
	return NewFlat(name, passages)
}
