// Package answer adapts an llm.Provider into the pipeline's answer
// generation step.
package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrellabs/lexrag/internal/llm"
)

// ErrEmptyAnswer reports that the generation service replied without
// content. Distinct from transport failure: the call succeeded, the
// model just produced nothing usable.
var ErrEmptyAnswer = errors.New("generation returned an empty answer")

// Generator produces answer text from a grounding prompt.
type Generator struct {
	provider llm.Provider
	opts     *llm.RequestOptions
}

// NewGenerator creates a Generator over the given provider.
func NewGenerator(provider llm.Provider, opts *llm.RequestOptions) *Generator {
	return &Generator{provider: provider, opts: opts}
}

// Name reports the underlying provider's identifier.
func (g *Generator) Name() string { return g.provider.Name() }

// Generate sends the grounding prompt and returns the answer text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.provider.Complete(ctx, llm.UserPrompt("", prompt), g.opts)
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	text := llm.StripThinkingTags(resp.Content)
	if text == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}
