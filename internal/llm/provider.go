package llm

import "context"

// Provider is the interface all model backends must implement. The same
// backend serves both roles the pipeline needs: answer generation
// (Complete) and text embedding (Embed).
type Provider interface {
	// Complete sends a prompt and returns a completion.
	Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error)
	// Embed returns one fixed-dimension vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns the provider identifier (e.g. "openai", "gemini").
	Name() string
}

// RequestOptions carries optional per-call generation parameters.
// Nil fields fall back to provider defaults.
type RequestOptions struct {
	MaxTokens   *int
	Temperature *float64
	TopP        *float64
	StopSeqs    []string
}
