package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitProvider throttles calls to an upstream provider to at most
// rpm requests per minute. Embedding batches count as one request.
// Useful when the answer model and the rerank judge share one free-tier
// API key.
type RateLimitProvider struct {
	inner Provider
	rpm   int

	mu     sync.Mutex
	window time.Time
	used   int
}

// NewRateLimitProvider wraps inner with a requests-per-minute cap.
// rpm <= 0 disables throttling.
func NewRateLimitProvider(inner Provider, rpm int) *RateLimitProvider {
	return &RateLimitProvider{inner: inner, rpm: rpm, window: time.Now()}
}

func (r *RateLimitProvider) Name() string { return r.inner.Name() }

func (r *RateLimitProvider) Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Complete(ctx, prompt, opts)
}

func (r *RateLimitProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, texts)
}

// wait blocks until a request slot is free in the current one-minute
// window, or the context is done.
func (r *RateLimitProvider) wait(ctx context.Context) error {
	if r.rpm <= 0 {
		return nil
	}
	for {
		r.mu.Lock()
		now := time.Now()
		if now.Sub(r.window) >= time.Minute {
			r.window = now
			r.used = 0
		}
		if r.used < r.rpm {
			r.used++
			r.mu.Unlock()
			return nil
		}
		sleep := time.Minute - now.Sub(r.window)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}
