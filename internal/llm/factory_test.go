package llm

import (
	"context"
	"strings"
	"testing"
)

type nullProvider struct{ name string }

func (n *nullProvider) Name() string { return n.name }
func (n *nullProvider) Complete(context.Context, *Prompt, *RequestOptions) (*Response, error) {
	return &Response{Content: "ok"}, nil
}
func (n *nullProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory()
	f.Register("openai", func(cfg ProviderConfig) (Provider, error) {
		return &nullProvider{name: "openai"}, nil
	})

	_, err := f.Create(ProviderConfig{Provider: "anthropic"})
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
	if !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("error should name the requested provider: %v", err)
	}
}

func TestFactoryWrapsWithRetry(t *testing.T) {
	f := NewFactory()
	f.Register("openai", func(cfg ProviderConfig) (Provider, error) {
		return &nullProvider{name: "openai"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "openai"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Errorf("expected RetryProvider wrapper, got %T", p)
	}
	if p.Name() != "openai" {
		t.Errorf("wrapper should delegate Name, got %q", p.Name())
	}
}

func TestFactoryWrapsWithRateLimit(t *testing.T) {
	f := NewFactory()
	f.Register("ollama", func(cfg ProviderConfig) (Provider, error) {
		return &nullProvider{name: "ollama"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "ollama", RequestsPerMinute: 30})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := p.(*RateLimitProvider); !ok {
		t.Errorf("expected RateLimitProvider wrapper, got %T", p)
	}
}

func TestFactoryPassesConfigToConstructor(t *testing.T) {
	f := NewFactory()
	var got ProviderConfig
	f.Register("openai", func(cfg ProviderConfig) (Provider, error) {
		got = cfg
		return &nullProvider{name: "openai"}, nil
	})

	_, err := f.Create(ProviderConfig{Provider: "openai", Model: "gpt-4o", BaseURL: "http://localhost:11434/v1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Model != "gpt-4o" || got.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("constructor received wrong config: %+v", got)
	}
}
