package llm

import (
	"fmt"
	"time"
)

// ProviderConfig holds all configuration needed to create a provider.
type ProviderConfig struct {
	Provider   string // "openai", "gemini", "ollama", "custom"
	APIKey     string
	Model      string
	BaseURL    string // override for self-hosted / custom endpoints
	EmbedModel string

	Timeout           time.Duration // per-request timeout (default: 2 minutes)
	MaxRetries        int           // retry attempts after the first call (default: 1)
	RetryDelay        time.Duration // initial backoff (default: 2s)
	RequestsPerMinute int           // 0 = unthrottled
}

// ProviderConstructor builds a Provider from config.
type ProviderConstructor func(cfg ProviderConfig) (Provider, error)

// Factory creates Provider instances from config.
type Factory struct {
	constructors map[string]ProviderConstructor
}

// NewFactory creates an empty factory; backends register themselves in
// the command wiring.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]ProviderConstructor)}
}

// Register adds a provider constructor under the given name.
func (f *Factory) Register(name string, ctor ProviderConstructor) {
	f.constructors[name] = ctor
}

// Create builds a Provider from config, wrapped with the bounded-retry
// policy and, when configured, a requests-per-minute throttle.
func (f *Factory) Create(cfg ProviderConfig) (Provider, error) {
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q (registered: %v)", cfg.Provider, f.names())
	}

	provider, err := ctor(cfg)
	if err != nil {
		return nil, err
	}

	retry := &RetryConfig{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	}
	if retry.MaxRetries <= 0 {
		retry.MaxRetries = 1
	}
	if retry.RetryDelay <= 0 {
		retry.RetryDelay = 2 * time.Second
	}
	if retry.Timeout <= 0 {
		retry.Timeout = 2 * time.Minute
	}

	var out Provider = NewRetryProvider(provider, retry)
	if cfg.RequestsPerMinute > 0 {
		out = NewRateLimitProvider(out, cfg.RequestsPerMinute)
	}
	return out, nil
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}

// KnownProviders documents the built-in presets. OpenAI-compatible
// backends (Ollama, Groq, vLLM, Together, etc.) use the "openai"
// constructor with a custom base_url; "ollama" is a preset for the
// local default.
var KnownProviders = map[string]string{
	"openai": "https://api.openai.com/v1",
	"ollama": "http://localhost:11434/v1",
	"gemini": "generativelanguage.googleapis.com",
}
