package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Stores    []StoreConfig   `mapstructure:"stores"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	EmbedModel        string        `mapstructure:"embed_model"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// StoreConfig describes one corpus store. Backend "flat" loads a
// vector/metadata pair from Path; backend "qdrant" queries a collection.
type StoreConfig struct {
	Name        string `mapstructure:"name"`
	Kind        string `mapstructure:"kind"`         // "statute" or "caselaw"
	LabelPrefix string `mapstructure:"label_prefix"` // e.g. "Equality Act"
	Backend     string `mapstructure:"backend"`      // "flat" or "qdrant"
	Path        string `mapstructure:"path"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Collection  string `mapstructure:"collection"`
}

type RetrievalConfig struct {
	// Rerank selects the strategy: "cosine", "judgment" or "none".
	Rerank string `mapstructure:"rerank"`
	// RetrieveK is the per-store width; 0 picks the default for the
	// configured rerank strategy.
	RetrieveK int `mapstructure:"retrieve_k"`
	// FinalK is the number of passages kept for the context.
	FinalK int `mapstructure:"final_k"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	HealthAddr string `mapstructure:"health_addr"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.LLM.Provider != "" && c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("LLM provider '%s' is configured but api_key is empty", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("LLM temperature %.2f is outside recommended range [0.0, 2.0]", c.LLM.Temperature))
	}
	if len(c.Stores) == 0 {
		warnings = append(warnings, "no stores configured; retrieval will return nothing")
	}
	for _, s := range c.Stores {
		switch s.Backend {
		case "", "flat":
			if s.Path == "" {
				warnings = append(warnings, fmt.Sprintf("store '%s' uses the flat backend but has no path", s.Name))
			}
		case "qdrant":
			if s.Collection == "" {
				warnings = append(warnings, fmt.Sprintf("store '%s' uses the qdrant backend but has no collection", s.Name))
			}
		default:
			warnings = append(warnings, fmt.Sprintf("store '%s' has unknown backend '%s'", s.Name, s.Backend))
		}
	}
	switch c.Retrieval.Rerank {
	case "", "none", "cosine", "judgment":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown rerank strategy '%s'", c.Retrieval.Rerank))
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LEXRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
