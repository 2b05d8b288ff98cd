package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kestrellabs/lexrag/internal/answer"
	"github.com/kestrellabs/lexrag/internal/config"
	"github.com/kestrellabs/lexrag/internal/corpus"
	"github.com/kestrellabs/lexrag/internal/llm"
	"github.com/kestrellabs/lexrag/internal/llm/gemini"
	"github.com/kestrellabs/lexrag/internal/llm/openai"
	"github.com/kestrellabs/lexrag/internal/observability"
	"github.com/kestrellabs/lexrag/internal/pipeline"
	"github.com/kestrellabs/lexrag/internal/rerank"
	"github.com/kestrellabs/lexrag/internal/retrieve"
	"github.com/kestrellabs/lexrag/internal/server"
	"github.com/kestrellabs/lexrag/internal/store"
)

func main() {
	// .env is optional; real deployments configure via file or env.
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lexrag",
		Short: "Retrieval-augmented question answering over UK legal text",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/lexrag.yaml", "Config file path")

	var (
		jsonOutput bool
		askRerank  string
	)
	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a legal question against the configured corpora",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), configPath, strings.Join(args, " "), askRerank, jsonOutput)
		},
	}
	askCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	askCmd.Flags().StringVar(&askRerank, "rerank", "", "Override rerank strategy (cosine, judgment, none)")

	var (
		feedPath    string
		feedKind    string
		labelPrefix string
		storeName   string
		outDir      string
	)
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed a passage feed and build a store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), configPath, feedPath, feedKind, labelPrefix, storeName, outDir)
		},
	}
	ingestCmd.Flags().StringVar(&feedPath, "feed", "", "Path to the JSON passage feed")
	ingestCmd.Flags().StringVar(&feedKind, "kind", "statute", "Corpus kind (statute or caselaw)")
	ingestCmd.Flags().StringVar(&labelPrefix, "label-prefix", "", "Citation label prefix (e.g. \"Equality Act\")")
	ingestCmd.Flags().StringVar(&storeName, "name", "", "Store name")
	ingestCmd.Flags().StringVar(&outDir, "out", "", "Output directory for the vector/metadata pair")
	_ = ingestCmd.MarkFlagRequired("feed")
	_ = ingestCmd.MarkFlagRequired("name")
	_ = ingestCmd.MarkFlagRequired("out")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available model providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available model providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-8s %s\n", name, url)
			}
			fmt.Println()
			fmt.Println("Configure in lexrag.yaml or via environment:")
			fmt.Println("  LEXRAG_LLM_PROVIDER=ollama")
			fmt.Println("  LEXRAG_LLM_MODEL=mistral")
			fmt.Println("  LEXRAG_LLM_EMBED_MODEL=nomic-embed-text")
		},
	}

	rootCmd.AddCommand(askCmd, ingestCmd, serveCmd, providersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(configPath string) (*config.Config, llm.Provider, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	setupLogging(cfg.Log)

	provider, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	return cfg, provider, nil
}

func setupLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func newProvider(cfg config.LLMConfig) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("openai", func(pc llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(pc.APIKey, pc.Model, pc.BaseURL, pc.EmbedModel), nil
	})
	factory.Register("ollama", func(pc llm.ProviderConfig) (llm.Provider, error) {
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = llm.KnownProviders["ollama"]
		}
		return openai.New(pc.APIKey, pc.Model, baseURL, pc.EmbedModel), nil
	})
	factory.Register("gemini", func(pc llm.ProviderConfig) (llm.Provider, error) {
		return gemini.New(context.Background(), pc.APIKey, pc.Model, pc.EmbedModel)
	})

	return factory.Create(llm.ProviderConfig{
		Provider:          cfg.Provider,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		EmbedModel:        cfg.EmbedModel,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
}

func openStores(ctx context.Context, cfg *config.Config) ([]store.Store, func(), error) {
	var stores []store.Store
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	for _, sc := range cfg.Stores {
		switch sc.Backend {
		case "", "flat":
			s, err := store.LoadFlat(sc.Name, sc.Path)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("load store %s: %w", sc.Name, err)
			}
			stores = append(stores, s)
		case "qdrant":
			s, err := store.NewQdrant(ctx, sc.Name, sc.Host, sc.Port, sc.Collection)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("open store %s: %w", sc.Name, err)
			}
			stores = append(stores, s)
			closers = append(closers, s.Close)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("store %s: unknown backend %q", sc.Name, sc.Backend)
		}
	}
	return stores, closeAll, nil
}

func buildEngine(cfg *config.Config, provider llm.Provider, stores []store.Store, rerankOverride string) *pipeline.Engine {
	strategy := cfg.Retrieval.Rerank
	if rerankOverride != "" {
		strategy = rerankOverride
	}

	var reranker rerank.Strategy
	switch strategy {
	case "cosine":
		reranker = rerank.NewCosine(provider)
	case "judgment":
		reranker = rerank.NewJudgment(provider)
	}

	retrieveK := cfg.Retrieval.RetrieveK
	if retrieveK <= 0 {
		if reranker != nil {
			retrieveK = retrieve.DefaultKWithRerank
		} else {
			retrieveK = retrieve.DefaultKDirect
		}
	}

	var opts *llm.RequestOptions
	if cfg.LLM.Temperature > 0 || cfg.LLM.MaxTokens > 0 {
		opts = &llm.RequestOptions{}
		if cfg.LLM.Temperature > 0 {
			t := cfg.LLM.Temperature
			opts.Temperature = &t
		}
		if cfg.LLM.MaxTokens > 0 {
			m := cfg.LLM.MaxTokens
			opts.MaxTokens = &m
		}
	}

	return pipeline.New(
		provider,
		retrieve.New(stores, retrieveK),
		reranker,
		answer.NewGenerator(provider, opts),
		cfg.Retrieval.FinalK,
	)
}

func runAsk(ctx context.Context, configPath, question, rerankOverride string, jsonOutput bool) error {
	cfg, provider, err := setup(configPath)
	if err != nil {
		return err
	}

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	engine := buildEngine(cfg, provider, stores, rerankOverride)
	result, err := engine.Ask(ctx, question)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Answer)
	fmt.Println()
	fmt.Println("Sources:")
	for i, src := range result.Sources {
		preview := src.Text
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		fmt.Printf("[%d] %s: %s\n", i+1, src.Ref, preview)
	}
	return nil
}

func runIngest(ctx context.Context, configPath, feedPath, feedKind, labelPrefix, storeName, outDir string) error {
	_, provider, err := setup(configPath)
	if err != nil {
		return err
	}

	feed := corpus.Feed{Kind: corpus.Kind(feedKind), LabelPrefix: labelPrefix}
	passages, err := feed.Load(feedPath)
	if err != nil {
		return err
	}
	slog.Info("loaded passage feed", "path", feedPath, "passages", len(passages))

	builder := store.NewBuilder(provider)
	flat, err := builder.BuildFlat(ctx, storeName, passages)
	if err != nil {
		return err
	}
	if err := flat.Save(outDir); err != nil {
		return err
	}

	slog.Info("store built", "name", storeName, "passages", flat.Len(), "dim", flat.Dim(), "dir", outDir)
	return nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, provider, err := setup(configPath)
	if err != nil {
		return err
	}

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "lexrag",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg, provider, stores, "")

	health := server.NewHealth()
	for _, s := range stores {
		s := s
		health.RegisterCheck("store."+s.Name(), func(context.Context) server.HealthCheck {
			check := server.HealthCheck{Name: "store." + s.Name(), Status: server.HealthStatusHealthy}
			if s.Len() == 0 {
				check.Status = server.HealthStatusUnhealthy
				check.Message = "store is empty"
			}
			return check
		})
	}

	shutdown := server.NewShutdown(30 * time.Second)
	shutdown.RegisterHook("tracing", 80, tp.Shutdown)
	shutdown.RegisterHook("stores", 90, func(context.Context) error {
		closeStores()
		return nil
	})

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("serving", "addr", addr, "stores", len(stores))
	return server.Run(addr, server.NewAPI(engine, health, 0), health, shutdown)
}
