package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"supportrag/internal/agent"
	"supportrag/internal/channel"
	"supportrag/internal/chunker"
	"supportrag/internal/config"
	"supportrag/internal/domain"
	"supportrag/internal/embedding/hashtf"
	embollama "supportrag/internal/embedding/ollama"
	embopenai "supportrag/internal/embedding/openai"
	"supportrag/internal/feedback"
	memindex "supportrag/internal/index/memory"
	"supportrag/internal/index/qdrant"
	"supportrag/internal/ingest"
	"supportrag/internal/llm"
	"supportrag/internal/logging"
	"supportrag/internal/prompt"
	"supportrag/internal/search"
	"supportrag/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config (optional; defaults to ./config.yaml or ~/.config/supportrag/config.yaml)")
	flag.Parse()
	docs := flag.Args()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: logLevel(cfg.Log.Level), JSON: cfg.Log.JSON})

	if err := run(cfg, docs, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, docs []string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	embedder, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("embedder init: %w", err)
	}

	index, err := buildIndex(cfg.Index, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("index init: %w", err)
	}

	ck, err := chunker.NewTokenChunker(cfg.Chunker.MaxTokens, cfg.Chunker.OverlapTokens)
	if err != nil {
		return fmt.Errorf("chunker init: %w", err)
	}

	var summary string
	if len(docs) > 0 {
		svc := ingest.NewService(ck, embedder, index, summarizer.NewFrequency(), logger.With("component", "ingest"))
		report, err := svc.IngestFiles(ctx, docs)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		if cfg.Index.Type == "memory" {
			if dir := filepath.Dir(cfg.Index.Path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := index.Persist(cfg.Index.Path); err != nil {
				return fmt.Errorf("persisting index: %w", err)
			}
		}
		logger.Info("ingest complete", "documents", report.Documents, "chunks", report.Chunks)
		summary = report.Summary
	}

	providers, err := buildProviders(cfg.LLM)
	if err != nil {
		return fmt.Errorf("provider init: %w", err)
	}
	client, err := llm.NewClient(providers, cfg.LLM.MaxRetries, logger.With("component", "llm"))
	if err != nil {
		return err
	}

	engine := search.NewEngine(embedder, index, logger.With("component", "search"))
	builder := prompt.NewBuilder(cfg.Agent.MaxContextChars)
	ag := agent.New(engine, builder, client, cfg.Agent.TopK, logger.With("component", "agent"))

	collector, err := feedback.NewCollector(cfg.Feedback.Path, logger.With("component", "feedback"))
	if err != nil {
		return fmt.Errorf("feedback init: %w", err)
	}

	ch, err := channel.New(cfg.Channel, channel.Deps{Agent: ag, Feedback: collector, Summary: summary})
	if err != nil {
		return err
	}
	return ch.Run(ctx)
}

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashtf", "":
		dim := cfg.Dimension
		if dim == 0 {
			dim = hashtf.DefaultDimension
		}
		return hashtf.New(dim)
	case "openai":
		return embopenai.New(embopenai.Config{
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			Dimension: cfg.Dimension,
		})
	case "ollama":
		return embollama.New(embollama.Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidInput, cfg.Type)
	}
}

func buildIndex(cfg config.IndexConfig, dimension int) (domain.VectorIndex, error) {
	switch cfg.Type {
	case "memory", "":
		idx, err := memindex.Load(cfg.Path)
		if err == nil {
			if idx.Dimension() != dimension {
				return nil, fmt.Errorf("%w: persisted index has dimension %d, embedder produces %d",
					domain.ErrDimensionMismatch, idx.Dimension(), dimension)
			}
			return idx, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return memindex.New(dimension)
		}
		return nil, err
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("%w: qdrant config missing", domain.ErrInvalidInput)
		}
		return qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Dimension:  dimension,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown index %q", domain.ErrInvalidInput, cfg.Type)
	}
}

func buildProviders(cfg config.LLMConfig) ([]llm.Provider, error) {
	providers := make([]llm.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		var (
			p   llm.Provider
			err error
		)
		switch pc.Type {
		case "openai":
			p, err = llm.NewOpenAI(llm.CompatConfig{
				APIKeyEnv: pc.APIKeyEnv,
				Model:     pc.Model,
				BaseURL:   pc.BaseURL,
				MaxTokens: cfg.MaxTokens,
			})
		case "together":
			p, err = llm.NewTogether(llm.CompatConfig{
				APIKeyEnv: pc.APIKeyEnv,
				Model:     pc.Model,
				BaseURL:   pc.BaseURL,
				MaxTokens: cfg.MaxTokens,
			})
		case "ollama":
			p = llm.NewOllama(llm.OllamaConfig{
				BaseURL:   pc.BaseURL,
				Model:     pc.Model,
				MaxTokens: cfg.MaxTokens,
				Timeout:   time.Duration(pc.TimeoutSecs) * time.Second,
			})
		case "gemini":
			p, err = llm.NewGemini(llm.GeminiConfig{
				APIKeyEnv: pc.APIKeyEnv,
				Model:     pc.Model,
				BaseURL:   pc.BaseURL,
				MaxTokens: cfg.MaxTokens,
				Timeout:   time.Duration(pc.TimeoutSecs) * time.Second,
			})
		default:
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, pc.Type)
		}
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
