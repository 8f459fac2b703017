// Package openai embeds text through the OpenAI embeddings API (or any
// OpenAI-compatible endpoint via BaseURL).
package openai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"supportrag/internal/domain"
)

// Config configures the OpenAI embeddings client.
type Config struct {
	APIKeyEnv string
	Model     string
	BaseURL   string
	Dimension int
}

// Embedder calls the embeddings endpoint. The dimension is fixed per model
// at construction; a response with a different dimension is rejected.
type Embedder struct {
	client    *openai.Client
	model     string
	dimension int
}

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func New(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrInvalidInput, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = modelDimensions[cfg.Model]
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: unknown dimension for model %s", domain.ErrInvalidInput, cfg.Model)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: dim,
	}, nil
}

func (e *Embedder) Name() string { return "openai" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbeddingUnavailable, len(resp.Data), len(texts))
	}
	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		v := make([]float64, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float64(x)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: model returned dimension %d, expected %d", domain.ErrDimensionMismatch, len(v), e.dimension)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}
