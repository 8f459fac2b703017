package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"supportrag/internal/domain"
)

// CompatConfig configures an OpenAI-compatible chat completion provider.
type CompatConfig struct {
	APIKeyEnv string
	Model     string
	BaseURL   string
	MaxTokens int
}

// compatProvider speaks the OpenAI chat completions protocol. Together
// exposes the same API surface, so both providers share this type.
type compatProvider struct {
	name      string
	client    *openai.Client
	model     string
	maxTokens int
}

const (
	togetherBaseURL      = "https://api.together.xyz/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	defaultTogetherModel = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	defaultMaxTokens     = 1024
)

// NewOpenAI creates the OpenAI chat provider.
func NewOpenAI(cfg CompatConfig) (Provider, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	return newCompat("openai", cfg)
}

// NewTogether creates the Together provider through the same
// OpenAI-compatible endpoint.
func NewTogether(cfg CompatConfig) (Provider, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "TOGETHER_API_KEY"
	}
	if cfg.Model == "" {
		cfg.Model = defaultTogetherModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = togetherBaseURL
	}
	return newCompat("together", cfg)
}

func newCompat(name string, cfg CompatConfig) (Provider, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: %s requires an API key in env %s", domain.ErrInvalidInput, name, cfg.APIKeyEnv)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &compatProvider{
		name:      name,
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (p *compatProvider) Name() string { return p.name }

func (p *compatProvider) Generate(ctx context.Context, text string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && !transientStatus(apiErr.HTTPStatusCode) {
			return "", fmt.Errorf("%s request rejected: %w", p.name, err)
		}
		return "", markTransient(fmt.Errorf("%s call failed: %w", p.name, err))
	}
	if len(resp.Choices) == 0 {
		return "", markTransient(fmt.Errorf("%s returned no choices", p.name))
	}
	return resp.Choices[0].Message.Content, nil
}
