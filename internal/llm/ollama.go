package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaConfig configures the local Ollama provider.
type OllamaConfig struct {
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type ollamaProvider struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOllama creates a provider backed by a local Ollama server. No API key
// is needed.
func NewOllama(cfg OllamaConfig) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama2"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &ollamaProvider{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) Generate(ctx context.Context, text string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":  p.model,
		"prompt": text,
		"stream": false,
		"options": map[string]any{
			"num_predict": p.maxTokens,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Connection refused or timed out: the service may come back.
		return "", markTransient(fmt.Errorf("ollama unreachable: %w", err))
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("model %q not found; pull it first with 'ollama pull %s'", p.model, p.model)
	case transientStatus(resp.StatusCode):
		payload, _ := io.ReadAll(resp.Body)
		return "", markTransient(fmt.Errorf("ollama returned %s: %s", resp.Status, payload))
	case resp.StatusCode != http.StatusOK:
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, payload)
	}
	var out struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", markTransient(fmt.Errorf("decoding ollama response: %w", err))
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Response, nil
}
