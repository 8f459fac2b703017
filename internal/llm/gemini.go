package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"supportrag/internal/domain"
)

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKeyEnv string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type geminiProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// NewGemini creates the Gemini provider against the generateContent
// endpoint.
func NewGemini(cfg GeminiConfig) (Provider, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: gemini requires an API key in env %s", domain.ErrInvalidInput, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &geminiProvider{
		apiKey:    key,
		model:     cfg.Model,
		baseURL:   cfg.BaseURL,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, text string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": text}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": p.maxTokens,
		},
	})
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", markTransient(fmt.Errorf("gemini unreachable: %w", err))
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", markTransient(fmt.Errorf("reading gemini response: %w", err))
	}
	switch {
	case transientStatus(resp.StatusCode):
		return "", markTransient(fmt.Errorf("gemini returned %s: %s", resp.Status, geminiErrorMessage(payload)))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("gemini returned %s: %s", resp.Status, geminiErrorMessage(payload))
	}
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", markTransient(fmt.Errorf("decoding gemini response: %w", err))
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contained no generated text")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func geminiErrorMessage(payload []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(payload, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(payload)
}
