package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama2", req["model"])
		assert.Equal(t, false, req["stream"])
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "generated text"})
	}))
	defer srv.Close()

	p := NewOllama(OllamaConfig{BaseURL: srv.URL})
	out, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
}

func TestOllamaMissingModelIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllama(OllamaConfig{BaseURL: srv.URL, Model: "ghost"})
	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.False(t, isTransient(err))
	assert.Contains(t, err.Error(), "ollama pull ghost")
}

func TestOllamaServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOllama(OllamaConfig{BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
}

func TestOllamaUnreachableIsTransient(t *testing.T) {
	p := NewOllama(OllamaConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
}

func TestGeminiGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "gemini says hi"}}}},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	p, err := NewGemini(GeminiConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", out)
}

func TestGeminiRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "quota exceeded"}})
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	p, err := NewGemini(GeminiConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiBadKeyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "API key not valid"}})
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "bogus")
	p, err := NewGemini(GeminiConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.False(t, isTransient(err))
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewGemini(GeminiConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpenAIGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "openai says hi"}},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	p, err := NewOpenAI(CompatConfig{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "openai says hi", out)
}

func TestOpenAIBadCredentialsArePermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "bogus")
	p, err := NewOpenAI(CompatConfig{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.False(t, isTransient(err))
}

func TestOpenAIServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream exploded", "type": "server_error"},
		})
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	p, err := NewOpenAI(CompatConfig{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
}

func TestTogetherRequiresAPIKey(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")
	_, err := NewTogether(CompatConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
