// Package config loads the application configuration from YAML with
// environment overrides. Configuration is loaded once at startup and
// injected into constructors; nothing reads it afterwards.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// SUPPORTRAG_LLM_PROVIDER.
const EnvPrefix = "SUPPORTRAG_"

// ChunkerConfig configures how ingested text is split.
type ChunkerConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type        string `yaml:"type"` // hashtf, openai, ollama
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant-backed index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Type   string        `yaml:"type"` // memory, qdrant
	Path   string        `yaml:"path"` // persistence file for the memory index
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// ProviderConfig configures one LLM backend. Providers are tried in the
// order they are listed.
type ProviderConfig struct {
	Type        string `yaml:"type"` // openai, together, ollama, gemini
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	Providers  []ProviderConfig `yaml:"providers"`
	MaxRetries int              `yaml:"max_retries"`
	MaxTokens  int              `yaml:"max_tokens"`
}

// AgentConfig configures the query orchestration.
type AgentConfig struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// FeedbackConfig configures the feedback log.
type FeedbackConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the slog output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Channel  string         `yaml:"channel"` // console, tui
	Log      LogConfig      `yaml:"log"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Index    IndexConfig    `yaml:"index"`
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	Feedback FeedbackConfig `yaml:"feedback"`
}

// Load reads config from path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then
// ~/.config/supportrag/config.yaml. If neither exists, it writes defaults
// to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "supportrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Channel == "" {
		cfg.Channel = "console"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Chunker.MaxTokens == 0 {
		cfg.Chunker.MaxTokens = 512
	}
	if cfg.Chunker.OverlapTokens == 0 {
		cfg.Chunker.OverlapTokens = 50
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashtf"
	}
	if cfg.Embedder.Dimension == 0 && cfg.Embedder.Type == "hashtf" {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "data/index.json"
	}
	if len(cfg.LLM.Providers) == 0 {
		cfg.LLM.Providers = []ProviderConfig{{Type: "ollama"}}
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Agent.TopK == 0 {
		cfg.Agent.TopK = 3
	}
	if cfg.Agent.MaxContextChars == 0 {
		cfg.Agent.MaxContextChars = 6000
	}
	if cfg.Feedback.Path == "" {
		cfg.Feedback.Path = "logs/feedback.jsonl"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv(EnvPrefix + "CHANNEL"); v != "" {
		cfg.Channel = v
	}
	if v := os.Getenv(EnvPrefix + "LLM_PROVIDER"); v != "" {
		cfg.LLM.Providers = []ProviderConfig{{Type: v}}
	}
	if v := os.Getenv(EnvPrefix + "LLM_MODEL"); v != "" && len(cfg.LLM.Providers) > 0 {
		cfg.LLM.Providers[0].Model = v
	}
	if v := os.Getenv(EnvPrefix + "INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv(EnvPrefix + "FEEDBACK_LOG_PATH"); v != "" {
		cfg.Feedback.Path = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_DIM"); v != "" {
		if dim, err := strconv.Atoi(v); err == nil && dim > 0 {
			cfg.Embedder.Dimension = dim
		}
	}
}
