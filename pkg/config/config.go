// Package config handles YAML configuration loading with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"
)

// Supported model name constants. The provider is inferred from the prefix.
const (
	ModelClaudeSonnet  = "claude-sonnet-4-20250514"
	ModelGPT4o         = "gpt-4o"
	ModelGPT4oMini     = "gpt-4o-mini"
	ModelGeminiFlash   = "gemini-2.0-flash"
	ModelOllamaDefault = "llama3.2"
)

// Provider identifies which LLM backend serves a model.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderOllama    Provider = "ollama"
)

// Config is the root configuration for the assistant service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Commerce  CommerceConfig  `yaml:"commerce"`
	Cache     CacheConfig     `yaml:"cache"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Debug     bool            `yaml:"debug"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr           string         `yaml:"addr"`
	StreamDeadline model.Duration `yaml:"stream_deadline"`
}

// LLMConfig controls the reasoning engine adapter.
type LLMConfig struct {
	Provider       Provider       `yaml:"provider"`
	Model          string         `yaml:"model"`
	APIKey         string         `yaml:"api_key"`
	OllamaHost     string         `yaml:"ollama_host"`
	MaxTokens      int            `yaml:"max_tokens"`
	Temperature    float32        `yaml:"temperature"`
	RequestTimeout model.Duration `yaml:"request_timeout"`
	MaxIterations  int            `yaml:"max_iterations"`
}

// StoreConfig controls the conversation store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CommerceConfig controls the catalog and order database.
type CommerceConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTL     model.Duration `yaml:"ttl"`
	MaxSize int            `yaml:"max_size"`
}

// KnowledgeConfig controls the retrieval provider.
type KnowledgeConfig struct {
	Path        string `yaml:"path"`
	TokenBudget int    `yaml:"token_budget"`
}

// Default returns a configuration with sensible defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			StreamDeadline: model.Duration(120 * time.Second),
		},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			Model:          ModelGPT4oMini,
			MaxTokens:      4096,
			Temperature:    0.3,
			RequestTimeout: model.Duration(60 * time.Second),
			MaxIterations:  10,
		},
		Store:    StoreConfig{Path: "shopassist.db"},
		Commerce: CommerceConfig{Path: "commerce.db"},
		Cache: CacheConfig{
			TTL:     model.Duration(15 * time.Minute),
			MaxSize: 50,
		},
		Knowledge: KnowledgeConfig{
			Path:        "knowledge.db",
			TokenBudget: 1500,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies env overrides.
// A missing file is not an error; env-only operation is supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SHOPASSIST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SHOPASSIST_PROVIDER"); v != "" {
		cfg.LLM.Provider = Provider(v)
	}
	if v := os.Getenv("SHOPASSIST_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.LLM.Provider == ProviderAnthropic {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.Provider == ProviderOpenAI {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.Provider == ProviderGoogle {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.LLM.OllamaHost = v
	}
	if v := os.Getenv("SHOPASSIST_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SHOPASSIST_COMMERCE_DB"); v != "" {
		cfg.Commerce.Path = v
	}
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama:
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderOllama && c.LLM.APIKey == "" {
		return fmt.Errorf("api key required for provider %s", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must be set")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxIterations <= 0 {
		return fmt.Errorf("llm max_iterations must be positive, got %d", c.LLM.MaxIterations)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max_size must be positive, got %d", c.Cache.MaxSize)
	}
	if time.Duration(c.Cache.TTL) <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}
