// Package clients constructs LLM clients from configuration.
package clients

import (
	"fmt"

	"shopassist/pkg/config"
	"shopassist/pkg/llm"
	"shopassist/pkg/llm/anthropicimpl"
	"shopassist/pkg/llm/googleimpl"
	"shopassist/pkg/llm/ollamaimpl"
	"shopassist/pkg/llm/openaiimpl"
)

// New builds the llm.Client for the configured provider.
func New(cfg *config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropicimpl.New(cfg.APIKey, cfg.Model), nil
	case config.ProviderOpenAI:
		return openaiimpl.New(cfg.APIKey, cfg.Model), nil
	case config.ProviderGoogle:
		return googleimpl.New(cfg.APIKey, cfg.Model), nil
	case config.ProviderOllama:
		return ollamaimpl.New(cfg.OllamaHost, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
