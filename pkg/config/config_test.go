package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidateWithKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "test-key"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.LLM.MaxIterations)
	assert.Equal(t, 15*time.Minute, time.Duration(cfg.Cache.TTL))
	assert.Equal(t, 50, cfg.Cache.MaxSize)
	assert.Equal(t, 60*time.Second, time.Duration(cfg.LLM.RequestTimeout))
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
  api_key: yaml-key
  request_timeout: 30s
cache:
  ttl: 5m
  max_size: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "yaml-key", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.LLM.RequestTimeout))
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Cache.TTL))
	assert.Equal(t, 10, cfg.Cache.MaxSize)
	// Untouched fields keep defaults.
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, ModelGPT4oMini, cfg.LLM.Model)
}

func TestValidateRejectsBadProvider(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "watson"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())

	// Ollama runs locally and needs no key.
	cfg.LLM.Provider = ProviderOllama
	cfg.LLM.Model = ModelOllamaDefault
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SHOPASSIST_ADDR", ":7070")
	t.Setenv("SHOPASSIST_PROVIDER", "ollama")
	t.Setenv("SHOPASSIST_MODEL", "llama3.2")
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaHost)
}
