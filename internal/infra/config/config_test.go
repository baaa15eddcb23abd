package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seeker-ai/internal/domain"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, 3072, cfg.Ollama.NumCtx)
	assert.Equal(t, 3, cfg.Pipeline.MaxQueries)
	assert.Equal(t, "tavily", cfg.Search.Backend)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SEEKER_SEARCH_API_KEY", "tvly-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Models.Planner, cfg.Models.Planner)
	assert.Equal(t, "tvly-test", cfg.Search.APIKey)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
ollama:
  base_url: http://models.lan:11434
  num_ctx: 8192
models:
  planner: qwen2.5:3b
  writer: llama3.1:8b
search:
  backend: searxng
  searxng_url: http://localhost:8889
pipeline:
  max_queries: 2
  max_parallel: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://models.lan:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, 8192, cfg.Ollama.NumCtx)
	assert.Equal(t, "qwen2.5:3b", cfg.Models.Planner)
	assert.Equal(t, 2, cfg.Pipeline.MaxQueries)
	// Untouched fields keep defaults.
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  planner: from-file\nsearch:\n  backend: searxng\n"), 0o600))

	t.Setenv("SEEKER_MODELS_PLANNER", "from-env")
	t.Setenv("SEEKER_LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Models.Planner)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestTavilyKeyFallsBackToTavilyEnv(t *testing.T) {
	cfg := Defaults()
	t.Setenv("SEEKER_SEARCH_API_KEY", "")
	t.Setenv("TAVILY_API_KEY", "tvly-shared")
	ApplyEnvOverrides(cfg)
	assert.Equal(t, "tvly-shared", cfg.Search.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"tavily without key", func(c *Config) { c.Search.APIKey = "" }, "api_key"},
		{"unknown backend", func(c *Config) { c.Search.Backend = "bing" }, "unknown search backend"},
		{"max_queries too large", func(c *Config) { c.Pipeline.MaxQueries = 5 }, "max_queries"},
		{"max_queries zero", func(c *Config) { c.Pipeline.MaxQueries = 0 }, "max_queries"},
		{"tiny context", func(c *Config) { c.Ollama.NumCtx = 128 }, "num_ctx"},
		{"no planner model", func(c *Config) { c.Models.Planner = "" }, "models.planner"},
		{"reserve exceeds context", func(c *Config) { c.Pipeline.ReserveTokens = 4096 }, "reserve_tokens"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Search.APIKey = "tvly-test"
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfig)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := Defaults()
	cfg.Search.APIKey = "tvly-test"
	assert.NoError(t, Validate(cfg))
}
