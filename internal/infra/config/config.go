package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"seeker-ai/internal/domain"
)

// Config is the top-level application configuration. It is loaded once at
// process start and handed explicitly to every component that needs it;
// there is no ambient global state.
type Config struct {
	Ollama   OllamaConfig   `yaml:"ollama"`
	Models   ModelsConfig   `yaml:"models"`
	Search   SearchConfig   `yaml:"search"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// OllamaConfig holds settings for the local model runtime.
type OllamaConfig struct {
	BaseURL     string        `yaml:"base_url"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	// NumCtx is the context window requested from the runtime. Kept small
	// so the models fit on constrained local hardware.
	NumCtx int `yaml:"num_ctx"`
}

// ModelsConfig names the models used by the two generation stages.
type ModelsConfig struct {
	Planner string `yaml:"planner"`
	Writer  string `yaml:"writer"`
}

// SearchConfig holds web search backend settings.
type SearchConfig struct {
	Backend       string        `yaml:"backend"` // "tavily" | "searxng"
	APIKey        string        `yaml:"api_key"`
	TavilyURL     string        `yaml:"tavily_url"`
	SearXNGURL    string        `yaml:"searxng_url"`
	MaxResults    int           `yaml:"max_results"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"` // 0 = unlimited
}

// PipelineConfig holds pipeline tuning parameters.
type PipelineConfig struct {
	MaxQueries    int     `yaml:"max_queries"`    // planner output bound (1-3)
	MaxParallel   int     `yaml:"max_parallel"`   // search fan-out workers
	Temperature   float64 `yaml:"temperature"`    // generation temperature
	ReserveTokens int     `yaml:"reserve_tokens"` // context kept free for the answer
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// DefaultPath returns the default config file location under
// $HOME/.seeker/config.yaml. Falls back to ./config.yaml if $HOME cannot
// be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".seeker", "config.yaml")
}

// Defaults returns a Config with sensible defaults for a local setup.
func Defaults() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			ConnTimeout: 5 * time.Second,
			RespTimeout: 300 * time.Second,
			NumCtx:      3072,
		},
		Models: ModelsConfig{
			Planner: "llama3.2:1b",
			Writer:  "deepseek-r1:14b",
		},
		Search: SearchConfig{
			Backend:    "tavily",
			TavilyURL:  "https://api.tavily.com/search",
			SearXNGURL: "http://localhost:8888",
			MaxResults: 3,
			Timeout:    15 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxQueries:    3,
			MaxParallel:   3,
			Temperature:   0.1,
			ReserveTokens: 512,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps SEEKER_* env vars to config fields. TAVILY_API_KEY
// is also honored so the key can be shared with other tools.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SEEKER_OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("SEEKER_OLLAMA_NUM_CTX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Ollama.NumCtx = n
		}
	}
	if v := os.Getenv("SEEKER_MODELS_PLANNER"); v != "" {
		cfg.Models.Planner = v
	}
	if v := os.Getenv("SEEKER_MODELS_WRITER"); v != "" {
		cfg.Models.Writer = v
	}
	if v := os.Getenv("SEEKER_SEARCH_BACKEND"); v != "" {
		cfg.Search.Backend = v
	}
	if v := os.Getenv("SEEKER_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
	}
	if v := os.Getenv("SEEKER_SEARCH_SEARXNG_URL"); v != "" {
		cfg.Search.SearXNGURL = v
	}
	if v := os.Getenv("SEEKER_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Search.Timeout = d
		}
	}
	if v := os.Getenv("SEEKER_PIPELINE_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.MaxParallel = n
		}
	}
	if v := os.Getenv("SEEKER_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SEEKER_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SEEKER_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SEEKER_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// Validate checks invariants that would otherwise surface mid-pipeline.
// Every failure unwraps to domain.ErrConfig.
func Validate(cfg *Config) error {
	if cfg.Ollama.BaseURL == "" {
		return fmt.Errorf("%w: ollama.base_url must not be empty", domain.ErrConfig)
	}
	if cfg.Ollama.NumCtx < 512 {
		return fmt.Errorf("%w: ollama.num_ctx %d too small (min 512)", domain.ErrConfig, cfg.Ollama.NumCtx)
	}
	if cfg.Models.Planner == "" || cfg.Models.Writer == "" {
		return fmt.Errorf("%w: models.planner and models.writer must be set", domain.ErrConfig)
	}
	switch cfg.Search.Backend {
	case "tavily":
		if cfg.Search.APIKey == "" {
			return fmt.Errorf("%w: search.api_key required for the tavily backend (or set TAVILY_API_KEY)", domain.ErrConfig)
		}
	case "searxng":
		if cfg.Search.SearXNGURL == "" {
			return fmt.Errorf("%w: search.searxng_url required for the searxng backend", domain.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown search backend: %q", domain.ErrConfig, cfg.Search.Backend)
	}
	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("%w: search.max_results must be >= 1", domain.ErrConfig)
	}
	if cfg.Pipeline.MaxQueries < 1 || cfg.Pipeline.MaxQueries > 3 {
		return fmt.Errorf("%w: pipeline.max_queries must be between 1 and 3", domain.ErrConfig)
	}
	if cfg.Pipeline.MaxParallel < 1 {
		return fmt.Errorf("%w: pipeline.max_parallel must be >= 1", domain.ErrConfig)
	}
	if cfg.Pipeline.ReserveTokens < 0 || cfg.Pipeline.ReserveTokens >= cfg.Ollama.NumCtx {
		return fmt.Errorf("%w: pipeline.reserve_tokens must be in [0, num_ctx)", domain.ErrConfig)
	}
	return nil
}
