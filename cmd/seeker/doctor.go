package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"seeker-ai/internal/adapter/llm"
	"seeker-ai/internal/infra/config"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// runDoctor executes all health checks and reports results.
func runDoctor() error {
	cfgPath := configPath()

	// Try to load config. Some checks work without it.
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config", Fn: checkConfig(cfgPath, cfgErr)},
		{Name: "Ollama", Fn: checkOllama},
		{Name: "Planner model", Fn: checkModel(func(c *config.Config) string { return c.Models.Planner })},
		{Name: "Writer model", Fn: checkModel(func(c *config.Config) string { return c.Models.Writer })},
		{Name: "Search backend", Fn: checkSearchBackend},
	}

	fmt.Println("seeker doctor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name

		fmt.Printf("  [%s] %s: %s\n", result.Status, result.Name, result.Message)
		if result.Fix != "" {
			fmt.Printf("         Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Println("\nseeker should work, but consider addressing the warnings.")
	} else {
		fmt.Println("\nAll checks passed.")
	}
	return nil
}

// checkConfig verifies the config file loads and validates.
func checkConfig(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: cfgErr.Error(),
				Fix:     fmt.Sprintf("Check %s, or set SEEKER_* / TAVILY_API_KEY environment variables", cfgPath),
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusPass,
				Message: "no config file, using defaults plus environment",
			}
		}
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("loaded from %s", cfgPath)}
	}
}

// checkOllama verifies the model runtime answers on its base URL.
func checkOllama(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := llm.NewOllamaClient(cfg.Ollama, nil)
	if !client.IsHealthy(ctx) {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("no response from %s", cfg.Ollama.BaseURL),
			Fix:     "Start Ollama ('ollama serve') or point ollama.base_url at a running instance",
		}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("reachable at %s", cfg.Ollama.BaseURL)}
}

// checkModel verifies a configured model is present in the runtime.
func checkModel(pick func(*config.Config) string) func(*config.Config) CheckResult {
	return func(cfg *config.Config) CheckResult {
		if cfg == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
		}
		name := pick(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client := llm.NewOllamaClient(cfg.Ollama, nil)
		models, err := client.ListModels(ctx)
		if err != nil {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("cannot list models: %v", err),
			}
		}
		for _, m := range models {
			if m.Name == name || strings.TrimSuffix(m.Name, ":latest") == name {
				return CheckResult{Status: StatusPass, Message: name + " is installed"}
			}
		}
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found in the runtime", name),
			Fix:     fmt.Sprintf("Run 'ollama pull %s'", name),
		}
	}
}

// checkSearchBackend verifies the configured search backend is usable
// without spending a real query.
func checkSearchBackend(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	switch cfg.Search.Backend {
	case "tavily":
		if cfg.Search.APIKey == "" {
			return CheckResult{
				Status:  StatusFail,
				Message: "tavily selected but no API key set",
				Fix:     "Set TAVILY_API_KEY or search.api_key in config.yaml",
			}
		}
		return CheckResult{Status: StatusPass, Message: "tavily configured with API key"}
	case "searxng":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Search.SearXNGURL, nil)
		if err != nil {
			return CheckResult{Status: StatusFail, Message: fmt.Sprintf("bad searxng_url: %v", err)}
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("no response from %s", cfg.Search.SearXNGURL),
				Fix:     "Start a SearXNG instance or switch search.backend to tavily",
			}
		}
		resp.Body.Close()
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("searxng reachable at %s", cfg.Search.SearXNGURL)}
	default:
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("unknown backend %q", cfg.Search.Backend)}
	}
}
