package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"seeker-ai/internal/adapter/llm"
	"seeker-ai/internal/adapter/search"
	"seeker-ai/internal/adapter/tui/chat"
	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/config"
	"seeker-ai/internal/infra/logger"
	"seeker-ai/internal/infra/tracer"
	"seeker-ai/internal/usecase"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := runChat(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "ask":
		if err := runAsk(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "ask: %v\n", err)
			os.Exit(1)
		}
	case "chat":
		if err := runChat(); err != nil {
			fmt.Fprintf(os.Stderr, "chat: %v\n", err)
			os.Exit(1)
		}
	case "doctor":
		if err := runDoctor(); err != nil {
			fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'seeker --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`seeker - local question answering over web search

USAGE:
    seeker [COMMAND] [FLAGS]

COMMANDS:
    ask QUESTION    Answer one question and print the result
    chat            Launch the interactive terminal session
    doctor          Run health checks on your setup

    (no command) - same as 'chat'

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ~/.seeker/config.yaml)

CONFIGURATION:
    Config file: ~/.seeker/config.yaml
    Environment: SEEKER_* variables override config,
                 TAVILY_API_KEY supplies the search key

EXAMPLES:
    seeker ask "What is the boiling point of water?"
    seeker chat
    SEEKER_SEARCH_BACKEND=searxng seeker ask "latest Go release"
    seeker doctor`)
}

// configPath resolves --config from os.Args, falling back to the default.
func configPath() string {
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			return os.Args[i+1]
		case strings.HasPrefix(os.Args[i], "--config="):
			return strings.TrimPrefix(os.Args[i], "--config=")
		}
	}
	return config.DefaultPath()
}

// app bundles everything built from config.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	pipeline *usecase.Pipeline
	ollama   *llm.OllamaClient
	shutdown func(context.Context) error
	closeLog func() error
}

// buildApp wires config, logging, tracing, adapters, and the pipeline.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	ollama := llm.NewOllamaClient(cfg.Ollama, log)

	backend, err := newSearchBackend(cfg, log)
	if err != nil {
		closeLog()
		return nil, err
	}

	planner, err := usecase.NewPlanner(ollama, usecase.PlannerConfig{
		Model:       cfg.Models.Planner,
		MaxQueries:  cfg.Pipeline.MaxQueries,
		Temperature: cfg.Pipeline.Temperature,
	}, log)
	if err != nil {
		closeLog()
		return nil, err
	}

	executor := usecase.NewExecutor(backend, usecase.ExecutorConfig{
		MaxParallel: cfg.Pipeline.MaxParallel,
		MaxResults:  cfg.Search.MaxResults,
		Timeout:     cfg.Search.Timeout,
	}, log)

	writer := usecase.NewWriter(ollama, usecase.WriterConfig{
		Model:         cfg.Models.Writer,
		NumCtx:        cfg.Ollama.NumCtx,
		ReserveTokens: cfg.Pipeline.ReserveTokens,
		Temperature:   cfg.Pipeline.Temperature,
	}, usecase.NewTokenCounter(log), log)

	return &app{
		cfg:      cfg,
		log:      log,
		pipeline: usecase.NewPipeline(planner, executor, writer, log),
		ollama:   ollama,
		shutdown: shutdown,
		closeLog: closeLog,
	}, nil
}

func newSearchBackend(cfg *config.Config, log *slog.Logger) (domain.SearchProvider, error) {
	var backend domain.SearchProvider
	switch cfg.Search.Backend {
	case "tavily":
		backend = search.NewTavilyBackend(cfg.Search.APIKey, cfg.Search.TavilyURL, cfg.Search.Timeout, log)
	case "searxng":
		backend = search.NewSearXNGBackend(cfg.Search.SearXNGURL, cfg.Search.Timeout, log)
	default:
		return nil, fmt.Errorf("%w: unknown search backend %q", domain.ErrConfig, cfg.Search.Backend)
	}
	return search.NewRateLimited(backend, cfg.Search.RatePerMinute, cfg.Pipeline.MaxParallel), nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdown != nil {
		_ = a.shutdown(ctx)
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// questionFromArgs joins the non-flag tokens into the question. A bare
// --config consumes the following token as its value.
func questionFromArgs(args []string) string {
	var parts []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" {
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-") {
			continue
		}
		parts = append(parts, args[i])
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// runAsk answers a single question and prints the Markdown to stdout.
func runAsk(args []string) error {
	question := questionFromArgs(args)
	if question == "" {
		return fmt.Errorf("usage: seeker ask \"your question\"")
	}

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	answer, err := a.pipeline.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer.Markdown)
	return nil
}

// runChat launches the interactive TUI.
func runChat() error {
	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	// Load the planner model ahead of the first question so the first
	// keystroke-to-answer latency stays reasonable.
	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_ = a.ollama.Warmup(warmCtx, a.cfg.Models.Planner)
	cancel()

	return chat.Run(chat.ModelDeps{
		Asker:       a.pipeline,
		Logger:      a.log,
		PlannerName: a.cfg.Models.Planner,
		WriterName:  a.cfg.Models.Writer,
	})
}
