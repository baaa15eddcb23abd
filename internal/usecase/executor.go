package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/tracer"
)

// ExecutorConfig holds tunables for the search fan-out stage.
type ExecutorConfig struct {
	MaxParallel int
	MaxResults  int
	Timeout     time.Duration
}

// Executor runs every planned query against the search backend with bounded
// parallelism. A failed query degrades to an empty result list instead of
// failing the request, so the answer stage always has something to work with.
type Executor struct {
	search domain.SearchProvider
	cfg    ExecutorConfig
	logger *slog.Logger
}

func NewExecutor(search domain.SearchProvider, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 3
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{search: search, cfg: cfg, logger: logger}
}

// Run searches every query in the plan and returns a ResultSet whose key set
// is exactly the plan's query set. Run never returns an error: per-query
// failures are logged and mapped to empty slices.
func (e *Executor) Run(ctx context.Context, plan domain.QueryPlan) domain.ResultSet {
	ctx, span := tracer.StartSpan(ctx, "pipeline.search")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("search.backend", e.search.Name()),
		tracer.IntAttr("search.queries", len(plan.Queries)),
	)

	type outcome struct {
		results []domain.SearchResult
		err     error
	}
	outcomes := make([]outcome, len(plan.Queries))

	jobs := make(chan int)
	workers := e.cfg.MaxParallel
	if workers > len(plan.Queries) {
		workers = len(plan.Queries)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results, err := e.searchOne(ctx, plan.Queries[i])
				outcomes[i] = outcome{results: results, err: err}
			}
		}()
	}
	for i := range plan.Queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	set := make(domain.ResultSet, len(plan.Queries))
	total := 0
	for i, query := range plan.Queries {
		if outcomes[i].err != nil {
			e.logger.Warn("search degraded to empty results",
				"query", query, "backend", e.search.Name(), "error", outcomes[i].err)
			set[query] = []domain.SearchResult{}
			continue
		}
		results := outcomes[i].results
		if results == nil {
			results = []domain.SearchResult{}
		}
		set[query] = results
		total += len(results)
	}

	span.SetAttributes(tracer.IntAttr("search.results", total))
	tracer.SetOK(span)
	return set
}

func (e *Executor) searchOne(ctx context.Context, query string) ([]domain.SearchResult, error) {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	results, err := e.search.Search(qctx, query, e.cfg.MaxResults)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %q after %s", domain.ErrSearchTimeout, query, e.cfg.Timeout)
		}
		return nil, err
	}
	return results, nil
}
