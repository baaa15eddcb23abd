package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/tracer"
)

// Pipeline chains the three stages of a question: plan the queries, fan out
// the searches, write the cited answer. Each Ask call is independent and
// carries its own request ID; nothing is shared across requests.
type Pipeline struct {
	planner  *Planner
	executor *Executor
	writer   *Writer
	logger   *slog.Logger
}

func NewPipeline(planner *Planner, executor *Executor, writer *Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{planner: planner, executor: executor, writer: writer, logger: logger}
}

// Ask answers a question end to end. Stage failures are wrapped with the
// stage name; search failures never abort the request, they only reduce the
// sources the writer sees.
func (p *Pipeline) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	id := newRequestID()
	log := p.logger.With("request_id", id)

	ctx, span := tracer.StartSpan(ctx, "pipeline.ask")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("request.id", id))

	started := time.Now()
	log.Info("question received", "len", len(question))

	plan, err := p.planner.Plan(ctx, question)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapStage("plan", err)
	}
	log.Info("queries planned", "count", len(plan.Queries))

	results := p.executor.Run(ctx, plan)

	answer, err := p.writer.Write(ctx, question, plan, results)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapStage("write", err)
	}
	answer.RequestID = id

	log.Info("answer ready",
		"sources", len(answer.Sources),
		"duration", time.Since(started).Round(time.Millisecond),
	)
	span.SetAttributes(tracer.IntAttr("answer.sources", len(answer.Sources)))
	tracer.SetOK(span)
	return answer, nil
}

func newRequestID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
