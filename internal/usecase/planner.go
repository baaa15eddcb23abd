package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/tracer"
)

// PlannerConfig holds tunables for the query planning stage.
type PlannerConfig struct {
	Model       string
	MaxQueries  int
	Temperature float64
}

// Planner expands a user question into a small set of web-search queries
// using a structured model call. The model is constrained to the query plan
// schema at generation time, and its output is validated again locally
// before anything downstream sees it.
type Planner struct {
	llm    domain.LLMProvider
	cfg    PlannerConfig
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewPlanner(llm domain.LLMProvider, cfg PlannerConfig, logger *slog.Logger) (*Planner, error) {
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(queryPlanSchema))
	if err != nil {
		return nil, fmt.Errorf("compile query plan schema: %w", err)
	}
	return &Planner{llm: llm, cfg: cfg, schema: schema, logger: logger}, nil
}

// Plan produces 1 to MaxQueries search queries for the question. A reply
// that does not match the schema gets exactly one corrective retry; a
// second malformed reply fails with a FormatError carrying the raw output.
func (p *Planner) Plan(ctx context.Context, question string) (domain.QueryPlan, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.QueryPlan{}, domain.ErrEmptyQuestion
	}

	ctx, span := tracer.StartSpan(ctx, "pipeline.plan")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("llm.model", p.cfg.Model))

	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: plannerSystemPrompt},
		{Role: domain.RoleUser, Content: buildPlannerPrompt(question, p.cfg.MaxQueries)},
	}

	raw, err := p.generate(ctx, messages)
	if err != nil {
		tracer.RecordError(span, err)
		return domain.QueryPlan{}, err
	}

	plan, perr := p.parse(raw)
	if perr != nil {
		p.logger.Warn("query plan malformed, retrying once",
			"model", p.cfg.Model, "error", perr)
		messages = append(messages,
			domain.Message{Role: domain.RoleAssistant, Content: raw},
			domain.Message{Role: domain.RoleUser, Content: buildCorrectivePrompt(raw)},
		)
		raw, err = p.generate(ctx, messages)
		if err != nil {
			tracer.RecordError(span, err)
			return domain.QueryPlan{}, err
		}
		plan, perr = p.parse(raw)
		if perr != nil {
			tracer.RecordError(span, perr)
			return domain.QueryPlan{}, perr
		}
	}

	span.SetAttributes(tracer.IntAttr("plan.queries", len(plan.Queries)))
	tracer.SetOK(span)
	return plan, nil
}

func (p *Planner) generate(ctx context.Context, messages []domain.Message) (string, error) {
	resp, err := p.llm.Chat(ctx, domain.ChatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Format:      json.RawMessage(queryPlanSchema),
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("planner chat: %w", err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// parse validates a raw model reply against the query plan schema and
// normalizes it: whitespace trimmed, empty and duplicate queries dropped,
// the list clamped to MaxQueries.
func (p *Planner) parse(raw string) (domain.QueryPlan, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return domain.QueryPlan{}, &domain.FormatError{Raw: raw, Reason: "empty output"}
	}

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.QueryPlan{}, &domain.FormatError{Raw: raw, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if result := p.schema.Validate(parsed); !result.IsValid() {
		return domain.QueryPlan{}, &domain.FormatError{Raw: raw, Reason: fmt.Sprintf("schema violation: %v", result.Error())}
	}

	var plan domain.QueryPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return domain.QueryPlan{}, &domain.FormatError{Raw: raw, Reason: fmt.Sprintf("decode plan: %v", err)}
	}

	seen := make(map[string]bool, len(plan.Queries))
	queries := plan.Queries[:0]
	for _, q := range plan.Queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return domain.QueryPlan{}, &domain.FormatError{Raw: raw, Reason: "no usable queries"}
	}
	if len(queries) > p.cfg.MaxQueries {
		queries = queries[:p.cfg.MaxQueries]
	}
	return domain.QueryPlan{Queries: queries}, nil
}

// codeFenceRe matches markdown code fences wrapping JSON.
var codeFenceRe = regexp.MustCompile(`(?si)^` + "```" + `(?:json)?\s*(.*?)\s*` + "```" + `$`)

// stripCodeFences removes markdown code fences if the model wrapped its output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}
