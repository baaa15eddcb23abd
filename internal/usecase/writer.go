package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/tracer"
)

// minDigestTokens is the digest floor when the prompt scaffold alone
// exhausts the context budget. The prompt will run over in that case, but
// the answer still gets some retrieved context instead of an untrimmed
// digest that overflows far worse.
const minDigestTokens = 64

// WriterConfig holds tunables for the answer generation stage.
type WriterConfig struct {
	Model         string
	NumCtx        int
	ReserveTokens int
	Temperature   float64
}

// Writer turns a question plus retrieved search results into a cited
// Markdown answer. Sources are numbered in plan order with duplicate URLs
// collapsed, and the digest is token-trimmed so the prompt fits the model
// context window with room left for the completion.
type Writer struct {
	llm     domain.LLMProvider
	cfg     WriterConfig
	counter *TokenCounter
	logger  *slog.Logger
}

func NewWriter(llm domain.LLMProvider, cfg WriterConfig, counter *TokenCounter, logger *slog.Logger) *Writer {
	if cfg.NumCtx <= 0 {
		cfg.NumCtx = 3072
	}
	if cfg.ReserveTokens <= 0 {
		cfg.ReserveTokens = 512
	}
	if counter == nil {
		counter = NewTokenCounter(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{llm: llm, cfg: cfg, counter: counter, logger: logger}
}

// Write generates the final answer. With zero usable sources it still
// produces an answer, flagged as ungrounded, rather than failing.
func (w *Writer) Write(ctx context.Context, question string, plan domain.QueryPlan, results domain.ResultSet) (*domain.Answer, error) {
	ctx, span := tracer.StartSpan(ctx, "pipeline.write")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("llm.model", w.cfg.Model))

	sources := collectSources(plan, results)
	span.SetAttributes(tracer.IntAttr("write.sources", len(sources)))

	digest := noSourcesDigest
	if len(sources) > 0 {
		digest = buildDigest(sources)
	} else {
		w.logger.Warn("no sources retrieved, answering from model knowledge")
	}

	// Everything except the digest is fixed cost; the digest absorbs
	// whatever budget remains.
	scaffold := writerSystemPrompt + buildWriterPrompt(question, "")
	budget := w.cfg.NumCtx - w.cfg.ReserveTokens - w.counter.Count(scaffold)
	if budget < minDigestTokens {
		w.logger.Warn("prompt scaffold leaves no digest budget, clamping",
			"budget_tokens", budget, "num_ctx", w.cfg.NumCtx)
		budget = minDigestTokens
	}
	if w.counter.Count(digest) > budget {
		w.logger.Debug("truncating digest to fit context window",
			"budget_tokens", budget, "num_ctx", w.cfg.NumCtx)
		digest = w.counter.Truncate(digest, budget)
	}

	resp, err := w.llm.Chat(ctx, domain.ChatRequest{
		Model: w.cfg.Model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: writerSystemPrompt},
			{Role: domain.RoleUser, Content: buildWriterPrompt(question, digest)},
		},
		NumCtx:      w.cfg.NumCtx,
		Temperature: w.cfg.Temperature,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("writer chat: %w", err)
	}

	content := strings.TrimSpace(stripThinkBlocks(resp.Message.Content))
	if content == "" {
		err := fmt.Errorf("writer returned empty output")
		tracer.RecordError(span, err)
		return nil, err
	}

	markdown := content
	if len(sources) > 0 {
		markdown += "\n\n" + formatSources(sources)
	}

	tracer.SetOK(span)
	return &domain.Answer{Markdown: markdown, Sources: sources}, nil
}

// collectSources flattens the result set into a numbered source list. Plan
// order keeps numbering deterministic even though ResultSet is a map, and
// the first occurrence of a URL wins.
func collectSources(plan domain.QueryPlan, results domain.ResultSet) []domain.SearchResult {
	var sources []domain.SearchResult
	seen := make(map[string]bool)
	for _, query := range plan.Queries {
		for _, r := range results[query] {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			sources = append(sources, r)
		}
	}
	return sources
}

// buildDigest renders sources as a numbered block the writer prompt can
// cite. Tags match the numbering used in formatSources.
func buildDigest(sources []domain.SearchResult) string {
	var sb strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s\n\n", i+1, s.Title, s.URL, s.Snippet)
	}
	return strings.TrimSpace(sb.String())
}

func formatSources(sources []domain.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("## Sources\n\n")
	for i, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(&sb, "[%d] - [%s](%s)\n", i+1, title, s.URL)
	}
	return strings.TrimSpace(sb.String())
}

// thinkBlockRe matches reasoning traces emitted by thinking models.
var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkBlocks removes <think>...</think> traces so only the answer
// remains in the rendered Markdown.
func stripThinkBlocks(s string) string {
	return thinkBlockRe.ReplaceAllString(s, "")
}
