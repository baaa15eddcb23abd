package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seeker-ai/internal/domain"
)

func newTestPlanner(t *testing.T, llm domain.LLMProvider) *Planner {
	t.Helper()
	p, err := NewPlanner(llm, PlannerConfig{Model: "test-model", MaxQueries: 3}, newTestLogger())
	require.NoError(t, err)
	return p
}

func TestPlannerValidPlan(t *testing.T) {
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant(`{"queries": ["water boiling point sea level", "boiling point everest altitude"]}`),
	}}
	p := newTestPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "What is the boiling point of water?")
	require.NoError(t, err)
	assert.Equal(t, []string{"water boiling point sea level", "boiling point everest altitude"}, plan.Queries)
	assert.Equal(t, 1, llm.calls())

	// The structured output constraint must ride along on the request.
	req := llm.request(0)
	assert.Equal(t, "test-model", req.Model)
	assert.JSONEq(t, queryPlanSchema, string(req.Format))
}

func TestPlannerStripsCodeFences(t *testing.T) {
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant("```json\n{\"queries\": [\"golang context cancellation\"]}\n```"),
	}}
	p := newTestPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "How does context cancellation work in Go?")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang context cancellation"}, plan.Queries)
}

func TestPlannerCorrectiveRetry(t *testing.T) {
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant(`Sure! Here are some queries you could use.`),
		assistant(`{"queries": ["rust borrow checker explained"]}`),
	}}
	p := newTestPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "What is the borrow checker?")
	require.NoError(t, err)
	assert.Equal(t, []string{"rust borrow checker explained"}, plan.Queries)
	require.Equal(t, 2, llm.calls())

	// The retry conversation must contain the rejected output verbatim.
	retry := llm.request(1)
	require.Len(t, retry.Messages, 4)
	assert.Equal(t, domain.RoleAssistant, retry.Messages[2].Role)
	assert.Contains(t, retry.Messages[3].Content, "Sure! Here are some queries")
}

func TestPlannerFormatErrorAfterRetry(t *testing.T) {
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant(`not json at all`),
		assistant(`{"queries": []}`),
	}}
	p := newTestPlanner(t, llm)

	_, err := p.Plan(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFormat)

	var ferr *domain.FormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, `{"queries": []}`, ferr.Raw)
	assert.Equal(t, 2, llm.calls())
}

func TestPlannerEmptyQuestion(t *testing.T) {
	llm := &mockLLM{}
	p := newTestPlanner(t, llm)

	_, err := p.Plan(context.Background(), "   \n\t ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	assert.Zero(t, llm.calls(), "no model call for an empty question")
}

func TestPlannerClampsAndDedupes(t *testing.T) {
	// maxItems in the schema is 3, so an overlong list arrives only via
	// duplicates collapsing below the cap after normalization.
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant(`{"queries": ["kubernetes operators", "  kubernetes operators ", "Kubernetes Operators"]}`),
	}}
	p := newTestPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "What are Kubernetes operators?")
	require.NoError(t, err)
	assert.Equal(t, []string{"kubernetes operators"}, plan.Queries)
}

func TestPlannerProviderError(t *testing.T) {
	llm := &mockLLM{err: domain.ErrProviderUnreachable}
	p := newTestPlanner(t, llm)

	_, err := p.Plan(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrProviderUnreachable)
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct{ input, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.input); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPlannerSchemaRejectsWrongShape(t *testing.T) {
	llm := &mockLLM{responses: []domain.ChatResponse{
		assistant(`{"queries": "single string not array"}`),
		assistant(`{"queries": ["ok"]}`),
	}}
	p := newTestPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, plan.Queries)

	var hasCorrective bool
	for _, m := range llm.request(1).Messages {
		if strings.Contains(m.Content, "not valid JSON") {
			hasCorrective = true
		}
	}
	assert.True(t, hasCorrective)
}

func TestPlannerChatErrorOnRetry(t *testing.T) {
	first := assistant(`garbage`)
	llm := &mockLLM{responses: []domain.ChatResponse{first}}
	p := newTestPlanner(t, llm)

	_, err := p.Plan(context.Background(), "anything")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrFormat), "exhausted script surfaces as a chat error, not a format error")
}
