package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"seeker-ai/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLLM returns scripted responses in order and records every request.
type mockLLM struct {
	mu        sync.Mutex
	responses []domain.ChatResponse
	err       error
	requests  []domain.ChatRequest
}

func (m *mockLLM) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mockLLM: no scripted response for call %d", len(m.requests))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return &resp, nil
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockLLM) request(i int) domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

func assistant(content string) domain.ChatResponse {
	return domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: content}}
}

// mockSearch serves canned results per query, or a shared error.
type mockSearch struct {
	mu      sync.Mutex
	results map[string][]domain.SearchResult
	errs    map[string]error
	err     error
	hook    func(ctx context.Context, query string) // called before answering
	queries []string
}

func (m *mockSearch) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	if m.hook != nil {
		m.hook(ctx, query)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if err := m.errs[query]; err != nil {
		return nil, err
	}
	results := m.results[query]
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

func (m *mockSearch) Name() string { return "mock" }

func result(n int) domain.SearchResult {
	return domain.SearchResult{
		Title:   fmt.Sprintf("Result %d", n),
		URL:     fmt.Sprintf("https://example.com/%d", n),
		Snippet: fmt.Sprintf("Snippet number %d.", n),
	}
}
