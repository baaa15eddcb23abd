package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"seeker-ai/internal/domain"
)

// maxSearchBodySize caps the response body we read from search APIs.
const maxSearchBodySize = 512 * 1024 // 512KB

const defaultTavilyURL = "https://api.tavily.com/search"

// Compile-time interface assertion.
var _ domain.SearchProvider = (*TavilyBackend)(nil)

// TavilyBackend searches the web via the Tavily API.
type TavilyBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewTavilyBackend creates a Tavily search backend. baseURL may be empty to
// use the public endpoint.
func NewTavilyBackend(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *TavilyBackend {
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TavilyBackend{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (b *TavilyBackend) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (b *TavilyBackend) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:      b.apiKey,
		Query:       query,
		MaxResults:  count,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var tavResp tavilyResponse
	if err := json.Unmarshal(body, &tavResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(tavResp.Results))
	for _, r := range tavResp.Results {
		if len(results) >= count {
			break
		}
		results = append(results, domain.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}

	b.logger.Debug("tavily search completed", "query", query, "results", len(results))
	return results, nil
}
