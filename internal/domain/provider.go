package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is sent to an LLM backend. When Format is non-nil it carries
// a JSON Schema and the backend must constrain its output to match.
type ChatRequest struct {
	Model       string          `json:"model"`
	Messages    []Message       `json:"messages"`
	Format      json.RawMessage `json:"format,omitempty"`
	NumCtx      int             `json:"num_ctx,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

// ChatResponse is returned from an LLM backend.
type ChatResponse struct {
	Model     string    `json:"model"`
	Message   Message   `json:"message"`
	Usage     Usage     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage tracks token consumption for a single generation call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMProvider is the interface for any language model backend.
type LLMProvider interface {
	// Chat sends a request and blocks until the complete response arrives
	// or ctx is done.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the backend identifier (e.g. "ollama").
	Name() string
}

// SearchProvider abstracts a web search engine.
type SearchProvider interface {
	// Search resolves a query and returns at most count ranked results.
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
	// Name returns the backend identifier (e.g. "tavily").
	Name() string
}
