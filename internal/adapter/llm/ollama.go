package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"seeker-ai/internal/domain"
	"seeker-ai/internal/infra/config"
	"seeker-ai/internal/infra/tracer"
)

// Compile-time interface assertion.
var _ domain.LLMProvider = (*OllamaClient)(nil)

// Default Ollama timeouts: short connect (local), long response (model loading).
const (
	defaultConnTimeout = 5 * time.Second
	defaultRespTimeout = 300 * time.Second
)

// maxResponseBody is the maximum response body size we read from the runtime.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// OllamaClient talks to a local Ollama runtime over its native API.
// One client serves every model on the host; ChatRequest.Model selects the
// model per call. Structured output is requested through the API's "format"
// field carrying a JSON Schema.
type OllamaClient struct {
	baseURL string
	numCtx  int
	client  *http.Client
	logger  *slog.Logger
}

// OllamaModel describes a locally available Ollama model.
type OllamaModel struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// NewOllamaClient creates a client for the configured runtime.
func NewOllamaClient(cfg config.OllamaConfig, logger *slog.Logger) *OllamaClient {
	connTimeout := cfg.ConnTimeout
	if connTimeout == 0 {
		connTimeout = defaultConnTimeout
	}
	respTimeout := cfg.RespTimeout
	if respTimeout == 0 {
		respTimeout = defaultRespTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OllamaClient{
		baseURL: baseURL,
		numCtx:  cfg.NumCtx,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connTimeout}).DialContext,
			},
			Timeout: connTimeout + respTimeout,
		},
		logger: logger,
	}
}

// Name implements domain.LLMProvider.
func (c *OllamaClient) Name() string { return "ollama" }

// --- Ollama native API wire types ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumCtx      int      `json:"num_ctx,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	CreatedAt       time.Time     `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Chat implements domain.LLMProvider against POST /api/chat.
func (c *OllamaClient) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", c.Name()),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	numCtx := req.NumCtx
	if numCtx == 0 {
		numCtx = c.numCtx
	}

	oReq := ollamaChatRequest{
		Model:  req.Model,
		Stream: false,
		Format: req.Format,
		Options: ollamaOptions{
			NumCtx:     numCtx,
			NumPredict: req.MaxTokens,
		},
	}
	if req.Temperature > 0 {
		oReq.Options.Temperature = &req.Temperature
	}
	for _, m := range req.Messages {
		oReq.Messages = append(oReq.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(oReq)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.doJSON(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var oResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &oResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result := &domain.ChatResponse{
		Model: oResp.Model,
		Message: domain.Message{
			Role:    oResp.Message.Role,
			Content: oResp.Message.Content,
		},
		Usage: domain.Usage{
			PromptTokens:     oResp.PromptEvalCount,
			CompletionTokens: oResp.EvalCount,
			TotalTokens:      oResp.PromptEvalCount + oResp.EvalCount,
		},
		CreatedAt: oResp.CreatedAt,
	}

	span.SetAttributes(
		tracer.IntAttr("llm.prompt_tokens", result.Usage.PromptTokens),
		tracer.IntAttr("llm.completion_tokens", result.Usage.CompletionTokens),
	)
	tracer.SetOK(span)

	c.logger.Debug("chat completed",
		"model", result.Model,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
	)

	return result, nil
}

// ListModels returns the locally available Ollama models.
func (c *OllamaClient) ListModels(ctx context.Context) ([]OllamaModel, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Models []OllamaModel `json:"models"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp.Models, nil
}

// IsHealthy checks if the Ollama server is reachable.
func (c *OllamaClient) IsHealthy(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return false
	}
	httpResp.Body.Close()

	return httpResp.StatusCode == http.StatusOK
}

// Warmup sends a lightweight request to pre-load a model so the first real
// generation does not pay the load latency.
func (c *OllamaClient) Warmup(ctx context.Context, model string) error {
	if !c.IsHealthy(ctx) {
		return fmt.Errorf("%w: %s", domain.ErrProviderUnreachable, c.baseURL)
	}

	payload := fmt.Sprintf(`{"model":%q,"keep_alive":"5m"}`, model)
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/generate", []byte(payload)); err != nil {
		return fmt.Errorf("warmup %s: %w", model, err)
	}

	c.logger.Info("model warmed up", "model", model)
	return nil
}

// doJSON performs a JSON request against the native API and returns the
// response body. Non-200 responses become errors.
func (c *OllamaClient) doJSON(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	return respBody, nil
}
