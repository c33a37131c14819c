package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AnthropicClient is adapted nearly verbatim from the teacher's
// AnthropicClient: same request/response shape, same header scheme, same
// retry-hint translation.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicClient builds a client. baseURL defaults to the public API
// when empty.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Name implements Driver.
func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Driver.
func (c *AnthropicClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	if c.apiKey == "" {
		return CallResult{}, &CallError{Err: fmt.Errorf("anthropic API key not configured"), Retriable: false}
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	reqBody := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      systemMessage,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to create anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CallResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallResult{}, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return CallResult{}, classifyHTTPError(resp.StatusCode, parseRetryAfter(resp), fmt.Errorf("anthropic request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CallResult{}, fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return CallResult{}, fmt.Errorf("anthropic API error: %s", parsed.Error.Message)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return CallResult{
		Content:         strings.TrimSpace(text.String()),
		TokensGenerated: parsed.Usage.OutputTokens,
		Duration:        time.Since(start),
	}, nil
}

// parseRetryAfter reads the Retry-After header, interpreting it as
// seconds. Returns 0 if absent or unparseable.
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
