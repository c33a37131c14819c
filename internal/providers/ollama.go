package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient talks to a local Ollama daemon over its REST API
// (/api/generate, /api/tags, /api/show). The teacher has no local-HTTP
// provider of its own shape to adapt beyond the general HTTP-client
// skeleton its cloud clients share, so this driver follows that same
// skeleton against Ollama's (simpler, unauthenticated) request/response
// shape.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient builds a client against baseURL, e.g.
// "http://localhost:11434".
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: &http.Client{}}
}

// Name implements Driver.
func (c *OllamaClient) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	EvalCount int   `json:"eval_count"`
}

// Complete implements Driver by calling /api/generate with streaming
// disabled.
func (c *OllamaClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	reqBody := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		System: systemMessage,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumCtx:      opts.ContextWindow,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		return CallResult{}, classifyHTTPError(resp.StatusCode, 0, fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CallResult{}, fmt.Errorf("failed to parse ollama response: %w", err)
	}

	return CallResult{
		Content:         strings.TrimSpace(parsed.Response),
		TokensGenerated: parsed.EvalCount,
		Duration:        time.Since(start),
	}, nil
}

// ListTags queries /api/tags, used by C3's model-status probe to confirm
// the daemon is reachable and to discover locally-pulled models.
func (c *OllamaClient) ListTags(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, 0, fmt.Errorf("ollama /api/tags failed with status %d", resp.StatusCode))
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ollama tags response: %w", err)
	}

	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Unload asks Ollama to evict model from VRAM immediately by issuing a
// zero-keep_alive generate call with no prompt, per spec.md §5's "Unload a
// just-used local model from VRAM unless it is in a configured persistent
// set."
func (c *OllamaClient) Unload(ctx context.Context, model string) error {
	reqBody := map[string]interface{}{"model": model, "keep_alive": 0}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal ollama unload request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create ollama unload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return classifyHTTPError(resp.StatusCode, 0, fmt.Errorf("ollama unload failed with status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}

// Create invokes Ollama's /api/create with a Modelfile body, used by C7's
// Modelfile fine-tuning path.
func (c *OllamaClient) Create(ctx context.Context, name, modelfile string) error {
	reqBody := map[string]string{"name": name, "modelfile": modelfile}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal ollama create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/create", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create ollama create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return classifyHTTPError(resp.StatusCode, 0, fmt.Errorf("ollama create failed with status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}
