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

// OpenAIClient is adapted from the teacher's OpenAIClient chat-completions
// shape.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient builds a client. baseURL defaults to the public API when
// empty.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{apiKey: apiKey, baseURL: baseURL, httpClient: &http.Client{}}
}

// Name implements Driver.
func (c *OpenAIClient) Name() string { return "openai" }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Driver through completeOpenAICompatible, an
// unexported helper that Groq (an OpenAI-compatible API) reuses with a
// different base URL.
func (c *OpenAIClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	return completeOpenAICompatible(ctx, c.httpClient, c.baseURL, c.apiKey, "openai", model, systemMessage, prompt, opts)
}

func completeOpenAICompatible(ctx context.Context, httpClient *http.Client, baseURL, apiKey, providerName, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	if apiKey == "" {
		return CallResult{}, &CallError{Err: fmt.Errorf("%s API key not configured", providerName), Retriable: false}
	}

	messages := []openAIMessage{}
	if systemMessage != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemMessage})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})

	reqBody := openAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to marshal %s request: %w", providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to create %s request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return CallResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallResult{}, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return CallResult{}, classifyHTTPError(resp.StatusCode, parseRetryAfter(resp), fmt.Errorf("%s request failed with status %d: %s", providerName, resp.StatusCode, string(body)))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CallResult{}, fmt.Errorf("failed to parse %s response: %w", providerName, err)
	}
	if parsed.Error != nil {
		return CallResult{}, fmt.Errorf("%s API error: %s", providerName, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return CallResult{}, fmt.Errorf("%s returned no completion", providerName)
	}

	return CallResult{
		Content:         strings.TrimSpace(parsed.Choices[0].Message.Content),
		TokensGenerated: parsed.Usage.CompletionTokens,
		Duration:        time.Since(start),
	}, nil
}
