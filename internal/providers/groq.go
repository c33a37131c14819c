package providers

import (
	"context"
	"net/http"
)

// GroqClient reuses the OpenAI-compatible request/response shape, the same
// aliasing trick the teacher's XAIClient uses for xAI (itself
// OpenAI-compatible): no new struct types, just a different base URL.
type GroqClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGroqClient builds a client. baseURL defaults to Groq's OpenAI-
// compatible endpoint when empty.
func NewGroqClient(apiKey, baseURL string) *GroqClient {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqClient{apiKey: apiKey, baseURL: baseURL, httpClient: &http.Client{}}
}

// Name implements Driver.
func (c *GroqClient) Name() string { return "groq" }

// Complete implements Driver.
func (c *GroqClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	return completeOpenAICompatible(ctx, c.httpClient, c.baseURL, c.apiKey, "groq", model, systemMessage, prompt, opts)
}
