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

// GeminiClient is adapted from the teacher's GeminiClient: REST
// generateContent with the API key passed as a URL query parameter and the
// snake_case-free camelCase generationConfig shape Google's API expects.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient builds a client. baseURL defaults to the public API when
// empty.
func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiClient{apiKey: apiKey, baseURL: baseURL, httpClient: &http.Client{}}
}

// Name implements Driver.
func (c *GeminiClient) Name() string { return "gemini" }

type geminiRequest struct {
	Contents          []geminiContent       `json:"contents"`
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Driver.
func (c *GeminiClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	if c.apiKey == "" {
		return CallResult{}, &CallError{Err: fmt.Errorf("gemini API key not configured"), Retriable: false}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if systemMessage != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemMessage}}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to create gemini request: %w", err)
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
		return CallResult{}, classifyHTTPError(resp.StatusCode, parseRetryAfter(resp), fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CallResult{}, fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if parsed.Error != nil {
		return CallResult{}, fmt.Errorf("gemini API error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return CallResult{}, fmt.Errorf("gemini returned no completion")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return CallResult{
		Content:         strings.TrimSpace(text.String()),
		TokensGenerated: parsed.UsageMetadata.CandidatesTokenCount,
		Duration:        time.Since(start),
	}, nil
}
