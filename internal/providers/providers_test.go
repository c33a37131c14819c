package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "erDiagram\nUSER ||--o{ ORDER : places"}},
			"usage":   map[string]int{"output_tokens": 12},
		})
	}))
	defer srv.Close()

	client := NewAnthropicClient("test-key", srv.URL)
	result, err := client.Complete(context.Background(), "claude-sonnet", "system", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "erDiagram")
	assert.Equal(t, 12, result.TokensGenerated)
}

func TestAnthropicCompleteMissingAPIKeyIsTerminal(t *testing.T) {
	client := NewAnthropicClient("", "http://unused")
	_, err := client.Complete(context.Background(), "model", "", "prompt", CallOptions{})
	require.Error(t, err)
	assert.False(t, IsRetriable(err))
}

func TestAnthropicComplete429IsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), "model", "", "prompt", CallOptions{})
	require.Error(t, err)
	assert.True(t, IsRetriable(err))
	assert.Equal(t, 2*time.Second, RetryAfterOf(err))
	assert.Equal(t, http.StatusTooManyRequests, StatusCodeOf(err))
}

func TestOpenAICompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": "GET /users"}}},
			"usage":   map[string]int{"completion_tokens": 5},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL)
	result, err := client.Complete(context.Background(), "gpt-4o", "", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "GET /users", result.Content)
}

func TestOpenAICompleteServerErrorIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), "gpt-4o", "", "prompt", CallOptions{})
	require.Error(t, err)
	assert.True(t, IsRetriable(err))
}

func TestGroqReusesOpenAIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	client := NewGroqClient("test-key", srv.URL)
	result, err := client.Complete(context.Background(), "llama-3.1-70b", "", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content)
}

func TestGeminiCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "key=test-key")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{"parts": []map[string]string{{"text": "flowchart TD\nA-->B"}}},
			}},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", srv.URL)
	result, err := client.Complete(context.Background(), "gemini-2.5-flash", "", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "flowchart")
}

func TestOllamaCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "erDiagram\nUSER ||--o{ ORDER : places",
			"done":     true,
		})
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL)
	result, err := client.Complete(context.Background(), "llama3", "", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "erDiagram")
}

func TestOllamaListTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "llama3:8b"}, {"name": "mistral:7b"}},
		})
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL)
	tags, err := client.ListTags(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"llama3:8b", "mistral:7b"}, tags)
}

func TestHuggingFaceHasLocalSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir+"/models--meta-llama--Llama-3.1-8B", 0o755))

	client := NewHuggingFaceClient(dir, "")
	assert.True(t, client.HasLocalSnapshot("meta-llama/Llama-3.1-8B"))
	assert.False(t, client.HasLocalSnapshot("missing/repo"))
}

func TestHuggingFaceCompleteWithoutScriptIsTerminal(t *testing.T) {
	client := NewHuggingFaceClient(t.TempDir(), "")
	_, err := client.Complete(context.Background(), "any-model", "", "prompt", CallOptions{})
	require.Error(t, err)
	assert.False(t, IsRetriable(err))
}

func TestBackoffPolicyHonorsRetryAfter(t *testing.T) {
	p := DefaultBackoffPolicy()
	assert.Equal(t, 2*time.Second, p.NextDelay(0, 2*time.Second))
}

func TestBackoffPolicyExponentialWithCap(t *testing.T) {
	p := BackoffPolicy{Base: time.Second, Cap: 10 * time.Second, MaxAttempts: 5}
	delay := p.NextDelay(10, 0) // would be enormous without the cap
	assert.LessOrEqual(t, delay, 10*time.Second)
}
