// Package providers implements hand-rolled HTTP clients for each model
// backend, one file per provider family, adapted from the teacher's
// internal/perception client shapes: a per-provider Config/Request/Response
// struct trio plus a Complete method, with errors translated into
// retriable/status/retry-after hints the orchestrator can act on.
package providers

import (
	"context"
	"net/http"
	"time"
)

// CallOptions carries per-call generation parameters.
type CallOptions struct {
	Temperature   float64
	MaxTokens     int
	ContextWindow int
	Timeout       time.Duration
}

// CallResult is what every driver returns on success.
type CallResult struct {
	Content         string
	TokensGenerated int
	Duration        time.Duration
}

// CallError wraps a failed call with retry hints the orchestrator's
// backoff loop consults directly, mirroring spec.md §6's driver contract:
// "{retriable, status_code?, retry_after?}".
type CallError struct {
	Err        error
	Retriable  bool
	StatusCode int
	RetryAfter time.Duration
}

func (e *CallError) Error() string { return e.Err.Error() }
func (e *CallError) Unwrap() error { return e.Err }

// Driver is implemented by every provider client: Ollama (local HTTP),
// HuggingFace (local snapshot/process), OpenAI, Anthropic, Gemini, Groq
// (HTTPS).
type Driver interface {
	Name() string
	Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error)
}

// retriableStatus reports whether an HTTP status code represents a
// transient failure worth retrying: 429 and any 5xx.
func retriableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// classifyHTTPError builds a CallError from a non-2xx HTTP response,
// honoring Retry-After when the server sent one.
func classifyHTTPError(statusCode int, retryAfter time.Duration, err error) *CallError {
	return &CallError{
		Err:        err,
		Retriable:  retriableStatus(statusCode),
		StatusCode: statusCode,
		RetryAfter: retryAfter,
	}
}

// classifyTransportError builds a CallError for connection-level failures
// (timeouts, DNS, refused connections) — always retriable.
func classifyTransportError(err error) *CallError {
	return &CallError{Err: err, Retriable: true}
}
