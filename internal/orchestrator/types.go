// Package orchestrator implements the Generation Orchestrator (C5): the
// single coherent pipeline that turns meeting notes into a validated
// artifact, trying the preferred cloud model, then local candidates, then a
// cloud fallback ladder, per spec.md §4.5.
package orchestrator

import (
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/modelregistry"
)

// Error kinds surfaced on a terminal (non-success) GenerationResult, per
// spec.md §7.
const (
	ErrorNoModelsAvailable = "no_models_available"
	ErrorAllAttemptsFailed = "all_attempts_failed"
)

// Options carries the per-call generation parameters from spec.md §4.5.
type Options struct {
	Temperature        float64
	MaxRetriesPerModel int
	ValidationThreshold int
	UseValidation      bool
	CloudMaxTokens     int
	LocalContextWindow int
}

// Attempt records one provider call, successful or not, in the order tried.
type Attempt struct {
	Model      string        `json:"model"`
	Provider   string        `json:"provider"`
	Content    string        `json:"content,omitempty"`
	Score      int           `json:"score,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	RetryIndex int           `json:"retry_index"`
	Duration   time.Duration `json:"duration"`
	Notes      string        `json:"notes,omitempty"`
}

// GenerationResult is the sum-type-flavored outcome of Generate: the
// success/best-effort/failure states are distinguished by Success and
// IsValid together rather than by a single ambiguous boolean, per spec.md
// §9's "Best attempt" design note.
type GenerationResult struct {
	Success        bool                         `json:"success"`
	Content        string                       `json:"content,omitempty"`
	ModelUsed      string                       `json:"model_used,omitempty"`
	Provider       string                       `json:"provider,omitempty"`
	Score          int                          `json:"score,omitempty"`
	IsValid        bool                         `json:"is_valid"`
	Attempts       []Attempt                    `json:"attempts"`
	Warning        string                       `json:"warning,omitempty"`
	ArtifactID     string                       `json:"artifact_id,omitempty"`
	ErrorType      string                       `json:"error_type,omitempty"`
	ProviderStats  map[string]ProviderCallStats `json:"provider_attempts,omitempty"`
}

// ProviderCallStats accumulates per-provider cloud-call telemetry for one
// Generate call, per spec.md §5's "Shared resources": "cloud-call
// rate-limit hits increment per-provider counters for UI telemetry."
type ProviderCallStats struct {
	Attempts    int `json:"attempts"`
	RateLimited int `json:"rate_limited"`
	Errors      int `json:"errors"`
}

// ProgressFunc receives coarse-grained progress checkpoints. Callbacks are
// best-effort: a panicking or slow callback MUST NOT fail generation.
type ProgressFunc func(progress int, message string)

// PoolSink is the C6 collaborator generation submits high-scoring examples
// to. Implemented by *finetunepool.Pool.
type PoolSink interface {
	AddExample(t artifacttype.Name, content, meetingNotes string, score int, modelUsed, source string) error
}

// GraphRegistrar is the C8 collaborator generation registers successful
// artifacts with. Implemented by *depgraph.Graph.
type GraphRegistrar interface {
	RegisterArtifact(id string, t artifacttype.Name, content string, metadata map[string]string) error
}

// Renderer produces an HTML companion document for a Mermaid artifact.
// Best-effort: a rendering failure must never fail the generation call.
type Renderer interface {
	RenderHTML(content string, t artifacttype.Name) (string, error)
}

// VRAMUnloader releases a local model from memory after a generation call,
// unless the model is in the configured persistent set.
type VRAMUnloader interface {
	Unload(modelID string) error
}

// providerModel pairs a provider with a bare model name for driver calls.
type providerModel struct {
	Provider modelregistry.Provider
	ModelID  string // fully-qualified, e.g. "gemini:gemini-2.5-flash"
}
