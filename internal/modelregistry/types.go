// Package modelregistry implements the model registry and per-artifact
// router (C3): tracked models, their live status, and ordered candidate
// lists per artifact type.
package modelregistry

import (
	"fmt"

	"github.com/localforge/artisan/internal/artifacttype"
)

// Provider identifies a model backend.
type Provider string

const (
	Ollama      Provider = "ollama"
	HuggingFace Provider = "huggingface"
	OpenAI      Provider = "openai"
	Anthropic   Provider = "anthropic"
	Gemini      Provider = "gemini"
	Groq        Provider = "groq"
)

// CloudProviders lists the providers that require an API key.
var CloudProviders = map[Provider]bool{
	OpenAI:    true,
	Anthropic: true,
	Gemini:    true,
	Groq:      true,
}

// Status reflects a model's current reachability.
type Status string

const (
	StatusKnown      Status = "known"
	StatusDownloading Status = "downloading"
	StatusDownloaded Status = "downloaded"
	StatusAvailable  Status = "available"
	StatusNoAPIKey   Status = "no_api_key"
	StatusError      Status = "error"
)

// ModelInfo describes one tracked model. Identity is ID; the Registry
// exclusively owns the id→ModelInfo mapping, though per-model Status may be
// updated by the Router after a probe.
type ModelInfo struct {
	ID           string                    `json:"id"` // "<provider>:<name>"
	Name         string                    `json:"name"`
	Provider     Provider                  `json:"provider"`
	Status       Status                    `json:"status"`
	IsFineTuned  bool                      `json:"is_fine_tuned"`
	Capabilities map[artifacttype.Name]bool `json:"capabilities"`
	Metadata     map[string]string         `json:"metadata,omitempty"`
}

// Routing is the per-artifact-type ordered candidate list.
type Routing struct {
	ArtifactType artifacttype.Name `json:"artifact_type"`
	PrimaryModel string            `json:"primary_model_id"`
	Fallbacks    []string          `json:"fallback_model_ids"`
	Enabled      bool              `json:"enabled"`
}

// ErrRoutingConflict is returned when an update would place the primary
// model in its own fallback list.
var ErrRoutingConflict = fmt.Errorf("routing_update_conflict")

// Validate enforces PrimaryModel ∉ Fallbacks.
func (r Routing) Validate() error {
	for _, id := range r.Fallbacks {
		if id == r.PrimaryModel {
			return ErrRoutingConflict
		}
	}
	return nil
}
