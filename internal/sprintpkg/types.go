// Package sprintpkg implements the Sprint Package Generator (C9): given a
// preset or an explicit ordered artifact list, it drives C5 once per
// artifact type, propagating each successfully generated artifact's
// content into the next request's context, and registers every success
// with C8.
package sprintpkg

import "github.com/localforge/artisan/internal/artifacttype"

// ArtifactResult is one artifact's outcome within a package run.
type ArtifactResult struct {
	Type       artifacttype.Name `json:"type"`
	Success    bool              `json:"success"`
	IsValid    bool              `json:"is_valid"`
	Content    string            `json:"content,omitempty"`
	Score      int               `json:"score,omitempty"`
	ModelUsed  string            `json:"model_used,omitempty"`
	ArtifactID string            `json:"artifact_id,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// PackageResult is generate_package's final result payload, per spec.md
// §4.9.
type PackageResult struct {
	PackageID        string            `json:"package_id"`
	Preset           string            `json:"preset,omitempty"`
	Artifacts        []ArtifactResult  `json:"artifacts"`
	TotalTimeSeconds float64           `json:"total_time_seconds"`
	SuccessRate      float64           `json:"success_rate"`
	FailedArtifacts  []artifacttype.Name `json:"failed_artifacts,omitempty"`
}

// ProgressEvent is one entry of generate_package's stream<{type, data}>
// result, per spec.md §4.9's operation signature.
type ProgressEvent struct {
	Type string      `json:"type"` // "progress" | "result"
	Data interface{} `json:"data"`
}

// ProgressFunc receives one ProgressEvent per step. Best-effort, matching
// C5's progress callback contract: a panicking callback must not abort
// the package run.
type ProgressFunc func(ProgressEvent)
