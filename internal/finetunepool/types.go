// Package finetunepool implements the Fine-Tuning Pool (C6): per-artifact-
// type collection of quality-gated training examples, and threshold-
// triggered batch scheduling for C7 to pick up.
package finetunepool

import (
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
)

// SourceGeneration marks an entry admitted from a live generation call, as
// opposed to a synthetic/bootstrap entry seeded by another process.
const (
	SourceGeneration = "generation"
	SourceSynthetic  = "synthetic"
)

// Entry is one (prompt, response, score, artifact-type, base-model) tuple
// admitted to the pool.
type Entry struct {
	Prompt       string            `json:"prompt"`
	Completion   string            `json:"completion"`
	Score        int               `json:"score"`
	ArtifactType artifacttype.Name `json:"artifact_type"`
	BaseModel    string            `json:"base_model"`
	Source       string            `json:"source"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SourceBreakdown summarizes a pool's real/synthetic composition and
// training readiness, per spec.md §4.6's get_source_breakdown.
type SourceBreakdown struct {
	Real               int     `json:"real"`
	Synthetic          int     `json:"synthetic"`
	Total              int     `json:"total"`
	SyntheticPct       float64 `json:"synthetic_pct"`
	ReadyForTraining   bool    `json:"ready_for_training"`
	ReadyForGraduation bool    `json:"ready_for_graduation"` // real >= 200
	NeedsBootstrap     bool    `json:"needs_bootstrap"`      // total < 20
}

// JobStatus tracks a TrainingJob through C7's lifecycle.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobPreparing JobStatus = "preparing"
	JobTraining  JobStatus = "training"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// TrainingJob is the unit of work C6 schedules and C7 polls for, serialized
// whole (including its training examples) into one job file per spec.md
// §4.7: `{job_id, artifact_type, base_model, examples_count, status,
// progress: 0..100, started_at?, completed_at?, error?,
// metadata{output_model?}}`.
type TrainingJob struct {
	ID               string            `json:"id"`
	ArtifactType     artifacttype.Name `json:"artifact_type"`
	BaseModel        string            `json:"base_model"`
	ExamplesCount    int               `json:"examples_count"`
	UseHuggingFace   bool              `json:"use_huggingface"`
	Status           JobStatus         `json:"status"`
	Progress         int               `json:"progress"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CancelRequested  bool              `json:"cancel_requested"`
	Error            string            `json:"error,omitempty"`
	ErrorTraceback   string            `json:"error_traceback,omitempty"`
	FineTunedModel   string            `json:"fine_tuned_model,omitempty"`
	TrainingExamples []Entry           `json:"training_examples"`
}
