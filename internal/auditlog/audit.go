package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localforge/artisan/internal/config"
)

// EventType identifies the kind of domain event being recorded.
type EventType string

const (
	// Generation pipeline events (C5).
	EventGenerationAttempt EventType = "generation_attempt"
	EventGenerationSuccess EventType = "generation_success"
	EventGenerationBest    EventType = "generation_best_effort"
	EventGenerationFailure EventType = "generation_failure"

	// Model routing events (C3).
	EventModelProbe     EventType = "model_probe"
	EventModelPromotion EventType = "model_promotion"
	EventModelDemotion  EventType = "model_demotion"

	// Validation events (C4).
	EventValidationRun  EventType = "validation_run"
	EventCleanupApplied EventType = "cleanup_applied"

	// Fine-tuning pool/worker events (C6/C7).
	EventPoolAdmit        EventType = "pool_admit"
	EventPoolReject       EventType = "pool_reject"
	EventTrainingTrigger  EventType = "training_trigger"
	EventTrainingStart    EventType = "training_start"
	EventTrainingComplete EventType = "training_complete"
	EventTrainingFailure  EventType = "training_failure"

	// Dependency graph events (C8).
	EventArtifactLinked     EventType = "artifact_linked"
	EventStalenessDetected  EventType = "staleness_detected"

	// Sprint package events (C9).
	EventPackageGenerated EventType = "package_generated"
)

// Category groups events the way LoggingConfig.Categories toggles them.
type Category string

const (
	CategoryGeneration Category = "generation"
	CategoryRouting    Category = "routing"
	CategoryValidation Category = "validation"
	CategoryFineTuning Category = "fine_tuning"
	CategoryGraph      Category = "graph"
	CategoryPackage    Category = "package"
)

// Event is a single structured audit record, written as one JSON line.
type Event struct {
	Timestamp  int64                  `json:"ts"`
	Type       EventType              `json:"event"`
	Category   Category               `json:"cat"`
	RequestID  string                 `json:"req,omitempty"`
	ArtifactID string                 `json:"artifact,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Trail appends audit events to a JSON-lines file. It is safe for
// concurrent use by multiple goroutines (the generation orchestrator and
// the fine-tuning worker may both write to it).
type Trail struct {
	mu      sync.Mutex
	file    *os.File
	cfg     config.LoggingConfig
	enabled bool
}

// OpenTrail opens (creating if needed) the audit trail file for today.
// If cfg.DebugMode is false and no categories are configured, the trail
// still opens but individual categories may be filtered at write time.
func OpenTrail(dir string, cfg config.LoggingConfig) (*Trail, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_audit.jsonl", date))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	return &Trail{file: f, cfg: cfg, enabled: true}, nil
}

// Close closes the underlying file.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Record writes an event if its category is enabled. Timestamp is filled
// in automatically when zero.
func (t *Trail) Record(e Event) {
	if t == nil || !t.enabled {
		return
	}
	if !t.cfg.IsCategoryEnabled(string(e.Category)) {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}
	t.file.Write(append(data, '\n'))
}
