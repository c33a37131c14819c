package finetunepool

import (
	"fmt"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/google/uuid"
)

// lockMarker and lastTrainMarker are the on-disk guard documents spec.md
// §4.6 describes: a lock blocks concurrent scheduling while a job is in
// flight, a last-training marker suppresses immediate re-scheduling after
// one completes. Both are plain JSON timestamps; staleness is judged by
// age, mirroring the teacher's mtime-based cache-invalidation check in
// internal/world/cache.go.
type marker struct {
	RecordedAt time.Time `json:"recorded_at"`
}

func lockDoc(t artifacttype.Name) string      { return fmt.Sprintf("locks/%s.lock.json", t) }
func lastTrainDoc(t artifacttype.Name) string { return fmt.Sprintf("locks/%s.last.json", t) }
func jobDoc(id string) string                 { return fmt.Sprintf("jobs/%s.json", id) }

// scheduleIfDue writes a new TrainingJob for t if no guard blocks it (or
// force bypasses the guards), taking a snapshot of the pool's current
// entries. It reclaims a stale lock (older than TrainingLockTTL) before
// checking it, per spec.md §4.6 "stale locks are reclaimed".
func (p *Pool) scheduleIfDue(t artifacttype.Name, baseModel string, force bool) (*TrainingJob, error) {
	if p.store == nil {
		return nil, fmt.Errorf("no persistence store configured")
	}

	if !force {
		if locked, err := p.isLocked(t); err != nil {
			return nil, err
		} else if locked {
			return nil, nil
		}
		if suppressed, err := p.isSuppressed(t); err != nil {
			return nil, err
		} else if suppressed {
			return nil, nil
		}
	}

	entries := p.snapshot(t)
	if len(entries) == 0 {
		return nil, nil
	}

	job := &TrainingJob{
		ID:               uuid.New().String(),
		ArtifactType:     t,
		BaseModel:        majorityBaseModel(entries, baseModel),
		ExamplesCount:    len(entries),
		Status:           JobQueued,
		Progress:         0,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
		TrainingExamples: entries,
	}

	if err := p.store.WriteJSON(jobDoc(job.ID), job); err != nil {
		return nil, err
	}
	if err := p.store.WriteJSON(lockDoc(t), marker{RecordedAt: time.Now()}); err != nil {
		return nil, err
	}

	if p.audit != nil {
		p.audit.Record(auditlog.Event{
			Type: auditlog.EventTrainingTrigger, Category: auditlog.CategoryFineTuning,
			ArtifactID: string(t), Target: job.ID, Success: true,
		})
	}

	return job, nil
}

// TriggerTraining is the explicit surface operation
// (trigger_training(type, force?)): it schedules from the current pool
// whatever its size relative to the batch thresholds. Without force the
// pool must be non-empty and an active lock or suppress window yields no
// job; force skips those guards. An empty pool never yields a job.
func (p *Pool) TriggerTraining(t artifacttype.Name, baseModel string, force bool) (*TrainingJob, error) {
	if !force && p.Count(t) == 0 {
		return nil, fmt.Errorf("pool for %s is empty", t)
	}
	return p.scheduleIfDue(t, baseModel, force)
}

func (p *Pool) isLocked(t artifacttype.Name) (bool, error) {
	if !p.store.Exists(lockDoc(t)) {
		return false, nil
	}
	var m marker
	if err := p.store.ReadJSON(lockDoc(t), &m); err != nil {
		return false, err
	}
	ttl := p.cfg.TrainingLockTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if time.Since(m.RecordedAt) > ttl {
		// Stale lock: reclaim it so scheduling can proceed.
		_ = p.store.Remove(lockDoc(t))
		return false, nil
	}
	return true, nil
}

func (p *Pool) isSuppressed(t artifacttype.Name) (bool, error) {
	if !p.store.Exists(lastTrainDoc(t)) {
		return false, nil
	}
	var m marker
	if err := p.store.ReadJSON(lastTrainDoc(t), &m); err != nil {
		return false, err
	}
	suppress := p.cfg.LastTrainingSuppress
	if suppress <= 0 {
		suppress = time.Hour
	}
	return time.Since(m.RecordedAt) <= suppress, nil
}

// ListJobs returns every persisted job, optionally filtered to one artifact
// type when filterType is non-empty.
func (p *Pool) ListJobs(filterType artifacttype.Name) ([]TrainingJob, error) {
	if p.store == nil {
		return nil, nil
	}
	names, err := p.store.List("jobs")
	if err != nil {
		return nil, err
	}

	jobs := make([]TrainingJob, 0, len(names))
	for _, name := range names {
		var job TrainingJob
		if err := p.store.ReadJSON(name, &job); err != nil {
			continue
		}
		if filterType != "" && job.ArtifactType != filterType {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// CancelJob requests cancellation of a queued/preparing/training job by
// setting its CancelRequested flag. The worker checks CancelRequested
// between steps, sets the status to cancelled and exits cleanly; this call
// never touches a job already in a terminal state.
func (p *Pool) CancelJob(jobID string) error {
	if p.store == nil {
		return fmt.Errorf("no persistence store configured")
	}
	doc := jobDoc(jobID)
	var job TrainingJob
	if err := p.store.ReadJSON(doc, &job); err != nil {
		return err
	}
	switch job.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return fmt.Errorf("job %s is already in terminal state %s", jobID, job.Status)
	}
	job.CancelRequested = true
	job.UpdatedAt = time.Now()
	return p.store.WriteJSON(doc, job)
}

// ReleaseLock clears the in-flight lock and records a last-training marker,
// invoked by C7 once a job reaches a terminal state (completed or failed)
// so the next AddExample past the incremental threshold can schedule again
// after the suppress window.
func (p *Pool) ReleaseLock(t artifacttype.Name) error {
	if p.store == nil {
		return nil
	}
	_ = p.store.Remove(lockDoc(t))
	return p.store.WriteJSON(lastTrainDoc(t), marker{RecordedAt: time.Now()})
}
