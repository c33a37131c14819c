// Package finetuneworker implements the Fine-Tuning Worker (C7): a
// separate-process poller that picks up TrainingJob files C6 schedules
// under jobs/*.json, runs one of the two training paths against them, and
// feeds the resulting fine-tuned model back into the model registry (C3).
package finetuneworker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/finetunepool"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/providers"
	"github.com/localforge/artisan/internal/store"
)

// Worker polls a store for queued TrainingJobs and runs them to completion,
// one at a time: GPU/VRAM is a single shared resource, so jobs never run
// concurrently with each other regardless of artifact type.
type Worker struct {
	pool      *finetunepool.Pool
	models    *modelregistry.Registry
	providers *providers.Set
	store     *store.Store
	cfg       config.FineTuningConfig
	audit     *auditlog.Trail
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
}

// New constructs a Worker. audit may be nil.
func New(pool *finetunepool.Pool, models *modelregistry.Registry, providerSet *providers.Set, s *store.Store, cfg config.FineTuningConfig, audit *auditlog.Trail, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{pool: pool, models: models, providers: providerSet, store: s, cfg: cfg, audit: audit, logger: logger}
}

// Run polls jobs/ at cfg.CheckInterval (default 60s) and additionally
// watches the directory via fsnotify for a fast path, mirroring the
// teacher's MangleWatcher debounced-poll-plus-watch pattern. It blocks
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	interval := w.cfg.CheckInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	watcher, watchCh := w.startWatcher()
	if watcher != nil {
		defer watcher.Close()
	}

	w.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.pollOnce(ctx)
		case <-watchCh:
			w.pollOnce(ctx)
		}
	}
}

// startWatcher sets up an fsnotify watch on the jobs directory. It returns
// a nil watcher (and a never-firing channel) if the watcher cannot be
// created or the directory does not exist yet; the interval ticker still
// covers that case.
func (w *Worker) startWatcher() (*fsnotify.Watcher, <-chan struct{}) {
	dummy := make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("finetuneworker: fsnotify unavailable, falling back to polling only", zap.Error(err))
		return nil, dummy
	}

	jobsDir := w.store.Path("jobs")
	if err := watcher.Add(jobsDir); err != nil {
		w.logger.Debug("finetuneworker: jobs dir not watchable yet", zap.String("dir", jobsDir), zap.Error(err))
	}

	signal := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				select {
				case signal <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher, signal
}

// pollOnce lists every queued job and runs each sequentially.
func (w *Worker) pollOnce(ctx context.Context) {
	jobs, err := w.pool.ListJobs("")
	if err != nil {
		w.logger.Error("finetuneworker: failed to list jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		if job.Status != finetunepool.JobQueued {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		w.runJob(ctx, job)
	}
}

// runJob drives one TrainingJob through preparing -> training -> a
// terminal state, persisting the job's status after each transition so a
// concurrent get_pool_stats / job-status read always sees current state.
func (w *Worker) runJob(ctx context.Context, job finetunepool.TrainingJob) {
	log := w.logger.With(zap.String("job_id", job.ID), zap.String("artifact_type", string(job.ArtifactType)))
	log.Info("finetuneworker: starting job")

	started := time.Now()
	job.Status = finetunepool.JobPreparing
	job.Progress = 10
	job.StartedAt = &started
	job.UpdatedAt = started
	if err := w.persistJob(job); err != nil {
		log.Error("finetuneworker: failed to persist preparing state", zap.Error(err))
		return
	}

	datasetPath, err := writeDataset(w.store, job)
	if err != nil {
		w.failJob(job, "dataset_validation_failed", err.Error())
		return
	}
	if err := validateDataset(datasetPath); err != nil {
		w.failJob(job, "dataset_validation_failed", err.Error())
		return
	}

	if w.isCancelled(job.ID) {
		w.cancelJob(job)
		return
	}

	job.Status = finetunepool.JobTraining
	job.Progress = 50
	job.UpdatedAt = time.Now()
	if err := w.persistJob(job); err != nil {
		log.Error("finetuneworker: failed to persist training state", zap.Error(err))
		return
	}

	var fineTunedModel string
	if job.UseHuggingFace {
		fineTunedModel, err = runHuggingFacePath(ctx, job, datasetPath, w.cfg.HuggingFace, func() bool { return w.isCancelled(job.ID) })
	} else {
		fineTunedModel, err = runOllamaPath(ctx, job, w.providers.Ollama, func() bool { return w.isCancelled(job.ID) })
	}

	if err != nil {
		if err == errCancelled {
			w.cancelJob(job)
			return
		}
		w.recordTrainingFailure(job, err)
		w.failJob(job, "training_failed", err.Error())
		return
	}

	w.applyPostTrainingEffects(job, fineTunedModel)

	completed := time.Now()
	job.Status = finetunepool.JobCompleted
	job.Progress = 100
	job.FineTunedModel = fineTunedModel
	job.CompletedAt = &completed
	job.UpdatedAt = completed
	if err := w.persistJob(job); err != nil {
		log.Error("finetuneworker: failed to persist completed state", zap.Error(err))
	}

	if w.audit != nil {
		w.audit.Record(auditlog.Event{
			Type: auditlog.EventTrainingComplete, Category: auditlog.CategoryFineTuning,
			ArtifactID: string(job.ArtifactType), Target: fineTunedModel, Success: true,
		})
	}

	if err := w.pool.ClearPool(job.ArtifactType); err != nil {
		log.Warn("finetuneworker: failed to clear pool after training", zap.Error(err))
	}
	if err := w.pool.ReleaseLock(job.ArtifactType); err != nil {
		log.Warn("finetuneworker: failed to release training lock", zap.Error(err))
	}

	log.Info("finetuneworker: job completed", zap.String("fine_tuned_model", fineTunedModel))
}

// applyPostTrainingEffects implements spec.md §4.7's post-training
// effects 1-3: register the model, record the (type, base model) pairing
// via metadata, and promote it to primary for its artifact type.
func (w *Worker) applyPostTrainingEffects(job finetunepool.TrainingJob, fineTunedModel string) {
	err := w.models.Upsert(modelregistry.ModelInfo{
		ID:          fineTunedModel,
		Name:        fineTunedModel,
		Provider:    providerForJob(job),
		Status:      modelregistry.StatusAvailable,
		IsFineTuned: true,
		Capabilities: map[artifacttype.Name]bool{job.ArtifactType: true},
		Metadata: map[string]string{
			"base_model":    job.BaseModel,
			"artifact_type": string(job.ArtifactType),
			"trained_from":  job.ID,
		},
	})
	if err != nil {
		w.logger.Error("finetuneworker: failed to register fine-tuned model", zap.Error(err))
		return
	}

	if err := w.models.Promote(job.ArtifactType, fineTunedModel); err != nil {
		w.logger.Error("finetuneworker: failed to promote fine-tuned model", zap.Error(err))
	}
}

func providerForJob(job finetunepool.TrainingJob) modelregistry.Provider {
	if job.UseHuggingFace {
		return modelregistry.HuggingFace
	}
	return modelregistry.Ollama
}

func (w *Worker) persistJob(job finetunepool.TrainingJob) error {
	return w.store.WriteJSON(jobDoc(job.ID), job)
}

func (w *Worker) failJob(job finetunepool.TrainingJob, errType, traceback string) {
	completed := time.Now()
	job.Status = finetunepool.JobFailed
	job.Error = errType
	job.ErrorTraceback = traceback
	job.CompletedAt = &completed
	job.UpdatedAt = completed
	if err := w.persistJob(job); err != nil {
		w.logger.Error("finetuneworker: failed to persist failed state", zap.String("job_id", job.ID), zap.Error(err))
	}
	if err := w.pool.ReleaseLock(job.ArtifactType); err != nil {
		w.logger.Warn("finetuneworker: failed to release training lock after failure", zap.Error(err))
	}
	w.recordTrainingFailure(job, nil)
}

func (w *Worker) cancelJob(job finetunepool.TrainingJob) {
	completed := time.Now()
	job.Status = finetunepool.JobCancelled
	job.CompletedAt = &completed
	job.UpdatedAt = completed
	if err := w.persistJob(job); err != nil {
		w.logger.Error("finetuneworker: failed to persist cancelled state", zap.String("job_id", job.ID), zap.Error(err))
	}
	if err := w.pool.ReleaseLock(job.ArtifactType); err != nil {
		w.logger.Warn("finetuneworker: failed to release training lock after cancellation", zap.Error(err))
	}
}

func (w *Worker) recordTrainingFailure(job finetunepool.TrainingJob, err error) {
	if w.audit == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	} else {
		msg = job.Error
	}
	w.audit.Record(auditlog.Event{
		Type: auditlog.EventTrainingFailure, Category: auditlog.CategoryFineTuning,
		ArtifactID: string(job.ArtifactType), Success: false, Error: msg,
	})
}

// isCancelled re-reads the job file to check CancelRequested, set by
// finetunepool.Pool.CancelJob from the request-serving process.
func (w *Worker) isCancelled(jobID string) bool {
	var job finetunepool.TrainingJob
	if err := w.store.ReadJSON(jobDoc(jobID), &job); err != nil {
		return false
	}
	return job.CancelRequested
}

func jobDoc(id string) string {
	return fmt.Sprintf("jobs/%s.json", id)
}
