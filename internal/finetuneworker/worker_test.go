package finetuneworker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/finetunepool"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/providers"
	"github.com/localforge/artisan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, ollamaHandler http.HandlerFunc) (*Worker, *finetunepool.Pool, *modelregistry.Registry, *store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	poolCfg := config.FineTuningConfig{IncrementalBatchThreshold: 1, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour}
	pool := finetunepool.NewPool(s, poolCfg, 85, nil)

	models, err := modelregistry.NewRegistry(nil)
	require.NoError(t, err)

	var ollamaURL string
	if ollamaHandler != nil {
		srv := httptest.NewServer(ollamaHandler)
		t.Cleanup(srv.Close)
		ollamaURL = srv.URL
	}

	providerSet := &providers.Set{Ollama: providers.NewOllamaClient(ollamaURL)}

	worker := New(pool, models, providerSet, s, poolCfg, nil, nil)
	return worker, pool, models, s
}

func TestWorkerOllamaPathCompletesJobAndPromotes(t *testing.T) {
	worker, pool, models, s := newTestWorker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, pool.AddExample(artifacttype.ERD, "response body", "build an erd", 90, "llama3", finetunepool.SourceGeneration))

	jobs, err := pool.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	worker.pollOnce(context.Background())

	var job finetunepool.TrainingJob
	require.NoError(t, s.ReadJSON(jobDoc(jobs[0].ID), &job))
	assert.Equal(t, finetunepool.JobCompleted, job.Status)
	assert.NotEmpty(t, job.FineTunedModel)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, 1, job.ExamplesCount)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.CompletedAt)
	assert.False(t, job.CompletedAt.Before(*job.StartedAt))

	routing, ok := models.GetRouting(artifacttype.ERD)
	require.True(t, ok)
	assert.Equal(t, job.FineTunedModel, routing.PrimaryModel)

	info, ok := models.Get(job.FineTunedModel)
	require.True(t, ok)
	assert.True(t, info.IsFineTuned)
	assert.Equal(t, modelregistry.StatusAvailable, info.Status)

	assert.Equal(t, 0, pool.Count(artifacttype.ERD))
}

func TestWorkerOllamaPathFailsOnCreateError(t *testing.T) {
	worker, pool, _, s := newTestWorker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	require.NoError(t, pool.AddExample(artifacttype.ERD, "response", "notes", 90, "llama3", finetunepool.SourceGeneration))
	jobs, err := pool.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	worker.pollOnce(context.Background())

	var job finetunepool.TrainingJob
	require.NoError(t, s.ReadJSON(jobDoc(jobs[0].ID), &job))
	assert.Equal(t, finetunepool.JobFailed, job.Status)
	assert.Equal(t, "training_failed", job.Error)
	assert.NotEmpty(t, job.ErrorTraceback)
}

func TestWorkerFailsEmptyDatasetBeforeTraining(t *testing.T) {
	worker, _, _, s := newTestWorker(t, nil)

	job := finetunepool.TrainingJob{
		ID:           "job-empty",
		ArtifactType: artifacttype.ERD,
		BaseModel:    "llama3",
		Status:       finetunepool.JobQueued,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, s.WriteJSON(jobDoc(job.ID), job))

	worker.runJob(context.Background(), job)

	var persisted finetunepool.TrainingJob
	require.NoError(t, s.ReadJSON(jobDoc(job.ID), &persisted))
	assert.Equal(t, finetunepool.JobFailed, persisted.Status)
	assert.Equal(t, "dataset_validation_failed", persisted.Error)
}

func TestWorkerHonorsCancellationBeforeTraining(t *testing.T) {
	var createCalled bool
	worker, pool, _, s := newTestWorker(t, func(w http.ResponseWriter, r *http.Request) {
		createCalled = true
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, pool.AddExample(artifacttype.ERD, "response", "notes", 90, "llama3", finetunepool.SourceGeneration))
	jobs, err := pool.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, pool.CancelJob(jobs[0].ID))

	worker.pollOnce(context.Background())

	var job finetunepool.TrainingJob
	require.NoError(t, s.ReadJSON(jobDoc(jobs[0].ID), &job))
	assert.Equal(t, finetunepool.JobCancelled, job.Status)
	assert.False(t, createCalled, "a cancelled job must never reach the training call")
}

func TestSanitizeModelName(t *testing.T) {
	assert.Equal(t, "meta-llama_Llama-3-8B", sanitizeModelName("meta-llama/Llama-3-8B"))
	assert.Equal(t, "plain", sanitizeModelName("plain"))
}
