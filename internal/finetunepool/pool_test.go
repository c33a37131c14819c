package finetunepool

import (
	"testing"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg config.FineTuningConfig) *Pool {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	return NewPool(s, cfg, 85, nil)
}

func TestAddExampleRejectsBelowThreshold(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 50})
	err := p.AddExample(artifacttype.ERD, "content", "notes", 84, "ollama:llama3", SourceGeneration)
	assert.ErrorIs(t, err, ErrBelowThreshold)
	assert.Equal(t, 0, p.Count(artifacttype.ERD))
}

func TestAddExampleAdmitsAtThreshold(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 50})
	require.NoError(t, p.AddExample(artifacttype.ERD, "content", "notes", 85, "ollama:llama3", SourceGeneration))
	assert.Equal(t, 1, p.Count(artifacttype.ERD))
}

func TestAddExampleSchedulesJobAtIncrementalThreshold(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 3, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddExample(artifacttype.ERD, "content", "notes", 90, "ollama:llama3", SourceGeneration))
	}

	jobs, err := p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, JobQueued, jobs[0].Status)
	assert.Len(t, jobs[0].TrainingExamples, 3)
	assert.Equal(t, "ollama:llama3", jobs[0].BaseModel)
	assert.Equal(t, 3, jobs[0].ExamplesCount)
	assert.Equal(t, 0, jobs[0].Progress)
}

// TestAddExampleSchedulesJobWithExamplesCountFifty matches spec.md §8
// scenario 3 literally: 49 existing entries plus one more crosses a
// threshold of 50, and the resulting job's examples_count is 50.
func TestAddExampleSchedulesJobWithExamplesCountFifty(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 50, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour})

	for i := 0; i < 50; i++ {
		require.NoError(t, p.AddExample(artifacttype.APIDocs, "content", "notes", 90, "ollama:llama3", SourceGeneration))
	}

	jobs, err := p.ListJobs(artifacttype.APIDocs)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 50, jobs[0].ExamplesCount)
}

func TestTrainingLockBlocksRescheduleUntilReleased(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 2, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour})

	require.NoError(t, p.AddExample(artifacttype.ERD, "a", "notes", 90, "ollama:llama3", SourceGeneration))
	require.NoError(t, p.AddExample(artifacttype.ERD, "b", "notes", 90, "ollama:llama3", SourceGeneration))

	jobs, err := p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// Past the threshold again, but the lock should still be held.
	require.NoError(t, p.AddExample(artifacttype.ERD, "c", "notes", 90, "ollama:llama3", SourceGeneration))
	jobs, err = p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	assert.Len(t, jobs, 1, "a held lock must block a second scheduling")

	require.NoError(t, p.ReleaseLock(artifacttype.ERD))

	// The last-training suppress window is still active immediately after
	// release, so an explicit force is required to get a second job now.
	job, err := p.TriggerTraining(artifacttype.ERD, "ollama:llama3", true)
	require.NoError(t, err)
	require.NotNil(t, job)

	jobs, err = p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestStaleLockIsReclaimed(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1, TrainingLockTTL: time.Millisecond, LastTrainingSuppress: 0})

	require.NoError(t, p.AddExample(artifacttype.ERD, "a", "notes", 90, "ollama:llama3", SourceGeneration))
	jobs, err := p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, p.AddExample(artifacttype.ERD, "b", "notes", 90, "ollama:llama3", SourceGeneration))
	jobs, err = p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	assert.Len(t, jobs, 2, "an expired lock must be reclaimed, allowing a new job")
}

func TestMajorThresholdForcesScheduleDespiteLock(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1, MajorBatchThreshold: 3, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour})

	require.NoError(t, p.AddExample(artifacttype.ERD, "a", "notes", 90, "ollama:llama3", SourceGeneration))
	require.NoError(t, p.AddExample(artifacttype.ERD, "b", "notes", 90, "ollama:llama3", SourceGeneration))
	require.NoError(t, p.AddExample(artifacttype.ERD, "c", "notes", 90, "ollama:llama3", SourceGeneration))

	jobs, err := p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	assert.Len(t, jobs, 2, "crossing the major threshold must force a second job past the held lock")
}

func TestGetSourceBreakdown(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1000})

	for i := 0; i < 15; i++ {
		require.NoError(t, p.AddExample(artifacttype.ERD, "r", "notes", 90, "ollama:llama3", SourceGeneration))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, p.AddExample(artifacttype.ERD, "s", "notes", 90, "ollama:llama3", SourceSynthetic))
	}

	b := p.GetSourceBreakdown(artifacttype.ERD)
	assert.Equal(t, 15, b.Real)
	assert.Equal(t, 5, b.Synthetic)
	assert.Equal(t, 20, b.Total)
	assert.InDelta(t, 25.0, b.SyntheticPct, 0.01)
	assert.False(t, b.NeedsBootstrap)
	assert.False(t, b.ReadyForGraduation)
}

func TestRemoveSynthetic(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1000})

	require.NoError(t, p.AddExample(artifacttype.ERD, "r", "notes", 90, "ollama:llama3", SourceGeneration))
	require.NoError(t, p.AddExample(artifacttype.ERD, "s1", "notes", 90, "ollama:llama3", SourceSynthetic))
	require.NoError(t, p.AddExample(artifacttype.ERD, "s2", "notes", 90, "ollama:llama3", SourceSynthetic))

	removed, err := p.RemoveSynthetic(artifacttype.ERD)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, p.Count(artifacttype.ERD))
}

func TestClearPool(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1000})
	require.NoError(t, p.AddExample(artifacttype.ERD, "r", "notes", 90, "ollama:llama3", SourceGeneration))
	require.NoError(t, p.ClearPool(artifacttype.ERD))
	assert.Equal(t, 0, p.Count(artifacttype.ERD))
}

func TestCancelJobRefusesTerminalJob(t *testing.T) {
	p := newTestPool(t, config.FineTuningConfig{IncrementalBatchThreshold: 1, TrainingLockTTL: time.Hour, LastTrainingSuppress: time.Hour})
	require.NoError(t, p.AddExample(artifacttype.ERD, "a", "notes", 90, "ollama:llama3", SourceGeneration))

	jobs, err := p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, p.CancelJob(jobs[0].ID))

	jobs, err = p.ListJobs(artifacttype.ERD)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].CancelRequested)

	// Simulate the worker completing the job, then cancellation must refuse.
	jobs[0].Status = JobCompleted
	require.NoError(t, p.store.WriteJSON(jobDoc(jobs[0].ID), jobs[0]))
	assert.Error(t, p.CancelJob(jobs[0].ID))
}
