package finetunepool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/store"
)

// graduationThreshold and bootstrapFloor are the fixed breakdown gates from
// spec.md §4.6's get_source_breakdown.
const (
	graduationThreshold = 200
	bootstrapFloor      = 20
)

// ErrBelowThreshold is returned by AddExample when score is below the
// pool's admission bar. It is not itself a failure worth surfacing loudly:
// callers that only submit already-gated examples (C5) should never see it.
var ErrBelowThreshold = errors.New("score below pool admission threshold")

// Pool owns one example list per artifact type, persisted as
// "pool_<type>.json", and the threshold-triggered scheduling of C7 jobs.
type Pool struct {
	mu       sync.Mutex
	entries  map[artifacttype.Name][]Entry
	loaded   map[artifacttype.Name]bool
	store    *store.Store
	cfg      config.FineTuningConfig
	minScore int
	audit    *auditlog.Trail
}

// NewPool constructs a Pool backed by s. A nil store is permitted for
// in-memory-only use (tests); a nil audit trail disables event recording.
func NewPool(s *store.Store, cfg config.FineTuningConfig, minScore int, audit *auditlog.Trail) *Pool {
	return &Pool{
		entries:  make(map[artifacttype.Name][]Entry),
		loaded:   make(map[artifacttype.Name]bool),
		store:    s,
		cfg:      cfg,
		minScore: minScore,
		audit:    audit,
	}
}

func poolDoc(t artifacttype.Name) string {
	return fmt.Sprintf("pool_%s.json", t)
}

// ensureLoadedLocked hydrates entries[t] from disk on first touch. Must be
// called with p.mu held.
func (p *Pool) ensureLoadedLocked(t artifacttype.Name) {
	if p.loaded[t] {
		return
	}
	p.loaded[t] = true
	if p.store == nil || !p.store.Exists(poolDoc(t)) {
		return
	}
	var entries []Entry
	if err := p.store.ReadJSON(poolDoc(t), &entries); err == nil {
		p.entries[t] = entries
	}
}

// persistLocked must be called with p.mu held.
func (p *Pool) persistLocked(t artifacttype.Name) error {
	if p.store == nil {
		return nil
	}
	return p.store.WriteJSON(poolDoc(t), p.entries[t])
}

// AddExample admits one (prompt, response) tuple if score clears the pool's
// threshold, then checks whether the pool just crossed the incremental
// batch size and, if so, schedules a training job.
func (p *Pool) AddExample(t artifacttype.Name, content, meetingNotes string, score int, modelUsed, source string) error {
	if score < p.minScore {
		return ErrBelowThreshold
	}

	p.mu.Lock()
	p.ensureLoadedLocked(t)
	p.entries[t] = append(p.entries[t], Entry{
		Prompt:       meetingNotes,
		Completion:   content,
		Score:        score,
		ArtifactType: t,
		BaseModel:    modelUsed,
		Source:       source,
		CreatedAt:    time.Now(),
	})
	count := len(p.entries[t])
	err := p.persistLocked(t)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	// Crossing the major (supplemented) batch size forces a job past the
	// suppress/lock guards: a pool this large means training is overdue
	// regardless of how recently a smaller batch ran.
	force := p.cfg.MajorBatchThreshold > 0 && count >= p.cfg.MajorBatchThreshold
	due := force || (p.cfg.IncrementalBatchThreshold > 0 && count >= p.cfg.IncrementalBatchThreshold)

	if due {
		if _, schedErr := p.scheduleIfDue(t, modelUsed, force); schedErr != nil && p.audit != nil {
			p.audit.Record(auditlog.Event{
				Type: auditlog.EventTrainingTrigger, Category: auditlog.CategoryFineTuning,
				ArtifactID: string(t), Success: false, Error: schedErr.Error(),
			})
		}
	}
	return nil
}

// GetSourceBreakdown reports a pool's real/synthetic composition and
// training readiness per spec.md §4.6.
func (p *Pool) GetSourceBreakdown(t artifacttype.Name) SourceBreakdown {
	p.mu.Lock()
	p.ensureLoadedLocked(t)
	entries := p.entries[t]
	p.mu.Unlock()

	var real, synthetic int
	for _, e := range entries {
		if e.Source == SourceSynthetic {
			synthetic++
		} else {
			real++
		}
	}
	total := real + synthetic

	var syntheticPct float64
	if total > 0 {
		syntheticPct = float64(synthetic) / float64(total) * 100
	}

	return SourceBreakdown{
		Real:               real,
		Synthetic:          synthetic,
		Total:              total,
		SyntheticPct:       syntheticPct,
		ReadyForTraining:   p.cfg.IncrementalBatchThreshold > 0 && total >= p.cfg.IncrementalBatchThreshold,
		ReadyForGraduation: real >= graduationThreshold,
		NeedsBootstrap:     total < bootstrapFloor,
	}
}

// RemoveSynthetic deletes synthetic-sourced entries from a pool, returning
// the count removed.
func (p *Pool) RemoveSynthetic(t artifacttype.Name) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoadedLocked(t)

	kept := p.entries[t][:0]
	removed := 0
	for _, e := range p.entries[t] {
		if e.Source == SourceSynthetic {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	p.entries[t] = kept

	return removed, p.persistLocked(t)
}

// ClearPool truncates a pool's entries, invoked by C7 once it has confirmed
// a training run consumed them successfully.
func (p *Pool) ClearPool(t artifacttype.Name) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[t] = nil
	p.loaded[t] = true
	return p.persistLocked(t)
}

// Count returns the current entry count for t, loading from disk if not
// already cached.
func (p *Pool) Count(t artifacttype.Name) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoadedLocked(t)
	return len(p.entries[t])
}

// snapshot returns a copy of the current entries for t, used when building
// a TrainingJob so later admissions don't race with the job's own slice.
func (p *Pool) snapshot(t artifacttype.Name) []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoadedLocked(t)
	out := make([]Entry, len(p.entries[t]))
	copy(out, p.entries[t])
	return out
}

// majorityBaseModel picks the most common BaseModel among entries, falling
// back to fallback if the pool is empty.
func majorityBaseModel(entries []Entry, fallback string) string {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.BaseModel]++
	}
	best := fallback
	bestCount := 0
	for model, c := range counts {
		if c > bestCount {
			best, bestCount = model, c
		}
	}
	return best
}
