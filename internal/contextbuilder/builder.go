package contextbuilder

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/localforge/artisan/internal/store"
)

const contextsDoc = "contexts.json"

// Budget bounds section sizes, mirroring spec.md's context_max_chars
// options.
type Budget struct {
	MeetingNotes  int // default 8000
	RAG           int // default 12000
	MinAssembled  int // default 100
}

// DefaultBudget returns the spec's default character budget.
func DefaultBudget() Budget {
	return Budget{MeetingNotes: 8000, RAG: 12000, MinAssembled: 100}
}

// Builder assembles Context values from meeting notes and optional
// retrieval collaborators. Each source is independently optional and fails
// soft: a source error degrades the context, it never aborts the build.
type Builder struct {
	mu       sync.RWMutex
	budget   Budget
	rag      RetrievalSource
	kg       RetrievalSource
	patterns RetrievalSource
	store    *store.Store
	cache    map[string]Context // keyed by context_id
}

// NewBuilder constructs a Builder. Any of rag/kg/patterns may be nil, in
// which case that section is always skipped.
func NewBuilder(budget Budget, rag, kg, patterns RetrievalSource, s *store.Store) *Builder {
	return &Builder{
		budget:   budget,
		rag:      rag,
		kg:       kg,
		patterns: patterns,
		store:    s,
		cache:    make(map[string]Context),
	}
}

// Build assembles a Context for meetingNotes per opts. It never returns an
// error: retrieval failures degrade the result instead.
func (b *Builder) Build(meetingNotes string, opts Options) Context {
	notes := Sanitize(meetingNotes, b.budget.MeetingNotes)

	var sources Sources
	var sb strings.Builder
	sb.WriteString("## Requirements\n")
	sb.WriteString(notes)

	if opts.IncludeRAG && b.rag != nil {
		res, err := b.rag.Retrieve(meetingNotes, 20)
		sources.RAG = toSourceResult(res, err)
		if err == nil {
			sb.WriteString("\n\n## Project Context (from codebase)\n")
			sb.WriteString(Sanitize(res.ContextText, b.budget.RAG))
		}
	}

	if opts.IncludeKG && b.kg != nil {
		res, err := b.kg.Retrieve(meetingNotes, 20)
		sources.KG = toSourceResult(res, err)
		if err == nil && res.ContextText != "" {
			sb.WriteString("\n\n## Knowledge Graph\n")
			sb.WriteString(Sanitize(res.ContextText, b.budget.RAG))
		}
	}

	if opts.IncludePatterns && b.patterns != nil {
		res, err := b.patterns.Retrieve(meetingNotes, 20)
		sources.Patterns = toSourceResult(res, err)
		if err == nil && res.ContextText != "" {
			sb.WriteString("\n\n## Relevant Patterns\n")
			sb.WriteString(Sanitize(res.ContextText, b.budget.RAG))
		}
	}

	assembled := sb.String()

	// If the assembled string is too short despite non-empty notes, rebuild
	// with at least the requirements section guaranteed present.
	if len([]rune(assembled)) < b.budget.MinAssembled && notes != "" {
		assembled = "## Requirements\n" + notes
	}

	return Context{
		MeetingNotes: notes,
		Assembled:    assembled,
		Sources:      sources,
		CreatedAt:    time.Now(),
	}
}

// BuildAndCache builds a Context and stores it under contextID for later
// retrieval by GetByID.
func (b *Builder) BuildAndCache(contextID, meetingNotes string, opts Options) Context {
	ctx := b.Build(meetingNotes, opts)

	b.mu.Lock()
	b.cache[contextID] = ctx
	b.mu.Unlock()

	if b.store != nil {
		_ = b.persist()
	}
	return ctx
}

// GetByID returns a cached context by id. On cache miss, it rebuilds from
// meetingNotes with force_refresh semantics (opts.ForceRefresh is ignored by
// Build itself — it only affects whether a caller chooses to skip the
// cache — but we honor the rebuild-on-miss contract here).
func (b *Builder) GetByID(contextID, meetingNotes string, opts Options) Context {
	b.mu.RLock()
	ctx, ok := b.cache[contextID]
	b.mu.RUnlock()

	if ok && !opts.ForceRefresh {
		return ctx
	}
	return b.BuildAndCache(contextID, meetingNotes, opts)
}

// persist must not be called with b.mu held.
func (b *Builder) persist() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.store.WriteJSON(contextsDoc, b.cache)
}

func toSourceResult(res SourceResult, err error) *SourceResult {
	if err != nil {
		return &SourceResult{Err: err.Error()}
	}
	return &res
}

// Validate checks that no secret-like or directive-injection content
// remains in an already-assembled string; used defensively before a prompt
// leaves the process boundary.
func Validate(assembled string) error {
	if secretLike.MatchString(assembled) {
		return fmt.Errorf("context contains unredacted secret-like content")
	}
	if directiveInjection.MatchString(assembled) {
		return fmt.Errorf("context contains unfiltered directive-injection content")
	}
	return nil
}
