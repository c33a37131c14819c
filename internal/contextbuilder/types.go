// Package contextbuilder assembles bounded, sanitized generation context
// from requirements text plus optional retrieval sources (C2).
package contextbuilder

import "time"

// Sources records which optional collaborators contributed to a Context and
// what they returned, for diagnostics.
type Sources struct {
	RAG      *SourceResult `json:"rag,omitempty"`
	KG       *SourceResult `json:"kg,omitempty"`
	Patterns *SourceResult `json:"patterns,omitempty"`
}

// SourceResult is what a retrieval collaborator returned for one source.
type SourceResult struct {
	ContextText string  `json:"context_text"`
	TotalChunks int     `json:"total_chunks"`
	TotalTokens int     `json:"total_tokens"`
	QualityScore float64 `json:"quality_score"`
	Err         string  `json:"error,omitempty"`
}

// Context is the assembled, bounded, sanitized result of a build_context
// call.
type Context struct {
	MeetingNotes string    `json:"meeting_notes"`
	Assembled    string    `json:"assembled"`
	Sources      Sources   `json:"sources"`
	CreatedAt    time.Time `json:"created_at"`
}

// Options controls which optional sources are queried.
type Options struct {
	IncludeRAG      bool
	IncludeKG       bool
	IncludePatterns bool
	ForceRefresh    bool
}

// RetrievalSource is the collaborator contract for RAG/KG/pattern stores.
// Implementations MUST be idempotent and MUST NOT panic; Builder treats any
// error as a soft failure and degrades gracefully.
type RetrievalSource interface {
	Retrieve(query string, maxChunks int) (SourceResult, error)
}
