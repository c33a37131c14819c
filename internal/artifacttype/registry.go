package artifacttype

import (
	"strings"
	"sync"

	"github.com/localforge/artisan/internal/store"
)

const customTypesDoc = "custom_types.json"

// customRecord is the on-disk shape for a registered custom type.
type customRecord struct {
	Name           Name     `json:"name"`
	Category       Category `json:"category"`
	PromptTemplate string   `json:"prompt_template"`
}

// Registry resolves built-in and custom artifact types and owns custom-type
// persistence. Built-in types are immutable; custom types extend the set at
// runtime and persist across restarts.
type Registry struct {
	mu      sync.RWMutex
	custom  map[Name]customRecord
	store   *store.Store
}

// NewRegistry constructs a Registry, loading any previously-registered
// custom types from s. A nil store is permitted for in-memory-only use
// (e.g. tests).
func NewRegistry(s *store.Store) (*Registry, error) {
	r := &Registry{
		custom: make(map[Name]customRecord),
		store:  s,
	}

	if s == nil || !s.Exists(customTypesDoc) {
		return r, nil
	}

	var records []customRecord
	if err := s.ReadJSON(customTypesDoc, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		r.custom[rec.Name] = rec
	}
	return r, nil
}

// Resolve looks up a type by name, checking built-ins first, then custom
// registrations. HTML variants of mermaid diagram types resolve to the
// diagram-html category even though they are not separately registered.
func (r *Registry) Resolve(name Name) (Type, error) {
	if IsHTMLVariant(name) {
		base := Name(strings.TrimSuffix(string(name), htmlSuffix))
		if cat, ok := builtins[base]; ok && cat == CategoryDiagramMermaid {
			return Type{Name: name, Category: CategoryDiagramHTML}, nil
		}
	}

	if cat, ok := builtins[name]; ok {
		return Type{Name: name, Category: cat}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.custom[name]; ok {
		return Type{
			Name:           rec.Name,
			Category:       rec.Category,
			PromptTemplate: rec.PromptTemplate,
			IsCustom:       true,
		}, nil
	}

	return Type{}, ErrUnknownType
}

// RegisterCustom adds a new custom artifact type with its prompt template.
// The template MUST contain both {meeting_notes} and {context} placeholders
// or registration fails with ErrInvalidTemplate. Registering a name that
// collides with a built-in or existing custom type fails with ErrConflict.
func (r *Registry) RegisterCustom(name Name, promptTemplate string, category Category) error {
	if !strings.Contains(promptTemplate, "{meeting_notes}") || !strings.Contains(promptTemplate, "{context}") {
		return ErrInvalidTemplate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := builtins[name]; ok {
		return ErrConflict
	}
	if _, ok := r.custom[name]; ok {
		return ErrConflict
	}

	r.custom[name] = customRecord{
		Name:           name,
		Category:       category,
		PromptTemplate: promptTemplate,
	}

	return r.persist()
}

// persist must be called with r.mu held.
func (r *Registry) persist() error {
	if r.store == nil {
		return nil
	}
	records := make([]customRecord, 0, len(r.custom))
	for _, rec := range r.custom {
		records = append(records, rec)
	}
	return r.store.WriteJSON(customTypesDoc, records)
}

// CategoryOf returns the category for a resolved type name, used by C4 to
// dispatch to the right validator family.
func (r *Registry) CategoryOf(name Name) (Category, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return t.Category, nil
}
