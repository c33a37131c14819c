package modelregistry

import (
	"sync"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/store"
)

const (
	modelsDoc   = "models.json"
	routingsDoc = "routings.json"
)

// Registry owns the model map and the per-artifact-type routing table. It
// persists both via the collaborator store.
type Registry struct {
	mu       sync.RWMutex
	models   map[string]ModelInfo
	routings map[artifacttype.Name]Routing
	store    *store.Store
}

// NewRegistry constructs a Registry, loading prior state from s if present.
// A nil store is permitted for in-memory-only use.
func NewRegistry(s *store.Store) (*Registry, error) {
	r := &Registry{
		models:   make(map[string]ModelInfo),
		routings: make(map[artifacttype.Name]Routing),
		store:    s,
	}

	if s == nil {
		return r, nil
	}

	if s.Exists(modelsDoc) {
		var models map[string]ModelInfo
		if err := s.ReadJSON(modelsDoc, &models); err != nil {
			return nil, err
		}
		r.models = models
	}
	if s.Exists(routingsDoc) {
		var routings map[artifacttype.Name]Routing
		if err := s.ReadJSON(routingsDoc, &routings); err != nil {
			return nil, err
		}
		r.routings = routings
	}

	return r, nil
}

// Upsert registers or updates a model entry.
func (r *Registry) Upsert(m ModelInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ID] = m
	return r.persistModels()
}

// ListModels returns all tracked models. force_refresh is handled by the
// caller (typically App), which probes providers and calls UpdateStatus
// before calling ListModels again; the Registry itself only stores state.
func (r *Registry) ListModels() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelInfo, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out
}

// Get returns a single model by id.
func (r *Registry) Get(id string) (ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	return m, ok
}

// UpdateStatus sets the status field for every model belonging to
// provider, e.g. after a probe downgrades a cloud provider to no_api_key.
func (r *Registry) UpdateStatus(provider Provider, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.models {
		if m.Provider == provider {
			m.Status = status
			r.models[id] = m
		}
	}
	return r.persistModels()
}

// GetModelsForArtifact returns [primary, ...fallbacks], deduplicated, for
// an artifact type.
func (r *Registry) GetModelsForArtifact(t artifacttype.Name) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routing, ok := r.routings[t]
	if !ok || !routing.Enabled {
		return nil
	}

	seen := make(map[string]bool)
	out := make([]string, 0, 1+len(routing.Fallbacks))
	if routing.PrimaryModel != "" {
		out = append(out, routing.PrimaryModel)
		seen[routing.PrimaryModel] = true
	}
	for _, id := range routing.Fallbacks {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// GetRouting returns the routing for an artifact type.
func (r *Registry) GetRouting(t artifacttype.Name) (Routing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routing, ok := r.routings[t]
	return routing, ok
}

// UpdateRouting validates and persists a batch of routings atomically:
// all-or-nothing. If any routing is invalid, none are applied.
func (r *Registry) UpdateRouting(routings []Routing) error {
	for _, routing := range routings {
		if err := routing.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, routing := range routings {
		r.routings[routing.ArtifactType] = routing
	}
	return r.persistRoutings()
}

// Promote makes modelID the primary for t. If it is already primary, this
// is a no-op. Otherwise the current primary moves to the head of fallbacks
// and modelID becomes primary, maintaining PrimaryModel ∉ Fallbacks.
func (r *Registry) Promote(t artifacttype.Name, modelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	routing, ok := r.routings[t]
	if !ok {
		routing = Routing{ArtifactType: t, Enabled: true}
	}

	if routing.PrimaryModel == modelID {
		return nil
	}

	newFallbacks := make([]string, 0, len(routing.Fallbacks)+1)
	if routing.PrimaryModel != "" {
		newFallbacks = append(newFallbacks, routing.PrimaryModel)
	}
	for _, id := range routing.Fallbacks {
		if id != modelID {
			newFallbacks = append(newFallbacks, id)
		}
	}

	routing.PrimaryModel = modelID
	routing.Fallbacks = newFallbacks
	routing.Enabled = true
	r.routings[t] = routing

	return r.persistRoutings()
}

// persistModels/persistRoutings must be called with r.mu held.
func (r *Registry) persistModels() error {
	if r.store == nil {
		return nil
	}
	return r.store.WriteJSON(modelsDoc, r.models)
}

func (r *Registry) persistRoutings() error {
	if r.store == nil {
		return nil
	}
	return r.store.WriteJSON(routingsDoc, r.routings)
}
