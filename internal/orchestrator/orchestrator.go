package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/contextbuilder"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/providers"
	"github.com/localforge/artisan/internal/secrets"
	"github.com/localforge/artisan/internal/validation"
	"go.uber.org/zap"
)

// Orchestrator runs the single coherent generation pipeline of spec.md
// §4.5: it owns no state of its own beyond routing-promotion coordination
// and delegates to its collaborators (C2, C3, C4, the provider Set, and
// optionally C6/C7/C8) for everything else.
type Orchestrator struct {
	gen   config.GenerationConfig
	cloud config.ProvidersConfig

	types      *artifacttype.Registry
	models     *modelregistry.Registry
	validation *validation.Service
	context    *contextbuilder.Builder
	providers  *providers.Set
	secrets    secrets.Source

	pool     PoolSink
	graph    GraphRegistrar
	renderer Renderer
	vram     VRAMUnloader

	audit  *auditlog.Trail
	logger *zap.Logger

	persistentModels map[string]bool

	// promoMu serializes routing promotions, one mutex shared by all artifact
	// types (spec.md §5's "per-type mutex when updating routing"); the registry's
	// own lock already makes any single update atomic, this additionally
	// prevents two concurrent generations for the same type interleaving
	// read-then-promote decisions.
	promoMu sync.Mutex
}

// New constructs an Orchestrator. pool, graph, renderer, vram, and audit may
// all be nil; every side effect that depends on them degrades gracefully.
func New(
	gen config.GenerationConfig,
	cloud config.ProvidersConfig,
	types *artifacttype.Registry,
	models *modelregistry.Registry,
	validationSvc *validation.Service,
	contextBuilder *contextbuilder.Builder,
	providerSet *providers.Set,
	sec secrets.Source,
	pool PoolSink,
	graph GraphRegistrar,
	renderer Renderer,
	vram VRAMUnloader,
	audit *auditlog.Trail,
	logger *zap.Logger,
) *Orchestrator {
	persistent := make(map[string]bool, len(gen.PersistentModels))
	for _, id := range gen.PersistentModels {
		persistent[id] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gen:              gen,
		cloud:            cloud,
		types:            types,
		models:           models,
		validation:       validationSvc,
		context:          contextBuilder,
		providers:        providerSet,
		secrets:          sec,
		pool:             pool,
		graph:            graph,
		renderer:         renderer,
		vram:             vram,
		audit:            audit,
		logger:           logger,
		persistentModels: persistent,
	}
}

// DefaultOptions returns the spec.md §4.5 default Options, derived from the
// generation-config defaults. Callers build on top of this rather than
// leaving fields zero, since zero is itself a meaningful value for several
// of them (temperature 0, max_retries_per_model 0, validation_threshold 0).
func DefaultOptions(gen config.GenerationConfig) Options {
	return Options{
		Temperature:         gen.Temperature,
		MaxRetriesPerModel:  gen.MaxRetriesPerModel,
		ValidationThreshold: 80,
		UseValidation:       true,
		CloudMaxTokens:      gen.CloudMaxTokens,
		LocalContextWindow:  gen.LocalContextWindow,
	}
}

// Generate runs the full pipeline for one artifact request. Callers should
// build opts from DefaultOptions and override only what they need.
func (o *Orchestrator) Generate(ctx context.Context, t artifacttype.Name, meetingNotes string, opts Options, contextID string, progress ProgressFunc) GenerationResult {
	typ, err := o.types.Resolve(t)
	if err != nil {
		return GenerationResult{Success: false, ErrorType: ErrorNoModelsAvailable, Warning: err.Error()}
	}

	safeProgress(progress, 10, "building context")
	genCtx := o.buildContext(contextID, meetingNotes)
	safeProgress(progress, 30, "context assembled")
	contextNote := contextDegradationNote(genCtx)

	var attempts []Attempt
	var best *Attempt
	stats := make(map[string]ProviderCallStats)

	routing, hasRouting := o.models.GetRouting(t)

	// Preferred cloud short-circuit: if the routing's primary is cloud and
	// its API key is configured, try it before any local candidate.
	if hasRouting && routing.PrimaryModel != "" {
		provider, _ := modelregistry.SplitModelID(routing.PrimaryModel)
		if modelregistry.CloudProviders[provider] && o.hasAPIKey(provider) {
			safeProgress(progress, 40, "trying preferred cloud model")
			attempt, valid, callErr, ok := o.tryCloudCandidate(ctx, typ, genCtx, opts, providerModel{Provider: provider, ModelID: routing.PrimaryModel})
			attempt.Notes = contextNote
			attempts = append(attempts, attempt)
			best = trackBest(best, attempt)
			recordProviderStat(stats, string(provider), callErr)
			if ok && valid {
				result := o.finalizeSuccess(typ, attempt, meetingNotes, attempts, progress)
				result.ProviderStats = stats
				return result
			}
		}
	}

	// Local candidate loop: strictly sequential, retries of one model
	// before moving to the next, per spec.md §5.
	localModels := localCandidates(o.models.GetModelsForArtifact(t))
	safeProgress(progress, 40, "trying local models")
	for i, modelID := range localModels {
		provider, _ := modelregistry.SplitModelID(modelID)
		driver, err := o.providers.ByProviderName(string(provider))
		if err != nil {
			continue
		}

		for retry := 0; retry <= opts.MaxRetriesPerModel; retry++ {
			systemPrompt := systemPromptFor(typ)
			userPrompt := buildPrompt(typ, genCtx.MeetingNotes, genCtx.Assembled)

			callOpts := providers.CallOptions{
				Temperature:   opts.Temperature,
				ContextWindow: opts.LocalContextWindow,
			}

			attempt, valid, callErr := o.callAndValidate(ctx, driver, modelID, provider, typ, systemPrompt, userPrompt, callOpts, o.gen.LocalCallTimeout, retry, opts.ValidationThreshold)
			attempt.Notes = contextNote
			attempts = append(attempts, attempt)
			best = trackBest(best, attempt)
			recordProviderStat(stats, string(provider), callErr)

			if callErr != nil {
				if providers.IsRetriable(callErr) {
					continue
				}
				break // terminal error: move to next model
			}

			if valid {
				safeProgress(progress, 90, "validated, applying cleanup")
				result := o.finalizeSuccess(typ, attempt, meetingNotes, attempts, progress)
				result.ProviderStats = stats
				return result
			}
		}
		safeProgress(progress, localAttemptProgress(i+1, len(localModels)), fmt.Sprintf("local model %s exhausted", modelID))
	}

	// Cloud fallback loop with exponential backoff.
	cloudCandidates := o.cloudFallbackCandidates(routing)
	for _, cand := range cloudCandidates {
		if !o.hasAPIKey(cand.Provider) {
			continue
		}
		driver, err := o.providers.ByProviderName(string(cand.Provider))
		if err != nil {
			continue
		}

		policy := providers.BackoffPolicy{Base: o.gen.CloudBackoffBase, Cap: o.gen.CloudBackoffCap, MaxAttempts: o.gen.CloudMaxAttempts}
		if policy.MaxAttempts <= 0 {
			policy.MaxAttempts = 3
		}

		for attemptNum := 0; attemptNum < policy.MaxAttempts; attemptNum++ {
			safeProgress(progress, 50, fmt.Sprintf("trying cloud model %s", cand.ModelID))
			systemPrompt := systemPromptFor(typ)
			userPrompt := buildPrompt(typ, genCtx.MeetingNotes, genCtx.Assembled)

			callOpts := providers.CallOptions{Temperature: opts.Temperature, MaxTokens: opts.CloudMaxTokens}
			attempt, valid, callErr := o.callAndValidate(ctx, driver, cand.ModelID, cand.Provider, typ, systemPrompt, userPrompt, callOpts, o.gen.CloudCallTimeout, attemptNum, opts.ValidationThreshold)
			attempt.Notes = contextNote
			attempts = append(attempts, attempt)
			best = trackBest(best, attempt)
			recordProviderStat(stats, string(cand.Provider), callErr)

			if callErr != nil {
				if providers.IsRetriable(callErr) && attemptNum < policy.MaxAttempts-1 {
					delay := policy.NextDelay(attemptNum, providers.RetryAfterOf(callErr))
					sleep(ctx, delay)
					continue
				}
				break
			}

			safeProgress(progress, 75, "validating cloud result")
			if valid {
				result := o.finalizeSuccess(typ, attempt, meetingNotes, attempts, progress)
				result.ProviderStats = stats
				return result
			}
			break
		}
	}

	// Return policy: best-effort if anything scored, else a hard failure.
	if best != nil {
		safeProgress(progress, 95, "returning best effort attempt")
		return GenerationResult{
			Success:       true,
			Content:       best.Content,
			ModelUsed:     best.Model,
			Provider:      best.Provider,
			Score:         best.Score,
			IsValid:       false,
			Attempts:      attempts,
			Warning:       fmt.Sprintf("best score %d below threshold %d", best.Score, opts.ValidationThreshold),
			ProviderStats: stats,
		}
	}

	safeProgress(progress, 100, "no candidate produced content")
	errType := ErrorAllAttemptsFailed
	if len(localModels) == 0 && len(cloudCandidates) == 0 {
		errType = ErrorNoModelsAvailable
	}
	return GenerationResult{Success: false, Attempts: attempts, ErrorType: errType, ProviderStats: stats}
}

// finalizeSuccess applies cleanup and post-success side effects to a
// validated attempt, then builds the final GenerationResult.
func (o *Orchestrator) finalizeSuccess(typ artifacttype.Type, attempt Attempt, meetingNotes string, attempts []Attempt, progress ProgressFunc) GenerationResult {
	cleaned, _ := o.validation.CleanupArtifact(typ.Name, attempt.Content)
	provider, _ := modelregistry.SplitModelID(attempt.Model)

	o.promoMu.Lock()
	artifactID, warning := o.applySideEffects(typ, attempt.Model, provider, cleaned, attempt.Score, meetingNotes)
	o.promoMu.Unlock()

	o.recordAudit(auditlog.Event{
		Type: auditlog.EventGenerationSuccess, Category: auditlog.CategoryGeneration,
		ArtifactID: artifactID, Target: attempt.Model, Success: true,
	})

	safeProgress(progress, 100, "generation complete")

	return GenerationResult{
		Success:    true,
		Content:    cleaned,
		ModelUsed:  attempt.Model,
		Provider:   attempt.Provider,
		Score:      attempt.Score,
		IsValid:    true,
		Attempts:   attempts,
		ArtifactID: artifactID,
		Warning:    warning,
	}
}

func (o *Orchestrator) buildContext(contextID, meetingNotes string) contextbuilder.Context {
	opts := contextbuilder.Options{IncludeRAG: true, IncludeKG: true, IncludePatterns: true}
	if contextID != "" {
		return o.context.GetByID(contextID, meetingNotes, opts)
	}
	return o.context.Build(meetingNotes, opts)
}

func (o *Orchestrator) hasAPIKey(provider modelregistry.Provider) bool {
	if o.secrets == nil {
		return false
	}
	return secrets.HasProviderKey(o.secrets, string(provider))
}

// tryCloudCandidate runs a single cloud attempt (the preferred-model
// short-circuit; not part of the retrying fallback ladder).
func (o *Orchestrator) tryCloudCandidate(ctx context.Context, typ artifacttype.Type, genCtx contextbuilder.Context, opts Options, cand providerModel) (Attempt, bool, error, bool) {
	driver, err := o.providers.ByProviderName(string(cand.Provider))
	if err != nil {
		return Attempt{Model: cand.ModelID, Provider: string(cand.Provider), Errors: []string{err.Error()}}, false, err, false
	}

	systemPrompt := systemPromptFor(typ)
	userPrompt := buildPrompt(typ, genCtx.MeetingNotes, genCtx.Assembled)
	callOpts := providers.CallOptions{Temperature: opts.Temperature, MaxTokens: opts.CloudMaxTokens}

	attempt, valid, callErr := o.callAndValidate(ctx, driver, cand.ModelID, cand.Provider, typ, systemPrompt, userPrompt, callOpts, o.gen.CloudCallTimeout, 0, opts.ValidationThreshold)
	return attempt, valid, callErr, callErr == nil
}

// localCandidates filters an ordered model-id list down to non-cloud
// (ollama, huggingface) entries, preserving order.
func localCandidates(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		provider, _ := modelregistry.SplitModelID(id)
		if !modelregistry.CloudProviders[provider] {
			out = append(out, id)
		}
	}
	return out
}

// cloudFallbackCandidates builds the ordered (provider, model) list from the
// routing's cloud fallbacks, falling back to the configured default set only
// if the routing contributed none.
func (o *Orchestrator) cloudFallbackCandidates(routing modelregistry.Routing) []providerModel {
	var out []providerModel
	for _, id := range routing.Fallbacks {
		provider, _ := modelregistry.SplitModelID(id)
		if modelregistry.CloudProviders[provider] {
			out = append(out, providerModel{Provider: provider, ModelID: id})
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, id := range o.gen.DefaultCloudFallbacks {
		provider, _ := modelregistry.SplitModelID(id)
		out = append(out, providerModel{Provider: provider, ModelID: id})
	}
	return out
}

// contextDegradationNote reports when context assembly came back empty or
// with a source failure, per spec.md §4.5 step 1 / §8: callers should know a
// generation proceeded on thinner context than requested, without that
// alone failing the call.
func contextDegradationNote(genCtx contextbuilder.Context) string {
	var degraded []string
	if genCtx.Assembled == "" {
		degraded = append(degraded, "no project context assembled")
	}
	for name, src := range map[string]*contextbuilder.SourceResult{
		"rag": genCtx.Sources.RAG, "kg": genCtx.Sources.KG, "patterns": genCtx.Sources.Patterns,
	} {
		if src != nil && src.Err != "" {
			degraded = append(degraded, fmt.Sprintf("%s source failed: %s", name, src.Err))
		}
	}
	if len(degraded) == 0 {
		return ""
	}
	sort.Strings(degraded)
	return "context degraded: " + strings.Join(degraded, "; ")
}

// sleep blocks for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
