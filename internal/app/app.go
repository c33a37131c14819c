// Package app is the composition root: it wires C1–C9 and their shared
// collaborators (config, logging, audit, storage, providers, secrets) into
// a single App, and exposes spec.md §6's surface operations as plain Go
// methods, the way the teacher's cmd/nerd wires its kernel before handing
// it to Cobra commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/contextbuilder"
	"github.com/localforge/artisan/internal/depgraph"
	"github.com/localforge/artisan/internal/finetunepool"
	"github.com/localforge/artisan/internal/finetuneworker"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/orchestrator"
	"github.com/localforge/artisan/internal/providers"
	"github.com/localforge/artisan/internal/rendering"
	"github.com/localforge/artisan/internal/secrets"
	"github.com/localforge/artisan/internal/sprintpkg"
	"github.com/localforge/artisan/internal/store"
	"github.com/localforge/artisan/internal/validation"
	"github.com/localforge/artisan/internal/vram"
)

// App is the assembled engine: every C1–C9 component plus the collaborators
// they share, constructed once at startup and reused across calls.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Audit  *auditlog.Trail
	Store  *store.Store

	Types      *artifacttype.Registry
	Context    *contextbuilder.Builder
	Models     *modelregistry.Registry
	Validation *validation.Service
	Orch       *orchestrator.Orchestrator
	Pool       *finetunepool.Pool
	Worker     *finetuneworker.Worker
	Graph      *depgraph.Graph
	Package    *sprintpkg.Generator

	providers *providers.Set
}

// New builds an App from cfg, rooted at dataDir for all JSON persistence
// and dataDir/<YYYY-MM-DD>_audit.jsonl for the audit trail. sec supplies cloud API keys;
// pass secrets.NewEnvSource() for the default environment-backed source.
func New(cfg *config.Config, dataDir string, sec secrets.Source) (*App, error) {
	logger, err := auditlog.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("app: building logger: %w", err)
	}

	s, err := store.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("app: opening store: %w", err)
	}

	audit, err := auditlog.OpenTrail(dataDir, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("app: opening audit trail: %w", err)
	}

	types, err := artifacttype.NewRegistry(s)
	if err != nil {
		return nil, fmt.Errorf("app: loading artifact type registry: %w", err)
	}

	models, err := modelregistry.NewRegistry(s)
	if err != nil {
		return nil, fmt.Errorf("app: loading model registry: %w", err)
	}

	validationSvc := validation.NewService(types, 80)

	contextBuilder := contextbuilder.NewBuilder(contextbuilder.DefaultBudget(), nil, nil, nil, s)

	providerSet := providers.NewSet(cfg, sec)

	pool := finetunepool.NewPool(s, cfg.FineTuning, cfg.Validation.PoolMinScore, audit)

	graph, err := depgraph.NewGraph(s, audit)
	if err != nil {
		return nil, fmt.Errorf("app: loading dependency graph: %w", err)
	}

	renderer := rendering.New()
	vramUnloader := vram.New(providerSet.Ollama, logger)

	orch := orchestrator.New(cfg.Generation, cfg.Providers, types, models, validationSvc, contextBuilder,
		providerSet, sec, pool, graph, renderer, vramUnloader, audit, logger)

	worker := finetuneworker.New(pool, models, providerSet, s, cfg.FineTuning, audit, logger)

	pkg := sprintpkg.New(orch, cfg.Generation, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Audit:      audit,
		Store:      s,
		Types:      types,
		Context:    contextBuilder,
		Models:     models,
		Validation: validationSvc,
		Orch:       orch,
		Pool:       pool,
		Worker:     worker,
		Graph:      graph,
		Package:    pkg,
		providers:  providerSet,
	}, nil
}

// Close releases resources the App opened, currently just the audit trail
// file handle.
func (a *App) Close() error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.Close()
}

// GenerateArtifact implements spec.md §6's generate_artifact.
func (a *App) GenerateArtifact(ctx context.Context, t artifacttype.Name, meetingNotes, contextID string, opts orchestrator.Options, progress orchestrator.ProgressFunc) orchestrator.GenerationResult {
	return a.Orch.Generate(ctx, t, meetingNotes, opts, contextID, progress)
}

// ListModels implements spec.md §6's list_models.
func (a *App) ListModels() []modelregistry.ModelInfo {
	return a.Models.ListModels()
}

// GetRouting implements spec.md §6's get_routing.
func (a *App) GetRouting(t artifacttype.Name) (modelregistry.Routing, bool) {
	return a.Models.GetRouting(t)
}

// UpdateRouting implements spec.md §6's update_routing.
func (a *App) UpdateRouting(routings []modelregistry.Routing) error {
	return a.Models.UpdateRouting(routings)
}

// SubmitExampleForFinetuning implements spec.md §6's
// submit_example_for_finetuning.
func (a *App) SubmitExampleForFinetuning(t artifacttype.Name, content, meetingNotes string, score int, modelUsed, source string) error {
	return a.Pool.AddExample(t, content, meetingNotes, score, modelUsed, source)
}

// GetPoolStats implements spec.md §6's get_pool_stats.
func (a *App) GetPoolStats(t artifacttype.Name) finetunepool.SourceBreakdown {
	return a.Pool.GetSourceBreakdown(t)
}

// TriggerTraining implements spec.md §6's trigger_training.
func (a *App) TriggerTraining(t artifacttype.Name, baseModel string, force bool) (*finetunepool.TrainingJob, error) {
	return a.Pool.TriggerTraining(t, baseModel, force)
}

// CancelTraining implements spec.md §6's cancel_training.
func (a *App) CancelTraining(jobID string) error {
	return a.Pool.CancelJob(jobID)
}

// ListJobs implements spec.md §6's list_jobs.
func (a *App) ListJobs(filterType artifacttype.Name) ([]finetunepool.TrainingJob, error) {
	return a.Pool.ListJobs(filterType)
}

// RegisterArtifact implements spec.md §6's register_artifact.
func (a *App) RegisterArtifact(id string, t artifacttype.Name, content string, metadata map[string]string) (depgraph.ArtifactNode, error) {
	return a.Graph.Register(id, t, content, metadata)
}

// CheckStaleness implements spec.md §6's check_staleness.
func (a *App) CheckStaleness(id string) (depgraph.StalenessReport, error) {
	return a.Graph.CheckStaleness(id)
}

// GetImpactAnalysis implements spec.md §6's get_impact_analysis.
func (a *App) GetImpactAnalysis(id string) ([]depgraph.ImpactEntry, error) {
	return a.Graph.GetImpactAnalysis(id)
}

// GetDependencyTree implements spec.md §6's get_dependency_tree.
func (a *App) GetDependencyTree(root string) ([]*depgraph.TreeNode, error) {
	return a.Graph.GetDependencyTree(root)
}

// GeneratePackage implements spec.md §6's generate_package.
func (a *App) GeneratePackage(ctx context.Context, meetingNotes, preset string, customTypes []artifacttype.Name, progress sprintpkg.ProgressFunc) (sprintpkg.PackageResult, error) {
	return a.Package.GeneratePackage(ctx, meetingNotes, preset, customTypes, progress)
}

// RunFineTuningWorker runs C7's worker loop until ctx is cancelled. It is
// meant to be run from the separate cmd/finetune-worker process, not
// in-line with CLI commands.
func (a *App) RunFineTuningWorker(ctx context.Context) error {
	return a.Worker.Run(ctx)
}
