package sprintpkg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/orchestrator"
)

// packageTemperature and packageMaxRetries are C9's fixed override of C5's
// defaults, per spec.md §4.9: "Delegate to C5 with {temperature: 0.3,
// max_retries_per_model: 2}." Every artifact in a package run uses these
// regardless of the caller's own generation defaults.
const (
	packageTemperature = 0.3
	packageMaxRetries  = 2
)

// Generator is the Sprint Package Generator (C9). It owns no state of its
// own: each artifact's generation is delegated in full to the shared
// Orchestrator (C5), which already handles model routing, validation,
// pool submission, and graph registration.
type Generator struct {
	orch   *orchestrator.Orchestrator
	gen    config.GenerationConfig
	logger *zap.Logger
}

// New constructs a Generator. gen supplies the non-overridden Options
// fields (validation threshold, token/context limits); logger may be nil.
func New(orch *orchestrator.Orchestrator, gen config.GenerationConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{orch: orch, gen: gen, logger: logger}
}

// GeneratePackage implements spec.md §4.9's generate_package. Exactly one
// of preset or customTypes should be non-empty; preset takes precedence.
// Artifacts are generated strictly sequentially in the resolved order,
// per spec.md §5 ("Sprint package: artifacts are sequential by design") —
// each artifact's enhanced notes fold in the content of every artifact
// completed so far.
func (g *Generator) GeneratePackage(ctx context.Context, meetingNotes, preset string, customTypes []artifacttype.Name, progress ProgressFunc) (PackageResult, error) {
	order := resolveOrder(preset)
	if order == nil {
		order = customTypes
	}
	if len(order) == 0 {
		return PackageResult{}, fmt.Errorf("sprintpkg: unknown preset %q and no artifact types given", preset)
	}

	start := time.Now()
	result := PackageResult{
		PackageID: uuid.New().String(),
		Preset:    preset,
		Artifacts: make([]ArtifactResult, 0, len(order)),
	}

	var completed []ArtifactResult
	opts := orchestrator.DefaultOptions(g.gen)
	opts.Temperature = packageTemperature
	opts.MaxRetriesPerModel = packageMaxRetries

	for i, t := range order {
		emit(progress, ProgressEvent{Type: "progress", Data: fmt.Sprintf("generating %s (%d/%d)", t, i+1, len(order))})

		enhanced := buildEnhancedNotes(meetingNotes, completed)
		genResult := g.orch.Generate(ctx, t, enhanced, opts, "", nil)

		ar := ArtifactResult{
			Type:       t,
			Success:    genResult.Success,
			IsValid:    genResult.IsValid,
			Content:    genResult.Content,
			Score:      genResult.Score,
			ModelUsed:  genResult.ModelUsed,
			ArtifactID: genResult.ArtifactID,
			Error:      genResult.Warning,
		}
		if !genResult.Success {
			ar.Error = genResult.ErrorType
			if ar.Error == "" {
				ar.Error = genResult.Warning
			}
			result.FailedArtifacts = append(result.FailedArtifacts, t)
			g.logger.Warn("package artifact generation failed", zap.String("package_id", result.PackageID), zap.String("type", string(t)), zap.String("error", ar.Error))
		} else {
			completed = append(completed, ar)
		}

		result.Artifacts = append(result.Artifacts, ar)
		emit(progress, ProgressEvent{Type: "result", Data: ar})
	}

	result.TotalTimeSeconds = time.Since(start).Seconds()
	if len(order) > 0 {
		result.SuccessRate = float64(len(completed)) / float64(len(order))
	}

	return result, nil
}

// buildEnhancedNotes folds an excerpt of every successfully generated
// artifact so far into the original meeting notes, per spec.md §4.9, so
// later artifacts in the package are grounded in earlier ones (e.g. API
// docs generated after the ERD reference its actual entities).
func buildEnhancedNotes(original string, completed []ArtifactResult) string {
	if len(completed) == 0 {
		return original
	}

	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\n---\n\n")
	b.WriteString("Artifacts already produced in this sprint package:\n\n")
	for _, a := range completed {
		b.WriteString(fmt.Sprintf("### %s\n", a.Type))
		b.WriteString(truncate(a.Content, excerptChars))
		b.WriteString("\n\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// emit calls progress, swallowing a panic so a faulty callback never
// aborts a package run, matching C5's own progress-callback contract.
func emit(progress ProgressFunc, evt ProgressEvent) {
	if progress == nil {
		return
	}
	defer func() { _ = recover() }()
	progress(evt)
}
