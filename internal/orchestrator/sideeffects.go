package orchestrator

import (
	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/modelregistry"
	"go.uber.org/zap"
)

// poolAdmissionScore and promotionScore are the fixed gates from spec.md
// §4.5's post-success side effects list.
const (
	poolAdmissionScore = 85
	promotionScore     = 80
)

// applySideEffects runs the post-success side effects spec.md §4.5 requires
// once a candidate has cleared validation: VRAM unload, pool submission,
// HTML companion rendering, model promotion, and graph registration. Every
// side effect is best-effort; failures are folded into a warning string
// rather than failing the (already-successful) generation.
func (o *Orchestrator) applySideEffects(typ artifacttype.Type, modelID string, provider modelregistry.Provider, content string, score int, meetingNotes string) (artifactID, warning string) {
	artifactID = string(typ.Name)

	if o.vram != nil && !o.isPersistentModel(modelID) {
		if err := o.vram.Unload(modelID); err != nil && o.logger != nil {
			o.logger.Warn("vram unload failed", zap.String("model", modelID), zap.Error(err))
		}
	}

	if score >= poolAdmissionScore && o.pool != nil {
		if err := o.pool.AddExample(typ.Name, content, meetingNotes, score, modelID, "generation"); err != nil {
			warning = appendWarning(warning, "pool submission failed: "+err.Error())
		} else {
			o.recordAudit(auditlog.Event{
				Type: auditlog.EventPoolAdmit, Category: auditlog.CategoryFineTuning,
				ArtifactID: artifactID, Target: modelID, Success: true,
			})
		}
	}

	if o.renderer != nil && typ.Category == artifacttype.CategoryDiagramMermaid {
		if html, err := o.renderer.RenderHTML(content, typ.Name); err == nil {
			if o.graph != nil {
				htmlType := artifacttype.HTMLVariant(typ.Name)
				_ = o.graph.RegisterArtifact(string(htmlType), htmlType, html, map[string]string{"companion_of": artifactID})
			}
		}
	}

	if score >= promotionScore {
		routing, ok := o.models.GetRouting(typ.Name)
		if !ok || routing.PrimaryModel != modelID {
			if err := o.models.Promote(typ.Name, modelID); err != nil {
				warning = appendWarning(warning, "promotion failed: "+err.Error())
			} else {
				o.recordAudit(auditlog.Event{
					Type: auditlog.EventModelPromotion, Category: auditlog.CategoryRouting,
					Target: modelID, ArtifactID: artifactID, Success: true,
				})
			}
		}
	}

	if o.graph != nil {
		if err := o.graph.RegisterArtifact(artifactID, typ.Name, content, map[string]string{
			"model_used": modelID,
			"provider":   string(provider),
		}); err != nil {
			warning = appendWarning(warning, "graph registration failed: "+err.Error())
		}
	}

	return artifactID, warning
}

func (o *Orchestrator) isPersistentModel(modelID string) bool {
	return o.persistentModels[modelID]
}

func appendWarning(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

func (o *Orchestrator) recordAudit(e auditlog.Event) {
	o.audit.Record(e)
}
