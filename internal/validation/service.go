package validation

import "github.com/localforge/artisan/internal/artifacttype"

// Service dispatches a (type, content) pair to the right validator family
// by consulting the artifact type registry for category, then delegating.
type Service struct {
	resolver  TypeResolver
	threshold int
}

// NewService constructs a Service. threshold is the default generation-gate
// score (spec.md default 80); callers needing pool-admission's stricter
// threshold (85) pass it explicitly via ValidateWithThreshold.
func NewService(resolver TypeResolver, threshold int) *Service {
	return &Service{resolver: resolver, threshold: threshold}
}

// ValidateArtifact validates content against type's category rules using
// the service's default threshold.
func (s *Service) ValidateArtifact(t artifacttype.Name, content string) (Result, error) {
	return s.ValidateWithThreshold(t, content, s.threshold)
}

// ValidateWithThreshold validates content using an explicit threshold,
// e.g. for pool admission (85) vs. generation gating (80).
func (s *Service) ValidateWithThreshold(t artifacttype.Name, content string, threshold int) (Result, error) {
	category, err := s.resolver.CategoryOf(t)
	if err != nil {
		return Result{}, err
	}

	validator := s.validatorFor(t, category, threshold)
	return validator.Validate(content), nil
}

func (s *Service) validatorFor(t artifacttype.Name, category artifacttype.Category, threshold int) Validator {
	switch category {
	case artifacttype.CategoryDiagramMermaid:
		return MermaidValidator{Type: baseDiagramType(t), Threshold: threshold}
	case artifacttype.CategoryDiagramHTML:
		return HTMLValidator{Threshold: threshold}
	case artifacttype.CategoryCode:
		return CodeValidator{Threshold: threshold}
	case artifacttype.CategoryDoc:
		return docValidatorFor(t, threshold)
	default:
		return StructuredDocValidator{Type: t, Threshold: threshold}
	}
}

// baseDiagramType strips an HTML-variant suffix, since HTML companion
// artifacts of diagrams still describe the same underlying diagram kind
// for the rare case a mermaid validator is asked to look at one directly.
func baseDiagramType(t artifacttype.Name) artifacttype.Name {
	if artifacttype.IsHTMLVariant(t) {
		return artifacttype.Name(string(t)[:len(t)-len(".html")])
	}
	return t
}

func docValidatorFor(t artifacttype.Name, threshold int) Validator {
	switch t {
	case artifacttype.APIDocs:
		return APIDocsValidator{Threshold: threshold}
	case artifacttype.JIRA:
		return JiraValidator{Threshold: threshold, Strict: true}
	default:
		return StructuredDocValidator{Type: t, Threshold: threshold}
	}
}

// CleanupArtifact runs the idempotent cleanup pipeline for the final stored
// content after a successful validation pass. Raw content is never mutated
// in place; callers retain it on the Attempt record.
func (s *Service) CleanupArtifact(t artifacttype.Name, content string) (string, CleanupReport) {
	return Cleanup(content, string(t))
}
