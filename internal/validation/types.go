// Package validation implements C4: per-artifact-type structural
// validation, scoring, and idempotent content cleanup.
package validation

import "github.com/localforge/artisan/internal/artifacttype"

// Result is the outcome of validating one (type, content) pair.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Score   int      `json:"score"`
	Errors  []string `json:"errors"`
}

// clampScore confines a score to [0,100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// penalize subtracts a penalty from score, returning the clamped result and
// appending the reason to errs.
func penalize(score int, errs []string, amount int, reason string) (int, []string) {
	return clampScore(score - amount), append(errs, reason)
}

// Validator is implemented by each per-category rule set.
type Validator interface {
	Validate(content string) Result
}

// renderBlockingErrors are error strings that mean "this content cannot be
// rendered at all" as opposed to a style nit; finalize treats these
// specially (is_valid requires no render-blocking error, not just a score
// above threshold).
var renderBlockingErrors = map[string]bool{
	"missing_header":     true,
	"empty_content":      true,
	"not_renderable":     true,
}

func hasRenderBlockingError(errs []string) bool {
	for _, e := range errs {
		if renderBlockingErrors[e] {
			return true
		}
	}
	return false
}

// finalize applies the is_valid rule: score >= threshold AND no
// render-blocking error.
func finalize(score int, errs []string, threshold int) Result {
	score = clampScore(score)
	return Result{
		IsValid: score >= threshold && !hasRenderBlockingError(errs),
		Score:   score,
		Errors:  errs,
	}
}

// CategoryOf resolves which validator family applies, delegating name
// resolution to the artifact type registry.
type TypeResolver interface {
	CategoryOf(name artifacttype.Name) (artifacttype.Category, error)
}
