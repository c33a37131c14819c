package validation

import "regexp"

var (
	classOrFuncRe  = regexp.MustCompile(`(?m)^\s*(func|class|def|public\s+class|interface)\s+\w+`)
	importRe       = regexp.MustCompile(`(?m)^\s*(import|using|package|require)\b`)
	implTestSepRe  = regexp.MustCompile(`===\s*IMPLEMENTATION\s*===`)
	testsSepRe     = regexp.MustCompile(`===\s*TESTS\s*===`)
	openAPIRe      = regexp.MustCompile(`(?i)(openapi:|swagger:)`)
	endpointRe     = regexp.MustCompile(`\b(GET|POST|PUT|DELETE)\s+/`)
)

// CodeValidator checks code-prototype artifacts.
type CodeValidator struct {
	Threshold         int
	ExpectTestSection bool
}

// Validate implements Validator.
func (v CodeValidator) Validate(content string) Result {
	if content == "" {
		return finalize(0, []string{"empty_content"}, v.Threshold)
	}

	score := 100
	var errs []string

	if !classOrFuncRe.MatchString(content) {
		score, errs = penalize(score, errs, 40, "missing_class_or_function")
	}
	if !importRe.MatchString(content) {
		score, errs = penalize(score, errs, 20, "missing_import")
	}
	if v.ExpectTestSection {
		if !implTestSepRe.MatchString(content) || !testsSepRe.MatchString(content) {
			score, errs = penalize(score, errs, 25, "missing_test_separator")
		}
	}

	return finalize(score, errs, v.Threshold)
}

// APIDocsValidator checks api-docs artifacts: requires an OpenAPI/Swagger
// declaration or recognizable endpoint markers.
type APIDocsValidator struct {
	Threshold int
}

// Validate implements Validator.
func (v APIDocsValidator) Validate(content string) Result {
	if content == "" {
		return finalize(0, []string{"empty_content"}, v.Threshold)
	}

	score := 100
	var errs []string

	if !openAPIRe.MatchString(content) && !endpointRe.MatchString(content) {
		score, errs = penalize(score, errs, 50, "no_api_structure_detected")
	}

	return finalize(score, errs, v.Threshold)
}
