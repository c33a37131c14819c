package validation

import "regexp"

var (
	htmlTagRe       = regexp.MustCompile(`<html`)
	bodyTagRe       = regexp.MustCompile(`<body`)
	scriptOrStyleRe = regexp.MustCompile(`<script|<style`)
	anyTagRe        = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
)

// HTMLValidator checks HTML prototype artifacts: must declare html/body,
// include script or style, have at least 5 tags, and must not embed a
// Mermaid diagram inline.
type HTMLValidator struct {
	Threshold int
}

// Validate implements Validator.
func (v HTMLValidator) Validate(content string) Result {
	if content == "" {
		return finalize(0, []string{"empty_content"}, v.Threshold)
	}

	score := 100
	var errs []string

	if !htmlTagRe.MatchString(content) {
		score, errs = penalize(score, errs, 30, "missing_html_tag")
	}
	if !bodyTagRe.MatchString(content) {
		score, errs = penalize(score, errs, 20, "missing_body_tag")
	}
	if !scriptOrStyleRe.MatchString(content) {
		score, errs = penalize(score, errs, 20, "missing_script_or_style")
	}
	if len(anyTagRe.FindAllString(content, -1)) < 5 {
		score, errs = penalize(score, errs, 20, "insufficient_tags")
	}
	if body, ok := ExtractMermaid(content); ok && body != "" {
		score, errs = penalize(score, errs, 40, "embedded_mermaid_content")
	}

	return finalize(score, errs, v.Threshold)
}
