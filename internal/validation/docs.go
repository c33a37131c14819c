package validation

import (
	"regexp"
	"strings"

	"github.com/localforge/artisan/internal/artifacttype"
)

var (
	storyShapeRe      = regexp.MustCompile(`(?i)as\s+an?\s+.+?,?\s*I\s+want\s+.+?,?\s*so\s+that`)
	acceptanceCritRe  = regexp.MustCompile(`(?i)acceptance\s+criteria`)
	headerOrListRe    = regexp.MustCompile(`(?m)^(#{1,6}\s+\S|\s*[-*]\s+\S|\s*\d+[.)]\s+\S)`)
)

// JiraValidator checks JIRA/story artifacts for the "as a/an ... I want
// ... so that" shape; strict mode additionally requires acceptance
// criteria.
type JiraValidator struct {
	Threshold int
	Strict    bool
}

// Validate implements Validator.
func (v JiraValidator) Validate(content string) Result {
	if content == "" {
		return finalize(0, []string{"empty_content"}, v.Threshold)
	}

	score := 100
	var errs []string

	if !storyShapeRe.MatchString(content) {
		score, errs = penalize(score, errs, 50, "missing_user_story_shape")
	}
	if v.Strict && !acceptanceCritRe.MatchString(content) {
		score, errs = penalize(score, errs, 30, "missing_acceptance_criteria")
	}

	return finalize(score, errs, v.Threshold)
}

// StructuredDocValidator checks workflows, backlog, documentation,
// personas, estimations, and feature-scoring artifacts: requires headers or
// numbered lists and a minimum content length, with a heavy penalty for
// unstructured prose.
type StructuredDocValidator struct {
	Type      artifacttype.Name
	Threshold int
}

const minDocLength = 100

// Validate implements Validator.
func (v StructuredDocValidator) Validate(content string) Result {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return finalize(0, []string{"empty_content"}, v.Threshold)
	}

	score := 100
	var errs []string

	if len(trimmed) < minDocLength {
		score, errs = penalize(score, errs, 40, "below_minimum_length")
	}
	if !headerOrListRe.MatchString(content) {
		score, errs = penalize(score, errs, 50, "unstructured_prose")
	}

	return finalize(score, errs, v.Threshold)
}
