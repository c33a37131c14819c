package validation

import (
	"regexp"
	"strings"

	"github.com/localforge/artisan/internal/artifacttype"
)

var fencedMermaid = regexp.MustCompile("(?s)```mermaid\\s*\\n(.*?)```")

var diagramHeaders = []string{
	"erDiagram", "flowchart", "graph", "sequenceDiagram", "classDiagram",
	"stateDiagram", "gantt", "pie", "journey", "gitGraph", "mindmap",
	"timeline", "C4Context", "C4Container", "C4Component", "C4Deployment",
}

// ExtractMermaid pulls the diagram body out of raw model output: first a
// fenced ```mermaid block, falling back to the substring starting at the
// first recognized diagram header. Returns ("", false) if neither is found.
func ExtractMermaid(content string) (string, bool) {
	if m := fencedMermaid.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	lowerIdx := -1
	for _, header := range diagramHeaders {
		if idx := strings.Index(content, header); idx >= 0 {
			if lowerIdx == -1 || idx < lowerIdx {
				lowerIdx = idx
			}
		}
	}
	if lowerIdx == -1 {
		return "", false
	}
	return strings.TrimSpace(content[lowerIdx:]), true
}

var (
	entityRe       = regexp.MustCompile(`(?m)^\s*[A-Za-z_][A-Za-z0-9_-]*\s*\{`)
	erRelRe        = regexp.MustCompile(`\|\|--\|\||\|\|--o\{|\}o--o\{|\|\|--o\|`)
	fieldRe        = regexp.MustCompile(`(?m)^\s*\S+\s+\S+\s*(PK|FK|UK)?\s*$`)
	classSyntaxRe  = regexp.MustCompile(`class\s+\w+\s*\{[^}]*\+\w+\(\)`)
	directionRe    = regexp.MustCompile(`(?m)^\s*(graph|flowchart)\s+(TD|TB|BT|LR|RL)`)
	nodeShapeRe    = regexp.MustCompile(`\w+[\[\(\{]`)
	edgeRe         = regexp.MustCompile(`--[->]*>|---`)
	seqMessageRe   = regexp.MustCompile(`->>|-->>`)
	participantRe  = regexp.MustCompile(`(?m)^\s*participant\s+\w+`)
	classDeclRe    = regexp.MustCompile(`(?m)^\s*class\s+\w+\s*\{`)
	stateTransRe   = regexp.MustCompile(`-->`)
	ganttTitleRe   = regexp.MustCompile(`(?m)^\s*title\b`)
	ganttDateFmtRe = regexp.MustCompile(`(?m)^\s*dateFormat\b`)
	ganttTaskRe    = regexp.MustCompile(`(?m)^\s*[\w .\-]+\s*:\s*[\w-]*(,\s*[\w-]+)?\s*,\s*[\w\d]+`)
)

// MermaidValidator dispatches to type-specific structural rules after
// extracting the diagram body.
type MermaidValidator struct {
	Type      artifacttype.Name
	Threshold int
}

// Validate implements Validator.
func (v MermaidValidator) Validate(content string) Result {
	body, ok := ExtractMermaid(content)
	if !ok {
		return finalize(0, []string{"missing_header"}, v.Threshold)
	}

	score := 100
	var errs []string

	switch v.Type {
	case artifacttype.ERD:
		score, errs = validateERD(body, score, errs)
	case artifacttype.Flowchart, artifacttype.Architecture, artifacttype.Component:
		score, errs = validateFlowchart(body, score, errs)
	case artifacttype.Sequence:
		score, errs = validateSequence(body, score, errs)
	case artifacttype.Class:
		score, errs = validateClass(body, score, errs)
	case artifacttype.State:
		score, errs = validateState(body, score, errs)
	case artifacttype.Gantt:
		score, errs = validateGantt(body, score, errs)
	default:
		// Other diagram kinds (pie, journey, mindmap, git-graph, timeline,
		// C4 variants) only require a recognized header, already checked
		// above by ExtractMermaid.
	}

	return finalize(score, errs, v.Threshold)
}

func validateERD(body string, score int, errs []string) (int, []string) {
	entities := entityRe.FindAllString(body, -1)
	if len(entities) < 2 {
		if classSyntaxRe.MatchString(body) {
			// Coercion is attempted in cleanup; here we just flag it as an
			// error so validation reflects the raw (pre-cleanup) content.
			score, errs = penalize(score, errs, 40, "class_diagram_syntax_confusion")
		} else {
			score, errs = penalize(score, errs, 50, "insufficient_entities")
		}
	}
	if !erRelRe.MatchString(body) {
		score, errs = penalize(score, errs, 30, "missing_relationship")
	}
	return score, errs
}

func validateFlowchart(body string, score int, errs []string) (int, []string) {
	if !directionRe.MatchString(body) {
		score, errs = penalize(score, errs, 25, "missing_direction")
	}
	if len(nodeShapeRe.FindAllString(body, -1)) < 3 {
		score, errs = penalize(score, errs, 30, "insufficient_nodes")
	}
	if len(edgeRe.FindAllString(body, -1)) < 2 {
		score, errs = penalize(score, errs, 25, "insufficient_edges")
	}
	return score, errs
}

func validateSequence(body string, score int, errs []string) (int, []string) {
	messages := seqMessageRe.FindAllString(body, -1)
	if len(messages) < 2 {
		score, errs = penalize(score, errs, 40, "insufficient_messages")
	}
	if !participantRe.MatchString(body) && len(messages) == 0 {
		score, errs = penalize(score, errs, 20, "no_participants")
	}
	return score, errs
}

func validateClass(body string, score int, errs []string) (int, []string) {
	if len(classDeclRe.FindAllString(body, -1)) < 2 {
		score, errs = penalize(score, errs, 40, "insufficient_classes")
	}
	return score, errs
}

func validateState(body string, score int, errs []string) (int, []string) {
	if !strings.Contains(body, "stateDiagram") {
		score, errs = penalize(score, errs, 40, "missing_header")
	}
	if len(stateTransRe.FindAllString(body, -1)) < 2 {
		score, errs = penalize(score, errs, 30, "insufficient_transitions")
	}
	return score, errs
}

func validateGantt(body string, score int, errs []string) (int, []string) {
	if !ganttTitleRe.MatchString(body) {
		score, errs = penalize(score, errs, 25, "missing_title")
	}
	if !ganttDateFmtRe.MatchString(body) {
		score, errs = penalize(score, errs, 25, "missing_date_format")
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(strings.ToLower(line), "depend") {
			score, errs = penalize(score, errs, 20, "invalid_depend_token")
			break
		}
	}
	if !ganttTaskRe.MatchString(body) {
		score, errs = penalize(score, errs, 20, "malformed_task_line")
	}
	return score, errs
}
