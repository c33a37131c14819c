package orchestrator

import (
	"fmt"
	"strings"

	"github.com/localforge/artisan/internal/artifacttype"
)

// defaultPromptTemplate is the prompt builder's default shape (spec.md
// §4.5), used for every built-in type and for custom types that did not
// register a template of their own.
const defaultPromptTemplate = `Generate a %s.

## Requirements
%s

## Project Context (from codebase)
%s

## Instructions
1. Complete and production-ready
2. Follow best practices
3. Include necessary details
4. Validate syntax.`

// diagramSyntaxRules gives the diagram-category system prompt its
// type-specific syntax rules, mirroring the structural checks C4 enforces so
// a model is told exactly what will be scored.
var diagramSyntaxRules = map[artifacttype.Name]string{
	artifacttype.ERD: `- Start with "erDiagram"
- Declare at least two entities as NAME { type name [PK|FK|UK] ... }
- Connect entities with a valid cardinality: ||--||, ||--o{, }o--o{, ||--o|
- Do not use classDiagram syntax (no "class X { +method() }")`,
	artifacttype.Flowchart: `- Declare a direction: TD, TB, BT, LR, or RL
- Define at least three nodes with a shape (e.g. A[Label], B(Label), C{Label})
- Connect nodes with at least two edges (-->, ---, -.->)`,
	artifacttype.Architecture: `- Declare a direction: TD, TB, BT, LR, or RL
- Define at least three nodes with a shape
- Connect nodes with at least two edges`,
	artifacttype.Component: `- Declare a direction: TD, TB, BT, LR, or RL
- Define at least three nodes with a shape
- Connect nodes with at least two edges`,
	artifacttype.Sequence: `- Start with "sequenceDiagram"
- Declare participants (explicit "participant X" or implicit via messages)
- Send at least two messages using ->> or -->>`,
	artifacttype.Class: `- Start with "classDiagram"
- Define at least two classes with bodies: class X { ... }`,
	artifacttype.State: `- Start with "stateDiagram" or "stateDiagram-v2"
- Define at least two transitions: A --> B`,
	artifacttype.Gantt: `- Start with "gantt"
- Include a "title" line and a "dateFormat" line
- Do not use the word "depend" anywhere (not valid Gantt syntax)
- Task lines look like: Name :id[, startRef], duration`,
}

// systemPromptFor builds the diagram-category system prompt that precedes
// the user prompt, including an explicit "output ONLY the diagram code"
// directive. Non-diagram categories get no system prompt.
func systemPromptFor(typ artifacttype.Type) string {
	if typ.Category != artifacttype.CategoryDiagramMermaid {
		return ""
	}
	rules, ok := diagramSyntaxRules[baseDiagramType(typ.Name)]
	if !ok {
		rules = "- Follow standard Mermaid syntax for this diagram kind."
	}
	return fmt.Sprintf(
		"You are an expert at generating %s Mermaid diagrams.\n\nSyntax rules:\n%s\n\nOutput ONLY the diagram code. Do not include markdown fences, explanations, or preambles.",
		artifacttype.PrettyName(typ.Name), rules,
	)
}

// baseDiagramType strips an HTML-variant suffix so the syntax-rule lookup
// still finds the underlying diagram kind.
func baseDiagramType(t artifacttype.Name) artifacttype.Name {
	if artifacttype.IsHTMLVariant(t) {
		return artifacttype.Name(strings.TrimSuffix(string(t), ".html"))
	}
	return t
}

// buildPrompt renders the user prompt: a custom type's template if one is
// registered, else the default shape. Template substitution always uses
// {meeting_notes} and {context}.
func buildPrompt(typ artifacttype.Type, meetingNotes, assembledContext string) string {
	if typ.IsCustom && typ.PromptTemplate != "" {
		replacer := strings.NewReplacer(
			"{meeting_notes}", meetingNotes,
			"{context}", assembledContext,
		)
		return replacer.Replace(typ.PromptTemplate)
	}
	return fmt.Sprintf(defaultPromptTemplate, artifacttype.PrettyName(typ.Name), meetingNotes, assembledContext)
}
