// Package artifacttype implements the closed enumeration of built-in
// artifact types plus the runtime registry for custom types (C1).
package artifacttype

import (
	"fmt"
	"strings"
)

// Category determines which validator family a type routes through.
type Category string

const (
	CategoryDiagramMermaid Category = "diagram-mermaid"
	CategoryDiagramHTML    Category = "diagram-html"
	CategoryCode           Category = "code"
	CategoryDoc            Category = "doc"
)

// Name identifies a built-in or custom artifact type. Built-ins are the
// closed set below; custom names are whatever a caller registers.
type Name string

const (
	ERD              Name = "erd"
	Architecture     Name = "architecture"
	Sequence         Name = "sequence"
	Class            Name = "class"
	State            Name = "state"
	Flowchart        Name = "flowchart"
	Component        Name = "component"
	Gantt            Name = "gantt"
	Pie              Name = "pie"
	Journey          Name = "journey"
	Mindmap          Name = "mindmap"
	GitGraph         Name = "git-graph"
	Timeline         Name = "timeline"
	C4Context        Name = "c4-context"
	C4Container      Name = "c4-container"
	C4Component      Name = "c4-component"
	C4Deployment     Name = "c4-deployment"
	APIDocs          Name = "api-docs"
	CodePrototype    Name = "code-prototype"
	VisualPrototype  Name = "visual-prototype"
	JIRA             Name = "jira"
	Workflows        Name = "workflows"
	Backlog          Name = "backlog"
	Personas         Name = "personas"
	Estimations      Name = "estimations"
	FeatureScoring   Name = "feature-scoring"
)

// htmlSuffix marks the HTML-rendering variant of a diagram type, e.g.
// "erd.html" for the rendered companion artifact of ERD.
const htmlSuffix = ".html"

// HTMLVariant returns the HTML-rendering variant name for a diagram type.
func HTMLVariant(n Name) Name {
	return Name(string(n) + htmlSuffix)
}

// IsHTMLVariant reports whether n names an HTML-rendering variant.
func IsHTMLVariant(n Name) bool {
	s := string(n)
	return len(s) > len(htmlSuffix) && s[len(s)-len(htmlSuffix):] == htmlSuffix
}

// Type describes a resolved artifact type: its category and (for custom
// types) the prompt template that replaces the default prompt builder.
type Type struct {
	Name           Name
	Category       Category
	PromptTemplate string // only set for custom types
	IsCustom       bool
}

// builtins maps every built-in Name to its Category. HTML variants of the
// mermaid diagram kinds are generated lazily in resolve, not listed here.
var builtins = map[Name]Category{
	ERD:             CategoryDiagramMermaid,
	Architecture:    CategoryDiagramMermaid,
	Sequence:        CategoryDiagramMermaid,
	Class:           CategoryDiagramMermaid,
	State:           CategoryDiagramMermaid,
	Flowchart:       CategoryDiagramMermaid,
	Component:       CategoryDiagramMermaid,
	Gantt:           CategoryDiagramMermaid,
	Pie:             CategoryDiagramMermaid,
	Journey:         CategoryDiagramMermaid,
	Mindmap:         CategoryDiagramMermaid,
	GitGraph:        CategoryDiagramMermaid,
	Timeline:        CategoryDiagramMermaid,
	C4Context:       CategoryDiagramMermaid,
	C4Container:     CategoryDiagramMermaid,
	C4Component:     CategoryDiagramMermaid,
	C4Deployment:    CategoryDiagramMermaid,
	APIDocs:         CategoryDoc,
	CodePrototype:   CategoryCode,
	VisualPrototype: CategoryDiagramHTML,
	JIRA:            CategoryDoc,
	Workflows:       CategoryDoc,
	Backlog:         CategoryDoc,
	Personas:        CategoryDoc,
	Estimations:     CategoryDoc,
	FeatureScoring:  CategoryDoc,
}

// PrettyName returns a human-readable label for prompt building, e.g.
// "ERD Diagram" for ERD.
func PrettyName(n Name) string {
	switch n {
	case ERD:
		return "ERD Diagram"
	case APIDocs:
		return "API Documentation"
	case CodePrototype:
		return "Code Prototype"
	case VisualPrototype:
		return "Visual Prototype"
	case JIRA:
		return "JIRA Story"
	case C4Context, C4Container, C4Component, C4Deployment:
		s := string(n)[3:]
		return fmt.Sprintf("C4 %s%s Diagram", strings.ToUpper(s[:1]), s[1:])
	default:
		return fmt.Sprintf("%s Diagram", string(n))
	}
}

// ErrInvalidTemplate is returned when a custom type's prompt template is
// missing a required placeholder.
var ErrInvalidTemplate = fmt.Errorf("invalid_template")

// ErrConflict is returned when a custom type name collides with an
// existing built-in or custom registration.
var ErrConflict = fmt.Errorf("conflict")

// ErrUnknownType is returned by resolve for a name that is neither a
// built-in nor a registered custom type.
var ErrUnknownType = fmt.Errorf("unknown_type")
