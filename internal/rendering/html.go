// Package rendering implements C5's Renderer collaborator: it produces an
// HTML companion document for a Mermaid artifact, per spec.md §4.5 ("For
// Mermaid types, synchronously produce an HTML companion artifact by
// delegating to a rendering collaborator (best-effort; never fail
// generation if rendering fails)").
package rendering

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/validation"
)

const mermaidCDN = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

var pageTemplate = template.Must(template.New("mermaid").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="{{.CDN}}"></script>
  <style>
    body { font-family: system-ui, sans-serif; margin: 2rem; background: #fafafa; }
    .mermaid { background: #fff; padding: 1rem; border-radius: 8px; }
  </style>
</head>
<body>
  <div class="mermaid">
{{.Diagram}}
  </div>
  <script>mermaid.initialize({startOnLoad: true});</script>
</body>
</html>
`))

// HTMLRenderer renders Mermaid diagram content into a standalone HTML
// document that loads mermaid.js from a CDN and renders the diagram
// client-side.
type HTMLRenderer struct{}

// New constructs an HTMLRenderer.
func New() HTMLRenderer { return HTMLRenderer{} }

// RenderHTML implements orchestrator.Renderer. It extracts the fenced
// Mermaid body the same way validation does, so the companion document
// always renders exactly what validation scored.
func (HTMLRenderer) RenderHTML(content string, t artifacttype.Name) (string, error) {
	diagram, ok := validation.ExtractMermaid(content)
	if !ok || strings.TrimSpace(diagram) == "" {
		return "", fmt.Errorf("rendering: no mermaid content found for %s", t)
	}

	var b strings.Builder
	err := pageTemplate.Execute(&b, struct {
		Title   string
		CDN     string
		Diagram string
	}{
		Title:   string(t),
		CDN:     mermaidCDN,
		Diagram: diagram,
	})
	if err != nil {
		return "", fmt.Errorf("rendering: %w", err)
	}
	return b.String(), nil
}
