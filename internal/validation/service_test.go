package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localforge/artisan/internal/artifacttype"
)

type stubResolver struct {
	categories map[artifacttype.Name]artifacttype.Category
}

func (r stubResolver) CategoryOf(name artifacttype.Name) (artifacttype.Category, error) {
	if cat, ok := r.categories[name]; ok {
		return cat, nil
	}
	return "", artifacttype.ErrUnknownType
}

func defaultResolver() stubResolver {
	return stubResolver{categories: map[artifacttype.Name]artifacttype.Category{
		artifacttype.ERD:           artifacttype.CategoryDiagramMermaid,
		artifacttype.Flowchart:     artifacttype.CategoryDiagramMermaid,
		artifacttype.Sequence:      artifacttype.CategoryDiagramMermaid,
		artifacttype.Gantt:         artifacttype.CategoryDiagramMermaid,
		artifacttype.VisualPrototype: artifacttype.CategoryDiagramHTML,
		artifacttype.CodePrototype: artifacttype.CategoryCode,
		artifacttype.APIDocs:       artifacttype.CategoryDoc,
		artifacttype.JIRA:          artifacttype.CategoryDoc,
		artifacttype.Backlog:       artifacttype.CategoryDoc,
	}}
}

const validERD = "```mermaid\nerDiagram\n    USER ||--o{ ORDER : places\n    USER {\n        int id PK\n        string name\n    }\n    ORDER {\n        int id PK\n        int user_id FK\n    }\n```"

func TestValidateERDSuccess(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	res, err := s.ValidateArtifact(artifacttype.ERD, validERD)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.GreaterOrEqual(t, res.Score, 80)
}

func TestValidateERDMissingHeader(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	res, err := s.ValidateArtifact(artifacttype.ERD, "just some text, no diagram here")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Errors, "missing_header")
}

func TestValidateERDInsufficientEntities(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	res, err := s.ValidateArtifact(artifacttype.ERD, "erDiagram\n  USER ||--o{ ORDER : places")
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "insufficient_entities")
}

func TestValidateFlowchart(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	content := "flowchart TD\n  A[Start] --> B[Process]\n  B --> C{Decide}\n  C --> D[End]"
	res, err := s.ValidateArtifact(artifacttype.Flowchart, content)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestValidateGanttRejectsDependToken(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	content := "gantt\ntitle Sprint\ndateFormat YYYY-MM-DD\nTask A depends on Task B :t1, 2024-01-01, 3d"
	res, err := s.ValidateArtifact(artifacttype.Gantt, content)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "invalid_depend_token")
}

func TestValidateHTMLPrototype(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	content := "<html><body><h1>Hi</h1><p>one</p><div>two</div><style>.a{}</style><span>x</span></body></html>"
	res, err := s.ValidateArtifact(artifacttype.VisualPrototype, content)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestValidateHTMLRejectsEmbeddedMermaid(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	content := "<html><body><div>erDiagram\nUSER ||--o{ ORDER : x</div></body></html>"
	res, err := s.ValidateArtifact(artifacttype.VisualPrototype, content)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "embedded_mermaid_content")
}

func TestValidateCodePrototype(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	content := "import (\"fmt\")\n\nfunc Foo() {\n  fmt.Println(\"hi\")\n}"
	res, err := s.ValidateArtifact(artifacttype.CodePrototype, content)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestValidateAPIDocsRequiresEndpointOrSpec(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	res, err := s.ValidateArtifact(artifacttype.APIDocs, "some unrelated prose about the API")
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "no_api_structure_detected")

	res2, err := s.ValidateArtifact(artifacttype.APIDocs, "GET /users returns all users")
	require.NoError(t, err)
	assert.NotContains(t, res2.Errors, "no_api_structure_detected")
}

func TestValidateJiraRequiresStoryShapeAndAcceptanceCriteria(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	res, err := s.ValidateArtifact(artifacttype.JIRA, "As a user, I want to log in so that I can access my account.\n\nAcceptance Criteria:\n- Login succeeds with valid credentials")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestValidateStructuredDocRejectsUnstructuredProse(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	longProse := "this is just a long wall of unstructured prose with no headers or lists at all really just rambling on and on without any structure whatsoever which should fail"
	res, err := s.ValidateArtifact(artifacttype.Backlog, longProse)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "unstructured_prose")
}

func TestValidateUnknownTypeReturnsError(t *testing.T) {
	s := NewService(defaultResolver(), 80)
	_, err := s.ValidateArtifact(artifacttype.Name("bogus"), "x")
	assert.Error(t, err)
}

func TestZeroThresholdAcceptsAnyParseableArtifact(t *testing.T) {
	s := NewService(defaultResolver(), 0)
	res, err := s.ValidateArtifact(artifacttype.ERD, "erDiagram\n  USER ||--o{ ORDER : places")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestCleanupStripsFencesAndPreamble(t *testing.T) {
	raw := "Here is the diagram:\n```mermaid\nerDiagram\nUSER ||--o{ ORDER : places\n```\nLet me know if you need changes."
	cleaned, report := Cleanup(raw, "erd")
	assert.NotContains(t, cleaned, "Here is the diagram")
	assert.NotContains(t, cleaned, "```")
	assert.True(t, report.Converged)
}

func TestCleanupIsIdempotent(t *testing.T) {
	raw := "Here is the diagram:\n```mermaid\nerDiagram\nUSER ||--o{ ORDER : places\n```\n"
	once, _ := Cleanup(raw, "erd")
	twice, _ := Cleanup(once, "erd")
	assert.Equal(t, once, twice)
}

func TestCleanupFixesArrowSyntax(t *testing.T) {
	cleaned, _ := Cleanup("flowchart TD\nA |> B", "flowchart")
	assert.Contains(t, cleaned, "A > B")
}

func TestCleanupCoercesClassSyntaxToERD(t *testing.T) {
	raw := "class USER {\n  +id: int\n  +name: string\n  +save()\n}"
	cleaned, report := Cleanup(raw, "erd")
	assert.Contains(t, cleaned, "USER {")
	assert.Contains(t, cleaned, "int id")
	assert.NotContains(t, cleaned, "+save()")
	assert.Contains(t, report.PassesApplied, "coerce_class_to_erd")
}
