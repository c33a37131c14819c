package sprintpkg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/contextbuilder"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/orchestrator"
	"github.com/localforge/artisan/internal/providers"
	"github.com/localforge/artisan/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validERD = `erDiagram
USER {
    string id PK
}
ORDER {
    string id PK
}
USER ||--o{ ORDER : places`

const validAPIDocs = `# API

## GET /users
Returns all users.`

type nilPool struct{}

func (nilPool) AddExample(artifacttype.Name, string, string, int, string, string) error { return nil }

type nilGraph struct{}

func (nilGraph) RegisterArtifact(string, artifacttype.Name, string, map[string]string) error {
	return nil
}

type nilRenderer struct{}

func (nilRenderer) RenderHTML(content string, t artifacttype.Name) (string, error) { return "", nil }

type nilVRAM struct{}

func (nilVRAM) Unload(string) error { return nil }

// newTestGenerator wires a Generator against a real Orchestrator whose
// Ollama calls are served by ollamaHandler, so every preset artifact's
// generation actually runs the C5 pipeline end to end.
func newTestGenerator(t *testing.T, ollamaHandler http.HandlerFunc) (*Generator, func()) {
	t.Helper()

	typeRegistry, err := artifacttype.NewRegistry(nil)
	require.NoError(t, err)
	modelRegistry, err := modelregistry.NewRegistry(nil)
	require.NoError(t, err)
	validationSvc := validation.NewService(typeRegistry, 80)
	contextBuilder := contextbuilder.NewBuilder(contextbuilder.DefaultBudget(), nil, nil, nil, nil)

	srv := httptest.NewServer(ollamaHandler)

	providerSet := &providers.Set{Ollama: providers.NewOllamaClient(srv.URL)}

	gen := config.GenerationConfig{
		Temperature:        0.2,
		MaxRetriesPerModel: 1,
		LocalCallTimeout:   5 * time.Second,
		CloudCallTimeout:   5 * time.Second,
		CloudMaxTokens:     2048,
		LocalContextWindow: 4096,
		CloudBackoffBase:   time.Millisecond,
		CloudBackoffCap:    10 * time.Millisecond,
		CloudMaxAttempts:   1,
	}

	for _, rt := range []modelregistry.Routing{
		{ArtifactType: artifacttype.ERD, PrimaryModel: "ollama:llama3", Enabled: true},
		{ArtifactType: artifacttype.APIDocs, PrimaryModel: "ollama:llama3", Enabled: true},
	} {
		require.NoError(t, modelRegistry.UpdateRouting([]modelregistry.Routing{rt}))
	}

	orch := orchestrator.New(gen, config.ProvidersConfig{}, typeRegistry, modelRegistry, validationSvc, contextBuilder,
		providerSet, nil, nilPool{}, nilGraph{}, nilRenderer{}, nilVRAM{}, nil, nil)

	return New(orch, gen, nil), srv.Close
}

// ollamaRespondsByArtifact returns whichever fixture validates for the
// artifact type being requested, based on presence of the excerpt header
// buildEnhancedNotes adds for artifacts completed earlier in a package.
func ollamaRespondsByArtifact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		response := validERD
		if strings.Contains(body.Prompt, "Artifacts already produced") {
			response = validAPIDocs
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"response": response, "done": true})
	}
}

func TestGeneratePackageQuickPresetRunsBothArtifactsInOrder(t *testing.T) {
	g, closeSrv := newTestGenerator(t, ollamaRespondsByArtifact())
	defer closeSrv()

	result, err := g.GeneratePackage(context.Background(), "build a small CRUD service", "quick", nil, nil)
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 2)
	assert.Equal(t, artifacttype.ERD, result.Artifacts[0].Type)
	assert.Equal(t, artifacttype.APIDocs, result.Artifacts[1].Type)
	assert.True(t, result.Artifacts[0].Success)
	assert.True(t, result.Artifacts[1].Success)
	assert.Equal(t, 1.0, result.SuccessRate)
	assert.Empty(t, result.FailedArtifacts)
	assert.NotEmpty(t, result.PackageID)
}

func TestGeneratePackageUnknownPresetErrors(t *testing.T) {
	g, closeSrv := newTestGenerator(t, ollamaRespondsByArtifact())
	defer closeSrv()

	_, err := g.GeneratePackage(context.Background(), "notes", "not-a-real-preset", nil, nil)
	assert.Error(t, err)
}

func TestGeneratePackageUsesCustomTypesWithoutPreset(t *testing.T) {
	g, closeSrv := newTestGenerator(t, ollamaRespondsByArtifact())
	defer closeSrv()

	result, err := g.GeneratePackage(context.Background(), "notes", "", []artifacttype.Name{artifacttype.ERD}, nil)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, artifacttype.ERD, result.Artifacts[0].Type)
}

func TestGeneratePackageProgressCallbackNeverPanicsCaller(t *testing.T) {
	g, closeSrv := newTestGenerator(t, ollamaRespondsByArtifact())
	defer closeSrv()

	panicky := func(ProgressEvent) { panic("boom") }

	assert.NotPanics(t, func() {
		result, err := g.GeneratePackage(context.Background(), "notes", "quick", nil, panicky)
		require.NoError(t, err)
		assert.Len(t, result.Artifacts, 2)
	})
}

func TestBuildEnhancedNotesIncludesLabeledExcerpts(t *testing.T) {
	completed := []ArtifactResult{{Type: artifacttype.ERD, Content: validERD}}
	enhanced := buildEnhancedNotes("original notes", completed)
	assert.Contains(t, enhanced, "original notes")
	assert.Contains(t, enhanced, string(artifacttype.ERD))
	assert.Contains(t, enhanced, "USER")
}
