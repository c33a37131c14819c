package artifacttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localforge/artisan/internal/store"
)

func TestResolveBuiltins(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	typ, err := r.Resolve(ERD)
	require.NoError(t, err)
	assert.Equal(t, CategoryDiagramMermaid, typ.Category)
	assert.False(t, typ.IsCustom)
}

func TestResolveHTMLVariant(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	typ, err := r.Resolve(HTMLVariant(ERD))
	require.NoError(t, err)
	assert.Equal(t, CategoryDiagramHTML, typ.Category)
}

func TestResolveUnknownType(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	_, err = r.Resolve(Name("does-not-exist"))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegisterCustomRequiresPlaceholders(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	err = r.RegisterCustom(Name("user-story"), "no placeholders here", CategoryDoc)
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestRegisterCustomSucceedsAndResolves(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	tmpl := "Notes: {meeting_notes}\nContext: {context}"
	require.NoError(t, r.RegisterCustom(Name("user-story"), tmpl, CategoryDoc))

	typ, err := r.Resolve(Name("user-story"))
	require.NoError(t, err)
	assert.True(t, typ.IsCustom)
	assert.Equal(t, tmpl, typ.PromptTemplate)
}

func TestRegisterCustomConflictsWithBuiltin(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	tmpl := "{meeting_notes} {context}"
	err = r.RegisterCustom(ERD, tmpl, CategoryDiagramMermaid)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterCustomConflictsWithExistingCustom(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	tmpl := "{meeting_notes} {context}"
	require.NoError(t, r.RegisterCustom(Name("dup"), tmpl, CategoryDoc))
	err = r.RegisterCustom(Name("dup"), tmpl, CategoryDoc)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCustomTypesPersistAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(dir)
	require.NoError(t, err)

	r1, err := NewRegistry(s)
	require.NoError(t, err)
	tmpl := "{meeting_notes} {context}"
	require.NoError(t, r1.RegisterCustom(Name("persona"), tmpl, CategoryDoc))

	r2, err := NewRegistry(s)
	require.NoError(t, err)

	typ, err := r2.Resolve(Name("persona"))
	require.NoError(t, err)
	assert.True(t, typ.IsCustom)
}

func TestPrettyName(t *testing.T) {
	assert.Equal(t, "ERD Diagram", PrettyName(ERD))
	assert.Equal(t, "API Documentation", PrettyName(APIDocs))
	assert.Equal(t, "C4 Context Diagram", PrettyName(C4Context))
}
