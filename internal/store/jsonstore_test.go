package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAndReadJSONRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	in := sample{Name: "erd", Count: 3}
	require.NoError(t, s.WriteJSON("models.json", in))

	var out sample
	require.NoError(t, s.ReadJSON("models.json", &out))
	assert.Equal(t, in, out)
}

func TestWriteJSONIsAtomic(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.WriteJSON("routings.json", sample{Name: "x"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestExistsAndRemove(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.False(t, s.Exists("graph.json"))
	require.NoError(t, s.WriteJSON("graph.json", sample{}))
	assert.True(t, s.Exists("graph.json"))

	require.NoError(t, s.Remove("graph.json"))
	assert.False(t, s.Exists("graph.json"))

	// removing a missing file is not an error
	require.NoError(t, s.Remove("graph.json"))
}

func TestListSubdirectory(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.WriteJSON(filepath.Join("jobs", "job-1.json"), sample{Name: "job-1"}))
	require.NoError(t, s.WriteJSON(filepath.Join("jobs", "job-2.json"), sample{Name: "job-2"}))

	names, err := s.List("jobs")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestListMissingSubdirectoryReturnsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	names, err := s.List("nonexistent")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReadJSONMissingFileReturnsOSError(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	var out sample
	err = s.ReadJSON("missing.json", &out)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
