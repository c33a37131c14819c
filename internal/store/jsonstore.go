// Package store implements Artisan's persistence layer: JSON documents
// written atomically via write-to-temp-then-rename, grounded on the
// write/rename pattern the teacher's prompt_evolution.evolver uses for its
// promoted-atom files.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes JSON documents under a base directory.
type Store struct {
	baseDir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{baseDir: dir}, nil
}

// Path resolves a relative document name to its absolute path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// WriteJSON marshals v and writes it atomically: write to a temp file in
// the same directory, fsync, then rename over the target. A reader never
// observes a partially-written document.
func (s *Store) WriteJSON(name string, v interface{}) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", name, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file into place for %s: %w", name, err)
	}
	return nil
}

// ReadJSON unmarshals the named document into v. ErrNotExist-wrapping
// callers should check os.IsNotExist on the returned error.
func (s *Store) ReadJSON(name string, v interface{}) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named document is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Remove deletes the named document. Missing files are not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns document names under a relative subdirectory, e.g. "jobs".
func (s *Store) List(subdir string) ([]string, error) {
	entries, err := os.ReadDir(s.Path(subdir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, filepath.Join(subdir, e.Name()))
		}
	}
	return names, nil
}
