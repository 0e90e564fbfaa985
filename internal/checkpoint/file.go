package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists checkpoint state as a JSON file, written atomically
// via a temp-file rename so a crash mid-write cannot corrupt it.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (*State, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint %s: %w", f.path, err)
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", f.path, err)
	}
	return &s, nil
}

func (f *FileStore) Save(_ context.Context, s *State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing checkpoint %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing checkpoint %s: %w", f.path, err)
	}
	return nil
}

// ErrorEntry is one failed unit, written to the errors file at end of run
// so failures can be inspected without re-running.
type ErrorEntry struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Error    string `json:"error"`
}

// ErrorLog accumulates failed units in memory and flushes them as one JSON
// array.
type ErrorLog struct {
	entries []ErrorEntry
}

// Add records a failed unit.
func (e *ErrorLog) Add(identity, name, city string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.entries = append(e.entries, ErrorEntry{Identity: identity, Name: name, City: city, Error: msg})
}

// Len returns the number of recorded failures.
func (e *ErrorLog) Len() int {
	return len(e.entries)
}

// WriteFile writes the collected entries to path. With no entries it
// writes nothing and removes any stale file from a previous run.
func (e *ErrorLog) WriteFile(path string) error {
	if len(e.entries) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale errors file %s: %w", path, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating errors dir %s: %w", dir, err)
		}
	}

	b, err := json.MarshalIndent(e.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling errors: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing errors file %s: %w", path, err)
	}
	return nil
}
