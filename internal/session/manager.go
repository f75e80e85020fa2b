package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is where results are stored relative to the working directory.
const DefaultDir = ".aptitude/results"

// Manager persists session results as JSON files.
type Manager struct {
	dir string
}

// NewManager creates a manager using the default directory.
func NewManager() *Manager {
	return &Manager{dir: DefaultDir}
}

// NewManagerWithDir creates a manager using a custom directory.
func NewManagerWithDir(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the results directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Save writes r to <dir>/<id>.json, creating the directory if needed.
func (m *Manager) Save(r *Result) error {
	if r == nil || r.ID == "" {
		return errors.New("result ID is required")
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	filename := filepath.Join(m.dir, r.ID+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Load reads the result with the given ID.
func (m *Manager) Load(id string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("result %s not found", id)
		}
		return nil, fmt.Errorf("read result: %w", err)
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", id, err)
	}
	return &r, nil
}

// List returns all stored results, newest first. Unreadable files are skipped.
func (m *Manager) List() ([]*Result, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var results []*Result
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := m.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].EndedAt.After(results[j].EndedAt)
	})
	return results, nil
}
