package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"contentbridge/internal/media/blob"
)

// Entry records one materialized asset. Entries are written after successful
// downloads and never deleted by the cache; staleness is a LastModified
// mismatch, not an eviction.
type Entry struct {
	Key          string      `json:"key"`
	Handle       blob.Handle `json:"handle"`
	LastModified string      `json:"last_modified"`
}

// Manifest persists cache entries across runs.
type Manifest interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
}

type manifestFile struct {
	Entries map[string]Entry `json:"entries"`
}

// FileManifest keeps the manifest as a JSON index on disk, persisted with a
// tmp-file rename on every write.
type FileManifest struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

func NewFileManifest(path string) (*FileManifest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("media: manifest path is required")
	}
	m := &FileManifest{path: path, entries: map[string]Entry{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	var f manifestFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("media: corrupt manifest %s: %w", path, err)
	}
	if f.Entries != nil {
		m.entries = f.Entries
	}
	return m, nil
}

func (m *FileManifest) Get(_ context.Context, key string) (Entry, bool, error) {
	if m == nil {
		return Entry{}, false, fmt.Errorf("media: manifest is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *FileManifest) Put(_ context.Context, e Entry) error {
	if m == nil {
		return fmt.Errorf("media: manifest is nil")
	}
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("media: entry key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Key] = e
	return m.persistLocked()
}

func (m *FileManifest) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(manifestFile{Entries: m.entries}, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
