package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FSStore materializes assets as files under a root directory. File names are
// derived from the cache key plus the original extension so re-downloads of
// the same asset overwrite in place.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Materialize(_ context.Context, key, name string, data []byte) (Handle, error) {
	if s == nil {
		return Handle{}, fmt.Errorf("blob: store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Handle{}, fmt.Errorf("blob: key is required")
	}
	file := hashedName(key) + extOf(name)
	path := filepath.Join(s.root, file)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Handle{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Handle{}, err
	}
	return Handle{Key: key, Location: path}, nil
}

func (s *FSStore) Stat(_ context.Context, h Handle) bool {
	if s == nil || h.Location == "" {
		return false
	}
	if _, err := os.Stat(h.Location); err != nil {
		return false
	}
	// Touch so downstream garbage collection sees the file as in use.
	now := time.Now()
	_ = os.Chtimes(h.Location, now, now)
	return true
}

func hashedName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func extOf(name string) string {
	ext := filepath.Ext(strings.TrimSpace(name))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
