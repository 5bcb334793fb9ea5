package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob: object not found")

// Handle is an opaque reference to a materialized asset.
type Handle struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}

func (h Handle) Zero() bool { return h.Key == "" && h.Location == "" }

// Store persists downloaded asset bytes. Materialize must be idempotent for
// the same key and content.
type Store interface {
	// Materialize writes the bytes under key and returns a handle to the
	// stored object.
	Materialize(ctx context.Context, key, name string, data []byte) (Handle, error)
	// Stat reports whether a previously returned handle still resolves to
	// a live object. Implementations may touch the object so sink-side
	// lifecycles do not collect it.
	Stat(ctx context.Context, h Handle) bool
}
