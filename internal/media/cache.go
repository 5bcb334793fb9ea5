package media

import (
	"context"
	"log"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"contentbridge/internal/api"
	"contentbridge/internal/media/blob"
)

const frontCacheSize = 1024

// MetricsSnapshot is reported at the end of a run.
type MetricsSnapshot struct {
	Hits      uint64
	Misses    uint64
	Downloads uint64
	Failures  uint64
}

type metrics struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	downloads atomic.Uint64
	failures  atomic.Uint64
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Downloads: m.downloads.Load(),
		Failures:  m.failures.Load(),
	}
}

// Cache avoids re-downloading unchanged assets across runs. A small LRU sits
// in front of the persistent manifest so assets repeated within one run skip
// manifest I/O. Miss downloads for the same key are single-flighted:
// concurrent mapping of the same asset must not double-download.
type Cache struct {
	client   *api.Client
	store    blob.Store
	manifest Manifest

	front   *lru.Cache[string, Entry]
	group   singleflight.Group
	metrics metrics
}

func NewCache(client *api.Client, store blob.Store, manifest Manifest) (*Cache, error) {
	front, err := lru.New[string, Entry](frontCacheSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		client:   client,
		store:    store,
		manifest: manifest,
		front:    front,
	}, nil
}

// Resolve returns a handle for the descriptor's asset. It never fails: on any
// download or storage problem it logs and reports absent, and the caller
// passes the raw descriptor through as a fallback.
func (c *Cache) Resolve(ctx context.Context, d Descriptor) (blob.Handle, bool) {
	if c == nil || !d.Valid() {
		return blob.Handle{}, false
	}
	key := d.CacheKey()

	if e, ok := c.front.Get(key); ok && c.fresh(ctx, e, d) {
		c.metrics.hits.Add(1)
		return e.Handle, true
	}
	if e, ok, err := c.manifest.Get(ctx, key); err != nil {
		log.Printf("media: manifest read %s: %v", key, err)
	} else if ok && c.fresh(ctx, e, d) {
		c.metrics.hits.Add(1)
		c.front.Add(key, e)
		return e.Handle, true
	}
	c.metrics.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.materialize(ctx, key, d)
	})
	if err != nil {
		c.metrics.failures.Add(1)
		log.Printf("media: asset %s (%s): %v", key, d.URL, err)
		return blob.Handle{}, false
	}
	return v.(blob.Handle), true
}

// fresh reports a usable cached entry: exact lastModified match and a handle
// that still resolves to a live object. Descriptors that never carry a
// timestamp match on the empty string and hit on the Stat check alone.
func (c *Cache) fresh(ctx context.Context, e Entry, d Descriptor) bool {
	if e.LastModified != d.LastModified {
		return false
	}
	return c.store.Stat(ctx, e.Handle)
}

func (c *Cache) materialize(ctx context.Context, key string, d Descriptor) (blob.Handle, error) {
	c.metrics.downloads.Add(1)
	data, err := c.client.Download(ctx, d.URL)
	if err != nil {
		return blob.Handle{}, err
	}
	h, err := c.store.Materialize(ctx, key, d.Name, data)
	if err != nil {
		return blob.Handle{}, err
	}
	e := Entry{Key: key, Handle: h, LastModified: d.LastModified}
	if err := c.manifest.Put(ctx, e); err != nil {
		// The asset is stored; a manifest write failure only costs a
		// re-download next run.
		log.Printf("media: manifest write %s: %v", key, err)
	}
	c.front.Add(key, e)
	return h, nil
}

func (c *Cache) Metrics() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return c.metrics.snapshot()
}
