package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
)

// ContentCache memoizes assembled DetectionResults keyed by the perceptual
// hash of the original image, on top of a durable BlobStore.
//
// The cache additionally guarantees at most one in-flight computation per
// key: concurrent callers of Do with the same uncached key all receive the
// result of a single computation. The in-flight marker is released on both
// success and failure, so a failed computation can be retried by a later
// caller rather than poisoning the cache.
//
// Construct one ContentCache per process and Close it on shutdown; tests
// use an isolated instance per test rather than a shared singleton.
type ContentCache struct {
	store BlobStore
	group singleflight.Group
}

// New creates a content cache over the given backing store.
func New(store BlobStore) *ContentCache {
	return &ContentCache{store: store}
}

// Get returns the cached result for key. The boolean reports whether the
// entry was found. Store failures are returned wrapped in
// graph.ErrCacheUnavailable; a corrupt entry is dropped and treated as a
// miss.
func (c *ContentCache) Get(key string) (*graph.DetectionResult, bool, error) {
	blob, err := c.store.Read(key)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", graph.ErrCacheUnavailable, err)
	}

	var entry graph.CacheEntry
	if err := json.Unmarshal(blob, &entry); err != nil || entry.Result == nil {
		logger.Warn("dropping corrupt cache entry %s", key)
		_ = c.store.Delete(key)
		return nil, false, nil
	}
	return entry.Result, true, nil
}

// Set stores or overwrites the result for key.
func (c *ContentCache) Set(key string, result *graph.DetectionResult) error {
	entry := graph.CacheEntry{Key: key, Result: result, CreatedAt: time.Now().UTC()}
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: encoding entry: %v", graph.ErrCacheUnavailable, err)
	}
	if err := c.store.Write(key, blob); err != nil {
		return fmt.Errorf("%w: %v", graph.ErrCacheUnavailable, err)
	}
	return nil
}

// Invalidate removes the entry for key.
func (c *ContentCache) Invalidate(key string) error {
	if err := c.store.Delete(key); err != nil {
		return fmt.Errorf("%w: %v", graph.ErrCacheUnavailable, err)
	}
	return nil
}

// InvalidateAll removes every entry.
func (c *ContentCache) InvalidateAll() error {
	keys, err := c.store.Keys()
	if err != nil {
		return fmt.Errorf("%w: %v", graph.ErrCacheUnavailable, err)
	}
	for _, k := range keys {
		if err := c.store.Delete(k); err != nil {
			return fmt.Errorf("%w: %v", graph.ErrCacheUnavailable, err)
		}
	}
	return nil
}

// Do runs compute under the per-key in-flight marker: the first caller for
// key executes compute, concurrent callers with the same key wait for and
// share that execution's result. The marker is removed once compute
// returns, regardless of outcome.
func (c *ContentCache) Do(key string, compute func() (*graph.DetectionResult, error)) (*graph.DetectionResult, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("cache: shared in-flight computation for %s", key)
	}
	return v.(*graph.DetectionResult), nil
}

// Close releases the backing store.
func (c *ContentCache) Close() error {
	return c.store.Close()
}
