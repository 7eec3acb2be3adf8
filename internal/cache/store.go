package cache

import "errors"

// ErrNotFound signals a key absent from a blob store. It is internal to the
// cache layer; ContentCache translates it into a miss.
var ErrNotFound = errors.New("cache entry not found")

// BlobStore is a durable key -> blob store backing the content cache.
//
// Writes must be atomic at single-entry granularity: a reader must never
// observe a partially written blob. Implementations must be safe for
// concurrent use.
type BlobStore interface {
	// Read returns the blob for key, or ErrNotFound.
	Read(key string) ([]byte, error)

	// Write stores or overwrites the blob for key.
	Write(key string, blob []byte) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(key string) error

	// Keys lists all stored keys.
	Keys() ([]string, error)

	// Close releases store resources, flushing any pending writes.
	Close() error
}
