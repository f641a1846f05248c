// Package cache stores rendered artifacts and decoded imports.
//
// # Overview
//
// A [Cache] is a byte store with per-entry TTLs. Three implementations are
// provided:
//
//   - [FileCache] keeps entries under a directory, for the CLI
//   - [RedisCache] shares entries between server instances
//   - [NullCache] stores nothing, for --no-cache and the "none" backend
//
// # Keys
//
// A [Keyer] builds keys from content hashes, so a document that has not
// changed maps to the same key no matter where it came from:
//
//	keyer := cache.NewDefaultKeyer()
//	docHash := cache.Hash(documentJSON)
//	key := keyer.ArtifactKey(docHash, cache.ArtifactKeyOpts{Format: "svg"})
//
// A shared Redis cache wraps the keyer with [NewScopedKeyer] and
// [RedisNamespace].
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLImport   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store keyed by string.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the cache's resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ImportKey keys a decoded document by the hash of its source bytes.
	ImportKey(contentHash string) string
	// ArtifactKey keys a rendered artifact by document hash and options.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Page     string `json:"page,omitempty"`
	Format   string `json:"format"`
	Pinned   bool   `json:"pinned,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// NullCache disables caching: Get always misses and Set drops its data.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }
