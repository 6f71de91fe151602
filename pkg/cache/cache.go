// Package cache stores detection artifacts keyed by problem content and
// configuration so that repeated runs on an unchanged problem skip the search.
//
// Two implementations are provided: [FileCache] for CLI use, which keeps one
// JSON entry file per key under a directory, and [NullCache], which never
// stores anything and is used for --no-cache.
//
// Keys are built by a [Keyer]. The default keyer hashes every input that
// influences the result, so a changed coefficient or detector window yields
// a different key and stale entries are simply never read again.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long detection results stay valid.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// Keyer derives cache keys for the stages of the detect -> export pipeline.
type Keyer interface {
	// DetectionKey identifies the ranked result of one search.
	DetectionKey(problemHash string, opts DetectionKeyOpts) string

	// ArtifactKey identifies one exported rendering of a detection result.
	ArtifactKey(detectionKey string, opts ArtifactKeyOpts) string
}

// DetectionKeyOpts holds the inputs besides the problem that change a search.
type DetectionKeyOpts struct {
	// Config is any value that serializes the full detection configuration.
	Config any
	// Seeds is the content hash of user-given decompositions, if any.
	Seeds string
	Top   int
}

// ArtifactKeyOpts holds the inputs that change an exported rendering.
type ArtifactKeyOpts struct {
	Format   string
	Detailed bool
}

// NullCache never stores anything. It backs --no-cache.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
