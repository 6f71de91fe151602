package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DetectionKey returns "detect:<hash>".
func (DefaultKeyer) DetectionKey(problemHash string, opts DetectionKeyOpts) string {
	return hashKey("detect", problemHash, opts.Config, opts.Seeds, opts.Top)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(detectionKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", detectionKey, opts.Format, opts.Detailed)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
