package cache

// ScopedKeyer wraps a Keyer with a prefix so that results of different
// builds never collide:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), buildinfo.Version+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DetectionKey generates a prefixed detection key.
func (k *ScopedKeyer) DetectionKey(problemHash string, opts DetectionKeyOpts) string {
	return k.prefix + k.inner.DetectionKey(problemHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(detectionKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(detectionKey, opts)
}
