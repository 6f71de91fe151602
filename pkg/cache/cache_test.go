package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	_, hit, _ = c.Get(ctx, "key")
	assert.False(t, hit, "NullCache should not store data")

	assert.NoError(t, c.Delete(ctx, "key"))
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "detect:abc", []byte("payload"), time.Hour))
	data, hit, err := c.Get(ctx, "detect:abc")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("payload"), data)

	_, hit, err = c.Get(ctx, "detect:other")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Delete(ctx, "detect:abc"))
	_, hit, _ = c.Get(ctx, "detect:abc")
	assert.False(t, hit)
	assert.NoError(t, c.Delete(ctx, "detect:abc"), "deleting a missing key")
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(2 * time.Minute)
	_, hit, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, hit)
	_, statErr := os.Stat(c.path("short"))
	assert.True(t, os.IsNotExist(statErr), "expired entry is removed")

	_, hit, _ = c.Get(ctx, "forever")
	assert.True(t, hit)
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	path := c.path("bad")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, hit, err := c.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	n, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	assert.Equal(t, h1, Hash([]byte("hello")))
	assert.NotEqual(t, h1, Hash([]byte("world")))
	assert.Len(t, h1, 64)
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	type cfg struct{ Rounds int }
	d1 := k.DetectionKey("p1", DetectionKeyOpts{Config: cfg{3}, Top: 5})
	d2 := k.DetectionKey("p1", DetectionKeyOpts{Config: cfg{4}, Top: 5})
	d3 := k.DetectionKey("p2", DetectionKeyOpts{Config: cfg{3}, Top: 5})
	assert.NotEqual(t, d1, d2, "config is part of the key")
	assert.NotEqual(t, d1, d3, "problem is part of the key")
	assert.Equal(t, d1, k.DetectionKey("p1", DetectionKeyOpts{Config: cfg{3}, Top: 5}))
	assert.Contains(t, d1, "detect:")

	a1 := k.ArtifactKey(d1, ArtifactKeyOpts{Format: "dec"})
	a2 := k.ArtifactKey(d1, ArtifactKeyOpts{Format: "svg"})
	a3 := k.ArtifactKey(d1, ArtifactKeyOpts{Format: "svg", Detailed: true})
	assert.NotEqual(t, a1, a2)
	assert.NotEqual(t, a2, a3)
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
	inner := NewDefaultKeyer()

	opts := DetectionKeyOpts{Top: 1}
	assert.Equal(t, "v1.2.0:"+inner.DetectionKey("h", opts), scoped.DetectionKey("h", opts))
	assert.Equal(t, "v1.2.0:"+inner.ArtifactKey("d", ArtifactKeyOpts{Format: "json"}),
		scoped.ArtifactKey("d", ArtifactKeyOpts{Format: "json"}))
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	assert.Equal(t, "prefix:"+NewDefaultKeyer().DetectionKey("h", DetectionKeyOpts{}),
		scoped.DetectionKey("h", DetectionKeyOpts{}))
}
