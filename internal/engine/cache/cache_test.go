package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inspection struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

func TestCacheEntry(t *testing.T) {
	entry := NewCacheEntry("k", json.RawMessage(`{"width":4}`), 60)

	assert.False(t, entry.IsExpired())
	assert.Greater(t, entry.TimeUntilExpiration(), time.Duration(0))

	var got inspection
	require.NoError(t, entry.Decode(&got))
	assert.Equal(t, 4, got.Width)

	t.Run("JSON", func(t *testing.T) {
		encoded, err := json.Marshal(entry)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"schema":1`)

		var decoded CacheEntry
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, entry.Key, decoded.Key)
		assert.Equal(t, entry.TTLSeconds, decoded.TTLSeconds)
		assert.Equal(t, entry.CreatedAt.Format(time.RFC3339), decoded.CreatedAt.Format(time.RFC3339))
	})

	t.Run("Expired", func(t *testing.T) {
		expired := *entry
		expired.ExpiresAt = time.Now().Add(-time.Second)
		assert.True(t, expired.IsExpired())
		assert.Equal(t, time.Duration(0), expired.TimeUntilExpiration())
	})

	t.Run("SchemaMismatch", func(t *testing.T) {
		old := *entry
		old.Schema = 0
		assert.ErrorIs(t, old.Decode(&got), ErrSchemaMismatch)
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true, 60)
	require.NoError(t, err)

	key := Key("/textures/shirt.png", 42, time.Unix(100, 0))

	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, store.Set(key, json.RawMessage(`{"width":8}`)))
	entry, err := store.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":8}`, string(entry.Data))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Delete(key))
	require.NoError(t, store.Delete(key))
	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	_, err = store.Get("")
	assert.ErrorIs(t, err, ErrInvalidCacheKey)
}

func TestFileStore_ExpiredAndCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true, 60)
	require.NoError(t, err)

	require.NoError(t, store.Set("fresh", json.RawMessage(`1`)))

	expired := NewCacheEntry("stale", json.RawMessage(`2`), 60)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	data, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.keyToFilePath("stale"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0o600))

	_, err = store.Get("stale")
	assert.ErrorIs(t, err, ErrCacheExpired)

	require.NoError(t, store.Set("stale", json.RawMessage(`2`)))
	require.NoError(t, os.WriteFile(store.keyToFilePath("stale"), data, 0o600))
	require.NoError(t, store.CleanupExpired())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Clear())
	count, err = store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFileStore_Disabled(t *testing.T) {
	store, err := NewFileStore("", false, 0)
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())

	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.ErrorIs(t, store.Set("k", nil), ErrCacheDisabled)
	assert.ErrorIs(t, store.Clear(), ErrCacheDisabled)
}

func TestTiered(t *testing.T) {
	disk, err := NewFileStore(t.TempDir(), true, 60)
	require.NoError(t, err)

	c := NewTiered(4, time.Minute, disk)
	var got inspection
	assert.False(t, c.Get("k", &got))

	require.NoError(t, c.Set("k", inspection{Width: 16, Height: 32, Format: "png"}))
	require.True(t, c.Get("k", &got))
	assert.Equal(t, inspection{Width: 16, Height: 32, Format: "png"}, got)

	// A fresh memory tier over the same disk still hits.
	cold := NewTiered(4, time.Minute, disk)
	var again inspection
	require.True(t, cold.Get("k", &again))
	require.True(t, cold.Get("k", &again))

	assert.Equal(t, Stats{MemoryHits: 1, DiskHits: 0, Misses: 1}, c.Stats())
	assert.Equal(t, Stats{MemoryHits: 1, DiskHits: 1, Misses: 0}, cold.Stats())
}

func TestTiered_NilAndMemoryOnly(t *testing.T) {
	var nilCache *Tiered
	var v inspection
	assert.False(t, nilCache.Get("k", &v))
	assert.NoError(t, nilCache.Set("k", v))

	mem := NewTiered(2, 0, nil)
	require.NoError(t, mem.Set("k", inspection{Width: 1}))
	assert.True(t, mem.Get("k", &v))
}

func TestKey(t *testing.T) {
	mtime := time.Unix(1700000000, 0)
	a := Key("/a.png", 10, mtime)
	assert.Equal(t, a, Key("/a.png", 10, mtime))
	assert.NotEqual(t, a, Key("/a.png", 11, mtime))
	assert.NotEqual(t, a, Key("/a.png", 10, mtime.Add(time.Second)))
}

func TestResolveTTL(t *testing.T) {
	t.Setenv(EnvTTLSeconds, "")
	assert.Equal(t, 3600, ResolveTTL(3600))
	assert.Equal(t, DefaultTTLSeconds, ResolveTTL(5))

	t.Setenv(EnvTTLSeconds, "2h")
	assert.Equal(t, 7200, ResolveTTL(3600))

	t.Setenv(EnvTTLSeconds, "1")
	assert.Equal(t, 3600, ResolveTTL(3600))

	_, err := ParseTTL("10")
	assert.ErrorIs(t, err, ErrInvalidTTL)
	_, err = ParseTTL("abc")
	assert.Error(t, err)
}

func TestResolveEnabled(t *testing.T) {
	t.Setenv(EnvCacheEnabled, "")
	assert.True(t, ResolveEnabled(true))
	t.Setenv(EnvCacheEnabled, "false")
	assert.False(t, ResolveEnabled(true))
	t.Setenv(EnvCacheEnabled, "maybe")
	assert.False(t, ResolveEnabled(false))
}
