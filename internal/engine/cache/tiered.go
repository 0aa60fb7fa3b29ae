package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Key builds the lookup key for a texture file. A change to any input
// produces a different key.
func Key(path string, size int64, modTime time.Time) string {
	return fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())
}

// Stats are hit and miss counters for a Tiered cache.
type Stats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}

// Tiered is an expirable LRU in front of a FileStore. Either tier may be
// absent. A Tiered with neither always misses.
type Tiered struct {
	mem  *lru.LRU[string, json.RawMessage]
	disk *FileStore

	memHits  atomic.Int64
	diskHits atomic.Int64
	misses   atomic.Int64
}

// NewTiered creates a cache with lruSize in-memory entries over disk.
// lruSize <= 0 disables the memory tier and disk may be nil.
func NewTiered(lruSize int, ttl time.Duration, disk *FileStore) *Tiered {
	t := &Tiered{disk: disk}
	if lruSize > 0 {
		t.mem = lru.NewLRU[string, json.RawMessage](lruSize, nil, ttl)
	}
	return t
}

// Get decodes the cached value for key into v and reports whether it hit.
func (t *Tiered) Get(key string, v any) bool {
	if t == nil {
		return false
	}
	if t.mem != nil {
		if raw, ok := t.mem.Get(key); ok && json.Unmarshal(raw, v) == nil {
			t.memHits.Add(1)
			return true
		}
	}
	if t.disk != nil && t.disk.IsEnabled() {
		entry, err := t.disk.Get(key)
		if err == nil && entry.Decode(v) == nil {
			if t.mem != nil {
				t.mem.Add(key, entry.Data)
			}
			t.diskHits.Add(1)
			return true
		}
	}
	t.misses.Add(1)
	return false
}

// Set stores v under key in both tiers.
func (t *Tiered) Set(key string, v any) error {
	if t == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if t.mem != nil {
		t.mem.Add(key, raw)
	}
	if t.disk != nil && t.disk.IsEnabled() {
		if setErr := t.disk.Set(key, raw); setErr != nil && !errors.Is(setErr, ErrCacheDisabled) {
			return setErr
		}
	}
	return nil
}

// Stats returns the current counters.
func (t *Tiered) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return Stats{
		MemoryHits: t.memHits.Load(),
		DiskHits:   t.diskHits.Load(),
		Misses:     t.misses.Load(),
	}
}
