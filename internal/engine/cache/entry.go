package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// entrySchema is bumped whenever the stored payload shape changes. Entries
// written under another schema are treated as misses.
const entrySchema = 1

// ErrSchemaMismatch reports an entry written by an incompatible build.
var ErrSchemaMismatch = errors.New("cache entry schema mismatch")

// CacheEntry is one persisted inspection result with TTL metadata.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	Key        string
	Data       json.RawMessage
	CreatedAt  time.Time
	ExpiresAt  time.Time
	TTLSeconds int
	Schema     int
}

// NewCacheEntry creates an entry that expires ttlSeconds from now.
func NewCacheEntry(key string, data json.RawMessage, ttlSeconds int) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Key:        key,
		Data:       data,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttlSeconds) * time.Second),
		TTLSeconds: ttlSeconds,
		Schema:     entrySchema,
	}
}

// IsExpired reports whether the entry is past its expiry.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TimeUntilExpiration returns 0 once expired.
func (e *CacheEntry) TimeUntilExpiration() time.Duration {
	if remaining := time.Until(e.ExpiresAt); remaining > 0 {
		return remaining
	}
	return 0
}

// Decode unmarshals Data into v.
func (e *CacheEntry) Decode(v any) error {
	if e.Schema != entrySchema {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, e.Schema, entrySchema)
	}
	return json.Unmarshal(e.Data, v)
}

// entryWire is the on-disk form. Times are RFC3339 for readability.
type entryWire struct {
	Key        string          `json:"key"`
	Schema     int             `json:"schema"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at"`
	ExpiresAt  string          `json:"expires_at"`
	TTLSeconds int             `json:"ttl_seconds"`
}

// MarshalJSON implements json.Marshaler.
func (e *CacheEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryWire{
		Key:        e.Key,
		Schema:     e.Schema,
		Data:       e.Data,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		ExpiresAt:  e.ExpiresAt.Format(time.RFC3339),
		TTLSeconds: e.TTLSeconds,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CacheEntry) UnmarshalJSON(data []byte) error {
	if e == nil {
		return errors.New("cannot unmarshal into nil CacheEntry")
	}
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	created, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		return err
	}
	expires, err := time.Parse(time.RFC3339, w.ExpiresAt)
	if err != nil {
		return err
	}
	*e = CacheEntry{
		Key:        w.Key,
		Data:       w.Data,
		CreatedAt:  created,
		ExpiresAt:  expires,
		TTLSeconds: w.TTLSeconds,
		Schema:     w.Schema,
	}
	return nil
}
