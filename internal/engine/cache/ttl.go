package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultTTLSeconds is one day. Entries are keyed on mtime, so a long TTL
	// only bounds disk growth.
	DefaultTTLSeconds = 86400

	// MinTTLSeconds is the minimum allowed TTL (1 minute).
	MinTTLSeconds = 60

	// MaxTTLSeconds is the maximum allowed TTL (30 days).
	MaxTTLSeconds = 30 * 86400

	// DefaultLRUSize is the default number of in-memory entries.
	DefaultLRUSize = 512

	// EnvTTLSeconds overrides the TTL.
	EnvTTLSeconds = "CLOTHGEN_CACHE_TTL_SECONDS"

	// EnvCacheEnabled enables or disables the cache.
	EnvCacheEnabled = "CLOTHGEN_CACHE_ENABLED"
)

// ErrInvalidTTL is returned for TTLs outside the allowed range.
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// ResolveTTL picks the TTL from env, then the configured value, then the
// default. Out-of-range values fall through to the next source.
func ResolveTTL(configured int) int {
	if envVal := os.Getenv(EnvTTLSeconds); envVal != "" {
		if ttl, err := ParseTTL(envVal); err == nil {
			return ttl
		}
	}
	if configured >= MinTTLSeconds && configured <= MaxTTLSeconds {
		return configured
	}
	return DefaultTTLSeconds
}

// ResolveEnabled applies CLOTHGEN_CACHE_ENABLED over the configured value.
func ResolveEnabled(configured bool) bool {
	envVal := os.Getenv(EnvCacheEnabled)
	if envVal == "" {
		return configured
	}
	enabled, err := strconv.ParseBool(envVal)
	if err != nil {
		return configured
	}
	return enabled
}

// ParseTTL parses a TTL string in various formats:
//   - Integer seconds: "3600".
//   - Duration string: "1h", "30m", "1h30m".
func ParseTTL(s string) (int, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		duration, durErr := time.ParseDuration(s)
		if durErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", durErr)
		}
		seconds = int(duration.Seconds())
	}

	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return seconds, nil
}
