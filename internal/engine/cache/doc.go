// Package cache stores texture inspection results so unchanged textures are
// not decoded again on the next run. Key features:
//   - File-based JSON entries under ~/.clothgen/cache/ with a TTL
//   - An in-memory LRU tier in front of the file store
//   - Keys derived from path, size and modification time, so an edited
//     texture never hits a stale entry
//
// Both tiers are safe for concurrent use from background phases.
package cache
