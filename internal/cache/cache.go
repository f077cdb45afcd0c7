// Package cache is a best-effort key/value cache with per-entry expiry and
// pattern invalidation. A cache that is unreachable behaves as permanently
// empty: reads miss and writes are dropped, and no error reaches the caller.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get decodes the value at key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) bool
	// Set stores value at key. A ttl of zero uses the cache default.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	// Delete removes key. Missing keys are ignored.
	Delete(ctx context.Context, key string)
	// DeleteMatching removes every key matching a glob pattern and returns
	// how many were removed.
	DeleteMatching(ctx context.Context, pattern string) int
}

// Noop is a Cache that stores nothing.
type Noop struct{}

var _ Cache = Noop{}

// Get always misses.
func (Noop) Get(context.Context, string, any) bool { return false }

// Set discards the value.
func (Noop) Set(context.Context, string, any, time.Duration) {}

// Delete does nothing.
func (Noop) Delete(context.Context, string) {}

// DeleteMatching does nothing.
func (Noop) DeleteMatching(context.Context, string) int { return 0 }
