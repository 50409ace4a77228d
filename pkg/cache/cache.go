// Package cache stores rendered artifacts keyed by their inputs.
//
// Rendering a graph through Graphviz is the slowest step of a run, so the
// pipeline keys DOT and SVG output by a hash of the document and the render
// options and consults a [Cache] before rendering again. Three backends are
// provided:
//   - [NullCache]: never stores anything (tests, --no-cache)
//   - [FileCache]: one file per entry under a directory (CLI)
//   - [RedisCache]: shared storage for several server instances
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long artifacts are kept when the caller has no
// preference.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures, which callers may treat as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
