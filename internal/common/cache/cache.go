// Package cache stores fetched remote documents keyed by resolved URL.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a fetched document is considered fresh
const DefaultTTL = time.Hour

// Store is a key -> document cache with a fixed time-to-live
type Store interface {
	// Get returns the value for key when present and fresh
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key, overwriting any previous entry
	Put(ctx context.Context, key string, value []byte) error
	// Clear drops every entry
	Clear(ctx context.Context) error
}
