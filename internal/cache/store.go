// Package cache implements the tiered vessel record cache: a fast
// in-process tier in front of a durable tier, with promotion on read and
// TTL-differentiated writes.
package cache

import (
	"context"
	"errors"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

// ErrNotFound indicates the key is absent from a store.
var ErrNotFound = errors.New("cache: entry not found")

// Store is one cache tier. Implementations must treat entries as opaque
// full replacements; expiry interpretation belongs to the Tiered layer.
type Store interface {
	Get(ctx context.Context, key string) (vessel.CacheEntry, error)
	Set(ctx context.Context, key string, entry vessel.CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Len(ctx context.Context) (int, error)
}
