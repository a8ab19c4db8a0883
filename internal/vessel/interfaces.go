package vessel

import (
	"context"
	"time"
)

// Fetcher retrieves the fully rendered content of a detail page reference.
// It returns either a complete page or an error, never partial content.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Page, error)
}

// Extractor converts rendered page content into a best-effort Record.
// Extraction never fails; fields that cannot be recovered are left absent.
type Extractor interface {
	Extract(page Page) Record
}

// Resolver produces one Record for one reference, end to end. It never
// returns an error: a failed pipeline yields a deterministic synthetic
// record instead.
type Resolver interface {
	Resolve(ctx context.Context, ref string) Record
}

// Cache is the tiered record cache keyed by vessel identity.
type Cache interface {
	Get(ctx context.Context, key string) (CacheEntry, bool)
	Set(ctx context.Context, key string, rec Record, origin Origin)
	SetWithTTL(ctx context.Context, key string, rec Record, origin Origin, ttl time.Duration)
	Has(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Cleanup(ctx context.Context)
	Stats(ctx context.Context) CacheStats
}

// Registry supplies fleet vessels. Create/update/delete live with the
// owning service; the tracking subsystem only reads.
type Registry interface {
	Get(ctx context.Context, id string) (Vessel, error)
	List(ctx context.Context) ([]Vessel, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
