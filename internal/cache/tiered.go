package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/metrics"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

// TTLConfig holds the expiry class durations and the fast-tier size at
// which opportunistic cleanup kicks in.
type TTLConfig struct {
	Success          time.Duration
	Default          time.Duration
	Error            time.Duration
	CleanupThreshold int
}

// DefaultTTLs matches the freshness policy of the tracking pipeline:
// live data ages out in minutes, failures are held just long enough to
// suppress retry storms.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		Success:          10 * time.Minute,
		Default:          5 * time.Minute,
		Error:            2 * time.Minute,
		CleanupThreshold: 512,
	}
}

func (c TTLConfig) ttlFor(origin vessel.Origin) time.Duration {
	switch origin {
	case vessel.OriginSuccess:
		return c.Success
	case vessel.OriginError:
		return c.Error
	default:
		return c.Default
	}
}

// Tiered implements vessel.Cache over a fast in-process tier and a
// durable tier. Durable-tier failures are logged and degrade reads and
// writes to fast-tier-only; they never propagate to callers.
type Tiered struct {
	fast    *Memory
	durable Store
	clock   vessel.Clock
	ttls    TTLConfig
	logger  *zap.Logger
}

// NewTiered builds a tiered cache. durable may be nil, in which case only
// the fast tier is used.
func NewTiered(durable Store, clk vessel.Clock, ttls TTLConfig, logger *zap.Logger) *Tiered {
	if ttls.Success <= 0 {
		ttls = DefaultTTLs()
	}
	return &Tiered{
		fast:    NewMemory(),
		durable: durable,
		clock:   clk,
		ttls:    ttls,
		logger:  logger,
	}
}

// Get returns the cached record entry for key if present and unexpired,
// promoting durable hits back into the fast tier.
func (t *Tiered) Get(ctx context.Context, key string) (vessel.CacheEntry, bool) {
	now := t.clock.Now()

	entry, err := t.fast.Get(ctx, key)
	if err == nil {
		if !entry.Expired(now) {
			metrics.CacheRequests.WithLabelValues("fast", "hit").Inc()
			return entry, true
		}
		metrics.CacheRequests.WithLabelValues("fast", "expired").Inc()
		_ = t.fast.Delete(ctx, key)
	} else {
		metrics.CacheRequests.WithLabelValues("fast", "miss").Inc()
	}

	if t.durable == nil {
		return vessel.CacheEntry{}, false
	}

	entry, err = t.durable.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			t.logger.Warn("durable cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheRequests.WithLabelValues("durable", "miss").Inc()
		return vessel.CacheEntry{}, false
	}
	if entry.Expired(now) {
		metrics.CacheRequests.WithLabelValues("durable", "expired").Inc()
		if err := t.durable.Delete(ctx, key); err != nil {
			t.logger.Warn("durable cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return vessel.CacheEntry{}, false
	}

	metrics.CacheRequests.WithLabelValues("durable", "hit").Inc()
	_ = t.fast.Set(ctx, key, entry)
	return entry, true
}

// Set writes the record to both tiers with the TTL of its origin class.
func (t *Tiered) Set(ctx context.Context, key string, rec vessel.Record, origin vessel.Origin) {
	t.SetWithTTL(ctx, key, rec, origin, t.ttls.ttlFor(origin))
}

// SetWithTTL writes the record to both tiers with an explicit TTL. The
// write fully replaces any prior entry for the key.
func (t *Tiered) SetWithTTL(ctx context.Context, key string, rec vessel.Record, origin vessel.Origin, ttl time.Duration) {
	now := t.clock.Now()
	entry := vessel.CacheEntry{
		Record:    rec,
		Origin:    origin,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_ = t.fast.Set(ctx, key, entry)
	if t.durable != nil {
		if err := t.durable.Set(ctx, key, entry); err != nil {
			t.logger.Warn("durable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	t.maybeCleanup(ctx)
}

// Has reports whether an unexpired entry exists for key.
func (t *Tiered) Has(ctx context.Context, key string) bool {
	_, ok := t.Get(ctx, key)
	return ok
}

// Delete removes the entry from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) {
	_ = t.fast.Delete(ctx, key)
	if t.durable != nil {
		if err := t.durable.Delete(ctx, key); err != nil {
			t.logger.Warn("durable cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Clear empties both tiers.
func (t *Tiered) Clear(ctx context.Context) {
	_ = t.fast.Clear(ctx)
	if t.durable != nil {
		if err := t.durable.Clear(ctx); err != nil {
			t.logger.Warn("durable cache clear failed", zap.Error(err))
		}
	}
}

// Cleanup purges expired entries from both tiers.
func (t *Tiered) Cleanup(ctx context.Context) {
	now := t.clock.Now()
	t.cleanupStore(ctx, t.fast, now)
	if t.durable != nil {
		t.cleanupStore(ctx, t.durable, now)
	}
}

func (t *Tiered) cleanupStore(ctx context.Context, store Store, now time.Time) {
	keys, err := store.Keys(ctx)
	if err != nil {
		t.logger.Warn("cache cleanup listing failed", zap.Error(err))
		return
	}
	for _, key := range keys {
		entry, err := store.Get(ctx, key)
		if err != nil {
			continue
		}
		if entry.Expired(now) {
			if err := store.Delete(ctx, key); err != nil {
				t.logger.Warn("cache cleanup delete failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func (t *Tiered) maybeCleanup(ctx context.Context) {
	if t.ttls.CleanupThreshold <= 0 {
		return
	}
	n, err := t.fast.Len(ctx)
	if err != nil || n < t.ttls.CleanupThreshold {
		return
	}
	t.Cleanup(ctx)
}

// Stats reports per-tier entry counts and the approximate fast-tier
// memory footprint.
func (t *Tiered) Stats(ctx context.Context) vessel.CacheStats {
	stats := vessel.CacheStats{FastBytes: t.fast.Bytes()}
	if n, err := t.fast.Len(ctx); err == nil {
		stats.FastEntries = n
	}
	if t.durable != nil {
		if n, err := t.durable.Len(ctx); err == nil {
			stats.DurableEntries = n
		} else {
			t.logger.Warn("durable cache stats failed", zap.Error(err))
		}
	}
	return stats
}
