// Package track is the public face of the tracking subsystem: it hides
// cache and resolution details behind get/preload/invalidate operations.
package track

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fleetops/vesselwatch/internal/metrics"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

// SyntheticSource derives records without touching the network, for
// vessels that have no detail-page reference.
type SyntheticSource interface {
	SyntheticFromLabel(label string) vessel.Record
}

// Config bounds preload behavior.
type Config struct {
	BatchSize  int
	BatchPause time.Duration
	Stagger    time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 3
	}
	if c.BatchPause <= 0 {
		c.BatchPause = 200 * time.Millisecond
	}
	if c.Stagger <= 0 {
		c.Stagger = 100 * time.Millisecond
	}
	return c
}

// Tracker orchestrates cache lookups and detail resolutions.
type Tracker struct {
	cache     vessel.Cache
	resolver  vessel.Resolver
	synthetic SyntheticSource
	cfg       Config
	logger    *zap.Logger
	group     singleflight.Group
}

// New builds a Tracker.
func New(cache vessel.Cache, resolver vessel.Resolver, synthetic SyntheticSource, cfg Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		cache:     cache,
		resolver:  resolver,
		synthetic: synthetic,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// GetTrackingData returns tracking data for the vessel, from cache when
// fresh, resolving and writing through otherwise. It never fails; the
// worst case is a synthetic placeholder record.
func (t *Tracker) GetTrackingData(ctx context.Context, v vessel.Vessel) vessel.Record {
	if entry, ok := t.cache.Get(ctx, v.ID); ok {
		return entry.Record
	}

	if !v.HasReference() {
		rec := t.synthetic.SyntheticFromLabel(v.Label)
		t.cache.Set(ctx, v.ID, rec, vessel.OriginStatic)
		return rec
	}

	// Concurrent callers for the same vessel share one resolution.
	result, _, _ := t.group.Do(v.ID, func() (any, error) {
		rec := t.resolver.Resolve(ctx, v.Reference)
		origin := vessel.OriginSuccess
		if rec.Synthetic {
			origin = vessel.OriginError
		}
		t.cache.Set(ctx, v.ID, rec, origin)
		return rec, nil
	})
	return result.(vessel.Record)
}

// GetTrackingDataStaggered delays by index times the stagger interval
// before the cache is even consulted, spreading burst load from long
// rendered lists.
func (t *Tracker) GetTrackingDataStaggered(ctx context.Context, v vessel.Vessel, index int) vessel.Record {
	if index > 0 {
		select {
		case <-time.After(time.Duration(index) * t.cfg.Stagger):
		case <-ctx.Done():
			return t.synthetic.SyntheticFromLabel(v.Label)
		}
	}
	return t.GetTrackingData(ctx, v)
}

// Preload resolves tracking data for vessels not already cached, in
// fixed-size concurrent batches with a pause between batches. One
// vessel's failure never aborts the batch, and the call returns once
// every batch has settled or the context is canceled.
func (t *Tracker) Preload(ctx context.Context, vessels []vessel.Vessel) {
	var pending []vessel.Vessel
	for _, v := range vessels {
		if !t.cache.Has(ctx, v.ID) {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return
	}
	t.logger.Info("preloading tracking data",
		zap.Int("vessels", len(pending)),
		zap.Int("batch_size", t.cfg.BatchSize))

	for start := 0; start < len(pending); start += t.cfg.BatchSize {
		end := start + t.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		metrics.PreloadBatches.Inc()

		var wg sync.WaitGroup
		for _, v := range pending[start:end] {
			wg.Add(1)
			go func(v vessel.Vessel) {
				defer wg.Done()
				t.GetTrackingData(ctx, v)
			}(v)
		}
		wg.Wait()

		if end < len(pending) {
			select {
			case <-time.After(t.cfg.BatchPause):
			case <-ctx.Done():
				return
			}
		}
	}
}

// ClearOne invalidates the cached entry for one vessel in both tiers.
func (t *Tracker) ClearOne(ctx context.Context, id string) {
	t.cache.Delete(ctx, id)
}

// ClearAll invalidates every cached entry.
func (t *Tracker) ClearAll(ctx context.Context) {
	t.cache.Clear(ctx)
}

// CacheStats reports per-tier cache statistics.
func (t *Tracker) CacheStats(ctx context.Context) vessel.CacheStats {
	return t.cache.Stats(ctx)
}
