package track

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/cache"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// countingResolver tracks call counts and the maximum number of
// resolutions in flight at any instant.
type countingResolver struct {
	calls    atomic.Int64
	inflight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
	failAll  bool
}

func (r *countingResolver) Resolve(_ context.Context, ref string) vessel.Record {
	r.calls.Add(1)
	cur := r.inflight.Add(1)
	for {
		max := r.maxSeen.Load()
		if cur <= max || r.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.inflight.Add(-1)
	return vessel.Record{Name: "RESOLVED " + ref, Synthetic: r.failAll}
}

type labelSynthetic struct {
	calls atomic.Int64
}

func (s *labelSynthetic) SyntheticFromLabel(label string) vessel.Record {
	s.calls.Add(1)
	return vessel.Record{Name: "LABEL " + label, Synthetic: true}
}

func newTestTracker(resolver vessel.Resolver) (*Tracker, *labelSynthetic) {
	clk := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	tiered := cache.NewTiered(nil, clk, cache.DefaultTTLs(), zap.NewNop())
	synth := &labelSynthetic{}
	tr := New(tiered, resolver, synth, Config{
		BatchSize:  3,
		BatchPause: time.Millisecond,
		Stagger:    time.Millisecond,
	}, zap.NewNop())
	return tr, synth
}

func fleet(n int) []vessel.Vessel {
	out := make([]vessel.Vessel, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, vessel.Vessel{
			ID:        fmt.Sprintf("v-%03d", i),
			Label:     fmt.Sprintf("vessel%d@fleetops.example", i),
			Reference: fmt.Sprintf("https://example.com/vessels/details/%d", 9000000+i),
		})
	}
	return out
}

func TestGetTrackingDataCachesResolution(t *testing.T) {
	resolver := &countingResolver{}
	tr, _ := newTestTracker(resolver)
	v := fleet(1)[0]

	first := tr.GetTrackingData(context.Background(), v)
	second := tr.GetTrackingData(context.Background(), v)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, resolver.calls.Load(), "second call must be served from cache")
}

func TestGetTrackingDataWithoutReferenceSkipsResolution(t *testing.T) {
	resolver := &countingResolver{}
	tr, synth := newTestTracker(resolver)
	v := vessel.Vessel{ID: "v-900", Label: "coastal.runner@fleetops.example"}

	rec := tr.GetTrackingData(context.Background(), v)

	require.Equal(t, "LABEL coastal.runner@fleetops.example", rec.Name)
	require.Zero(t, resolver.calls.Load())
	require.EqualValues(t, 1, synth.calls.Load())

	// Identity-only records are cached too.
	tr.GetTrackingData(context.Background(), v)
	require.EqualValues(t, 1, synth.calls.Load())
}

func TestPreloadBoundsConcurrency(t *testing.T) {
	resolver := &countingResolver{delay: 20 * time.Millisecond}
	tr, _ := newTestTracker(resolver)

	tr.Preload(context.Background(), fleet(10))

	require.EqualValues(t, 10, resolver.calls.Load())
	require.LessOrEqual(t, resolver.maxSeen.Load(), int64(3),
		"no more than batch_size resolutions may run at once")
}

func TestPreloadSkipsCachedVessels(t *testing.T) {
	resolver := &countingResolver{}
	tr, _ := newTestTracker(resolver)
	vessels := fleet(5)

	tr.GetTrackingData(context.Background(), vessels[0])
	tr.GetTrackingData(context.Background(), vessels[1])
	require.EqualValues(t, 2, resolver.calls.Load())

	tr.Preload(context.Background(), vessels)
	require.EqualValues(t, 5, resolver.calls.Load())
}

func TestPreloadCompletesWhenResolutionsFail(t *testing.T) {
	resolver := &countingResolver{failAll: true, delay: 5 * time.Millisecond}
	tr, _ := newTestTracker(resolver)

	done := make(chan struct{})
	go func() {
		tr.Preload(context.Background(), fleet(7))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("preload did not complete")
	}
	require.EqualValues(t, 7, resolver.calls.Load())
}

func TestConcurrentGetsCollapseToOneResolution(t *testing.T) {
	resolver := &countingResolver{delay: 30 * time.Millisecond}
	tr, _ := newTestTracker(resolver)
	v := fleet(1)[0]

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.GetTrackingData(context.Background(), v)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, resolver.calls.Load(),
		"concurrent callers for one vessel share a single resolution")
}

func TestClearOneForcesReResolution(t *testing.T) {
	resolver := &countingResolver{}
	tr, _ := newTestTracker(resolver)
	v := fleet(1)[0]

	tr.GetTrackingData(context.Background(), v)
	tr.ClearOne(context.Background(), v.ID)
	tr.GetTrackingData(context.Background(), v)

	require.EqualValues(t, 2, resolver.calls.Load())
}

func TestStaggeredGetHonorsCancellation(t *testing.T) {
	resolver := &countingResolver{}
	tr, _ := newTestTracker(resolver)
	v := fleet(1)[0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := tr.GetTrackingDataStaggered(ctx, v, 50)
	require.True(t, rec.Synthetic)
	require.Zero(t, resolver.calls.Load())
}

func TestCacheStats(t *testing.T) {
	resolver := &countingResolver{}
	tr, _ := newTestTracker(resolver)

	tr.GetTrackingData(context.Background(), fleet(1)[0])
	stats := tr.CacheStats(context.Background())
	require.Equal(t, 1, stats.FastEntries)

	tr.ClearAll(context.Background())
	stats = tr.CacheStats(context.Background())
	require.Zero(t, stats.FastEntries)
}
