package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStore simulates a broken durable tier.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (vessel.CacheEntry, error) {
	return vessel.CacheEntry{}, errors.New("durable tier down")
}
func (failingStore) Set(context.Context, string, vessel.CacheEntry) error {
	return errors.New("durable tier down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("durable tier down") }
func (failingStore) Clear(context.Context) error          { return errors.New("durable tier down") }
func (failingStore) Keys(context.Context) ([]string, error) {
	return nil, errors.New("durable tier down")
}
func (failingStore) Len(context.Context) (int, error) { return 0, errors.New("durable tier down") }

func testRecord(name string) vessel.Record {
	return vessel.Record{Name: name, IMO: "9676307"}
}

func TestTieredRoundTrip(t *testing.T) {
	clk := newFakeClock()
	c := NewTiered(NewMemory(), clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "v-001", testRecord("HY EMERALD"), vessel.OriginSuccess)

	entry, ok := c.Get(ctx, "v-001")
	require.True(t, ok)
	require.Equal(t, "HY EMERALD", entry.Record.Name)
	require.Equal(t, vessel.OriginSuccess, entry.Origin)
	require.True(t, entry.ExpiresAt.After(clk.Now()))
}

func TestTieredTTLByOrigin(t *testing.T) {
	clk := newFakeClock()
	c := NewTiered(nil, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "ok", testRecord("A"), vessel.OriginSuccess)
	c.Set(ctx, "static", testRecord("B"), vessel.OriginStatic)
	c.Set(ctx, "bad", testRecord("C"), vessel.OriginError)

	clk.Advance(3 * time.Minute)
	_, ok := c.Get(ctx, "bad")
	require.False(t, ok, "error entries expire after 2 minutes")
	_, ok = c.Get(ctx, "static")
	require.True(t, ok)

	clk.Advance(3 * time.Minute) // 6m total
	_, ok = c.Get(ctx, "static")
	require.False(t, ok, "static entries expire after 5 minutes")
	_, ok = c.Get(ctx, "ok")
	require.True(t, ok)

	clk.Advance(5 * time.Minute) // 11m total
	_, ok = c.Get(ctx, "ok")
	require.False(t, ok, "success entries expire after 10 minutes")
}

func TestTieredPromotionOnDurableHit(t *testing.T) {
	clk := newFakeClock()
	durable := NewMemory()
	c := NewTiered(durable, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	entry := vessel.CacheEntry{
		Record:    testRecord("PACIFIC HARMONY"),
		Origin:    vessel.OriginSuccess,
		CreatedAt: clk.Now(),
		ExpiresAt: clk.Now().Add(10 * time.Minute),
	}
	require.NoError(t, durable.Set(ctx, "v-002", entry))

	got, ok := c.Get(ctx, "v-002")
	require.True(t, ok)
	require.Equal(t, "PACIFIC HARMONY", got.Record.Name)

	stats := c.Stats(ctx)
	require.Equal(t, 1, stats.FastEntries, "durable hit must be promoted into the fast tier")
}

func TestTieredSecondSetReplacesExpiry(t *testing.T) {
	clk := newFakeClock()
	c := NewTiered(NewMemory(), clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	c.SetWithTTL(ctx, "v-001", testRecord("OLD"), vessel.OriginSuccess, 30*time.Minute)
	c.SetWithTTL(ctx, "v-001", testRecord("NEW"), vessel.OriginSuccess, time.Minute)

	entry, ok := c.Get(ctx, "v-001")
	require.True(t, ok)
	require.Equal(t, "NEW", entry.Record.Name)
	require.Equal(t, clk.Now().Add(time.Minute), entry.ExpiresAt)

	clk.Advance(2 * time.Minute)
	_, ok = c.Get(ctx, "v-001")
	require.False(t, ok, "only the second entry's expiry is in effect")
}

func TestTieredDeleteRemovesBothTiers(t *testing.T) {
	clk := newFakeClock()
	durable := NewMemory()
	c := NewTiered(durable, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "v-001", testRecord("HY EMERALD"), vessel.OriginSuccess)
	c.Delete(ctx, "v-001")

	_, ok := c.Get(ctx, "v-001")
	require.False(t, ok)
	_, err := durable.Get(ctx, "v-001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTieredCleanupPurgesExpired(t *testing.T) {
	clk := newFakeClock()
	durable := NewMemory()
	c := NewTiered(durable, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "old", testRecord("A"), vessel.OriginError)
	c.Set(ctx, "fresh", testRecord("B"), vessel.OriginSuccess)

	clk.Advance(5 * time.Minute)
	c.Cleanup(ctx)

	stats := c.Stats(ctx)
	require.Equal(t, 1, stats.FastEntries)
	require.Equal(t, 1, stats.DurableEntries)
}

func TestTieredDegradesWhenDurableFails(t *testing.T) {
	clk := newFakeClock()
	c := NewTiered(failingStore{}, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	// Writes and reads must keep working through the fast tier alone.
	c.Set(ctx, "v-001", testRecord("HY EMERALD"), vessel.OriginSuccess)
	entry, ok := c.Get(ctx, "v-001")
	require.True(t, ok)
	require.Equal(t, "HY EMERALD", entry.Record.Name)

	c.Delete(ctx, "v-001")
	_, ok = c.Get(ctx, "v-001")
	require.False(t, ok)
}

func TestTieredStatsFootprint(t *testing.T) {
	clk := newFakeClock()
	c := NewTiered(nil, clk, DefaultTTLs(), zap.NewNop())
	ctx := context.Background()

	require.Zero(t, c.Stats(ctx).FastBytes)
	c.Set(ctx, "v-001", testRecord("HY EMERALD"), vessel.OriginSuccess)
	require.Positive(t, c.Stats(ctx).FastBytes)
}
