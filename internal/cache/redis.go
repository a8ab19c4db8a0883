package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

const keyPrefix = "vesselwatch:track:"

// Redis is the durable Store tier backed by go-redis. Entries carry their
// expiry both in the payload and as a Redis TTL so the server evicts what
// the tiered layer would treat as expired anyway.
type Redis struct {
	client *redis.Client
	clock  vessel.Clock
}

// NewRedis wraps an existing client as a Store.
func NewRedis(client *redis.Client, clk vessel.Clock) *Redis {
	return &Redis{client: client, clock: clk}
}

// Connect builds a Redis client and verifies connectivity with a ping.
func Connect(ctx context.Context, addr, password string, db int, clk vessel.Clock) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return NewRedis(client, clk), nil
}

// Ping reports whether the backing server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Get returns the entry for key or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (vessel.CacheEntry, error) {
	payload, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return vessel.CacheEntry{}, ErrNotFound
		}
		return vessel.CacheEntry{}, fmt.Errorf("redis get %q: %w", key, err)
	}
	var entry vessel.CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return vessel.CacheEntry{}, fmt.Errorf("decode cached entry %q: %w", key, err)
	}
	return entry, nil
}

// Set stores the entry with a server-side TTL matching its expiry.
func (r *Redis) Set(ctx context.Context, key string, entry vessel.CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	ttl := entry.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Clear removes all entries under the cache prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Keys returns all cache keys without the prefix.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Len counts entries under the cache prefix.
func (r *Redis) Len(ctx context.Context) (int, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
