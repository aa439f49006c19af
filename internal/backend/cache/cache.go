// Package cache is a small read-through cache for the history and stats
// queries, backed by Redis. A nil *Cache is a valid no-op so the service
// runs unchanged when no Redis address is configured.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPredictions = "ecoclassify:predictions"
	KeyStats       = "ecoclassify:stats"

	DefaultTTL = 30 * time.Second
)

type Config struct {
	// Address of the Redis server; empty disables caching.
	Address  string
	Password string
	// TTL bounds staleness of cached query results; zero means DefaultTTL.
	TTL time.Duration
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a connected cache, or nil when no address is configured.
func New(config Config) *Cache {
	if config.Address == "" {
		return nil
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
	})
	return &Cache{client: client, ttl: config.TTL}
}

// Get unmarshals the cached value for key into target and reports whether a
// usable entry was found. Redis errors degrade to a miss.
func (c *Cache) Get(ctx context.Context, key string, target any) bool {
	if c == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache read failed, falling through to store", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		slog.Warn("cache entry is unreadable, falling through to store", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key with the configured TTL, best effort.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the given keys, best effort. Called after every new
// prediction so history and stats never serve a stale window longer than
// necessary.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
