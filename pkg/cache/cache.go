// Package cache is a Redis-backed read cache for catalog lookups.
//
// The cache is strictly optional: when Redis is unreachable every operation
// no-ops and callers fall through to the backend, so the app keeps working
// without it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/pkg/metrics"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect initialises the Redis client and verifies the connection with a ping.
// Returns an error so the caller can react (log warning, fall back, or abort).
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil // mark as unavailable so Get/Set/Del no-op safely
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

func key(k string) string { return "dinesync:" + k }

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(k string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(Ctx, key(k)).Result()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

// Set stores value in Redis under key for the given TTL.
func Set(k string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RDB.Set(Ctx, key(k), data, ttl).Err()
}

// Del removes one or more keys from Redis.
func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = key(k)
	}
	return RDB.Del(Ctx, full...).Err()
}

// Forget is an alias for Del.
func Forget(k string) error {
	return Del(k)
}

// Flush removes every dinesync-prefixed key. Used after catalog writes that
// invalidate broadly (imports, menu toggles).
func Flush() error {
	if RDB == nil {
		return nil
	}

	iter := RDB.Scan(Ctx, 0, key("*"), 100).Iterator()
	for iter.Next(Ctx) {
		if err := RDB.Del(Ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
