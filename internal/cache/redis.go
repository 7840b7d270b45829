// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/metrics"
)

// redisKeyPrefix namespaces ruzgate keys inside a shared Redis database.
const redisKeyPrefix = "ruzgate:"

// ErrUnavailable reports that the backing store could not be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// Redis is a Store backed by a Redis server. Expiry is delegated to the
// server via per-key TTLs; hit and miss counters are tracked locally
// because the server does not attribute its global counters per prefix.
type Redis struct {
	name       string
	client     *redis.Client
	defaultTTL time.Duration
	opTimeout  time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// DialRedis connects and verifies the server is reachable. The caller
// decides how to degrade when this fails; the gateway falls back to the
// in-process backend.
func DialRedis(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// NewRedis creates a Redis-backed store for one namespace. Keys handed to
// the store must start with the namespace token (the key builders in this
// package guarantee that).
func NewRedis(name string, client *redis.Client, defaultTTL, opTimeout time.Duration) *Redis {
	return &Redis{
		name:       name,
		client:     client,
		defaultTTL: defaultTTL,
		opTimeout:  opTimeout,
	}
}

// Name identifies the store.
func (r *Redis) Name() string { return r.name }

// Get returns the value stored under key. Backend errors are logged and
// reported as a miss.
func (r *Redis) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	val, err := r.client.Get(opCtx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("cache", r.name).
				Str("key", key).
				Msg("redis read failed, treating as miss")
		}
		r.misses.Add(1)
		metrics.CacheMisses.WithLabelValues(r.name).Inc()
		return nil, false
	}

	r.hits.Add(1)
	metrics.CacheHits.WithLabelValues(r.name).Inc()
	return val, true
}

// Set stores value under key with a server-side TTL. Write failures are
// logged and dropped.
func (r *Redis) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) {
	if isNullValue(value) {
		logging.Ctx(ctx).Warn().
			Str("cache", r.name).
			Str("key", key).
			Msg("refusing to cache null value")
		return
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(opCtx, redisKeyPrefix+key, []byte(value), ttl).Err(); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("cache", r.name).
			Str("key", key).
			Msg("redis write failed, value not cached")
	}
}

// Clear removes every key in this store's namespace and resets the hit
// and miss counters.
func (r *Redis) Clear(ctx context.Context) error {
	pattern := redisKeyPrefix + r.name + keySeparator + "*"
	if err := r.deleteByPattern(ctx, pattern); err != nil {
		return err
	}
	r.hits.Store(0)
	r.misses.Store(0)
	return nil
}

// DeleteByToken removes keys in this namespace containing the delimited
// token. The key builders never place a selector token first or last, so
// the surrounding-separator pattern is exact.
func (r *Redis) DeleteByToken(ctx context.Context, token string) (int, error) {
	pattern := redisKeyPrefix + r.name + keySeparator + "*" + keySeparator + token + keySeparator + "*"

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	keys, err := r.client.Keys(opCtx, pattern).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: keys %s: %w", ErrUnavailable, pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := r.client.Del(opCtx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: del: %w", ErrUnavailable, err)
	}
	return int(removed), nil
}

// Prune is a no-op; the server expires keys itself.
func (r *Redis) Prune(context.Context) int { return 0 }

// Stats returns the locally tracked counters. Entry counts and evictions
// live on the server and are not attributed per namespace.
func (r *Redis) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
	}
}

// Close is a no-op; the client is shared between namespace stores and
// owned by the Set that created it.
func (r *Redis) Close() error { return nil }

func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	keys, err := r.client.Keys(opCtx, pattern).Result()
	if err != nil {
		return fmt.Errorf("%w: keys %s: %w", ErrUnavailable, pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(opCtx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %w", ErrUnavailable, err)
	}
	return nil
}
