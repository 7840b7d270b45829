// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"context"
	"time"

	"github.com/ruz-tools/ruzgate/internal/config"
	"github.com/ruz-tools/ruzgate/internal/logging"
)

// Set bundles the per-namespace stores the gateway runs with.
type Set struct {
	Schedule Store
	RUZ      Store
	Search   Store
	Filter   Store

	closer func() error
}

// NewSet builds the namespace stores from configuration. When the Redis
// backend is selected but unreachable, the gateway degrades to in-process
// caching instead of refusing to start.
func NewSet(ctx context.Context, cfg config.CacheConfig) *Set {
	if cfg.Backend == "redis" {
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTimeout)
		if err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("addr", cfg.RedisAddr).
				Msg("redis unreachable, falling back to in-process caching")
		} else {
			logging.Ctx(ctx).Info().
				Str("addr", cfg.RedisAddr).
				Msg("redis cache backend connected")
			return &Set{
				Schedule: NewRedis(NamespaceSchedule, client, cfg.ScheduleTTL, cfg.RedisTimeout),
				RUZ:      NewRedis(NamespaceRUZ, client, cfg.ScheduleTTL, cfg.RedisTimeout),
				Search:   NewRedis(NamespaceSearch, client, cfg.SearchTTL, cfg.RedisTimeout),
				Filter:   NewRedis(NamespaceFilter, client, cfg.FilterTTL, cfg.RedisTimeout),
				closer:   client.Close,
			}
		}
	}

	return &Set{
		Schedule: NewMemory(NamespaceSchedule, cfg.ScheduleTTL),
		RUZ:      NewMemory(NamespaceRUZ, cfg.ScheduleTTL),
		Search:   NewMemory(NamespaceSearch, cfg.SearchTTL),
		Filter:   NewMemory(NamespaceFilter, cfg.FilterTTL),
	}
}

// All returns the stores in a stable order.
func (s *Set) All() []Store {
	return []Store{s.Schedule, s.RUZ, s.Search, s.Filter}
}

// Prune sweeps expired entries from every store and returns the total
// number removed. The janitor service calls this on a fixed interval.
func (s *Set) Prune(ctx context.Context) int {
	removed := 0
	for _, store := range s.All() {
		removed += store.Prune(ctx)
	}
	return removed
}

// Close releases backend resources once.
func (s *Set) Close() error {
	for _, store := range s.All() {
		_ = store.Close()
	}
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// StatsSnapshot maps store name to its counters at one point in time.
func (s *Set) StatsSnapshot() map[string]Stats {
	out := make(map[string]Stats, 4)
	for _, store := range s.All() {
		out[store.Name()] = store.Stats()
	}
	return out
}

// janitorDefaultInterval guards against a zero interval slipping past
// config validation in tests.
const janitorDefaultInterval = 5 * time.Minute

// PruneInterval returns the configured sweep interval or the default.
func PruneInterval(cfg config.CacheConfig) time.Duration {
	if cfg.PruneInterval <= 0 {
		return janitorDefaultInterval
	}
	return cfg.PruneInterval
}
