// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package cache provides TTL-bound key-value caching behind a pluggable
// Store interface with an in-process and a Redis-backed implementation.
//
// Values cross the Store boundary as encoded JSON so backends are
// interchangeable and cached data survives a process restart when the
// networked backend is used.
//
// Every operation fails open: a backend error on read is reported as a
// miss and a failed write is logged and dropped. A broken cache degrades
// the gateway to pass-through, it never takes it down.
package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/ruz-tools/ruzgate/internal/logging"
)

// Store is a TTL-bound key-value cache for one namespace.
type Store interface {
	// Get returns the value stored under key, or ok=false when the key
	// is absent, expired, or the backend failed.
	Get(ctx context.Context, key string) (json.RawMessage, bool)

	// Set stores value under key for ttl. A non-positive ttl selects the
	// store's default. Nil and empty values are rejected.
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration)

	// Clear removes every entry and resets the hit and miss counters.
	Clear(ctx context.Context) error

	// DeleteByToken removes entries whose key contains the given
	// delimited token (for example "g=154479") and returns how many
	// were removed.
	DeleteByToken(ctx context.Context, token string) (int, error)

	// Prune removes expired entries and returns how many were removed.
	// Backends that expire natively return 0.
	Prune(ctx context.Context) int

	// Stats returns a snapshot of the hit and miss counters.
	Stats() Stats

	// Name identifies the store in logs, stats, and metrics.
	Name() string

	// Close releases backend resources.
	Close() error
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int64 `json:"entries"`
}

// HitRate returns hits / (hits + misses), or 0 when no lookups happened.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// GetAs fetches and decodes a typed value. Decode failures count as a
// miss; a stale encoding is indistinguishable from an absent key.
func GetAs[T any](ctx context.Context, s Store, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("cache", s.Name()).
			Str("key", key).
			Msg("cached value failed to decode, treating as miss")
		return zero, false
	}
	return v, true
}

// SetAs encodes and stores a typed value.
func SetAs[T any](ctx context.Context, s Store, key string, v T, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("cache", s.Name()).
			Str("key", key).
			Msg("value failed to encode, not cached")
		return
	}
	s.Set(ctx, key, raw, ttl)
}

// isNullValue reports whether raw is absent or encodes JSON null.
// Storing null would make a hit indistinguishable from a miss.
func isNullValue(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
