// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/metrics"
)

// entry is a stored value with its absolute expiry time.
type entry struct {
	data      json.RawMessage
	expiresAt time.Time
}

// expired reports whether the entry is past its expiry at time now.
func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Memory is an in-process Store backed by a mutex-guarded map.
// Expired entries are removed lazily on Get and in bulk by Prune;
// the janitor service calls Prune on a fixed interval.
type Memory struct {
	name       string
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewMemory creates an in-process store. defaultTTL applies to Set calls
// with a non-positive ttl.
func NewMemory(name string, defaultTTL time.Duration) *Memory {
	return &Memory{
		name:       name,
		defaultTTL: defaultTTL,
		entries:    make(map[string]entry),
	}
}

// Name identifies the store.
func (m *Memory) Name() string { return m.name }

// Get returns the value stored under key. An expired entry is removed
// and reported as a miss.
func (m *Memory) Get(_ context.Context, key string) (json.RawMessage, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.misses.Add(1)
		metrics.CacheMisses.WithLabelValues(m.name).Inc()
		return nil, false
	}

	now := time.Now()
	if e.expired(now) {
		// Re-check under the write lock: a concurrent Set may have
		// replaced the entry with a fresh one since the read above.
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
			m.evictions.Add(1)
			metrics.CacheEvictions.WithLabelValues(m.name).Inc()
		}
		m.mu.Unlock()

		m.misses.Add(1)
		metrics.CacheMisses.WithLabelValues(m.name).Inc()
		return nil, false
	}

	m.hits.Add(1)
	metrics.CacheHits.WithLabelValues(m.name).Inc()
	return e.data, true
}

// Set stores value under key. Null and empty values are rejected.
func (m *Memory) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) {
	if isNullValue(value) {
		logging.Ctx(ctx).Warn().
			Str("cache", m.name).
			Str("key", key).
			Msg("refusing to cache null value")
		return
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	m.entries[key] = entry{data: value, expiresAt: time.Now().Add(ttl)}
	size := len(m.entries)
	m.mu.Unlock()

	metrics.CacheSize.WithLabelValues(m.name).Set(float64(size))
}

// Clear removes every entry and resets the hit and miss counters.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()

	m.hits.Store(0)
	m.misses.Store(0)
	metrics.CacheSize.WithLabelValues(m.name).Set(0)
	return nil
}

// DeleteByToken removes entries whose key contains token as a complete
// delimited segment.
func (m *Memory) DeleteByToken(_ context.Context, token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.entries {
		if keyHasToken(key, token) {
			delete(m.entries, key)
			removed++
		}
	}
	metrics.CacheSize.WithLabelValues(m.name).Set(float64(len(m.entries)))
	return removed, nil
}

// Prune removes every expired entry and returns how many were removed.
// Running Prune twice in a row removes nothing on the second pass.
func (m *Memory) Prune(_ context.Context) int {
	now := time.Now()

	m.mu.Lock()
	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	size := len(m.entries)
	m.mu.Unlock()

	if removed > 0 {
		m.evictions.Add(int64(removed))
		metrics.CacheEvictions.WithLabelValues(m.name).Add(float64(removed))
		metrics.CacheSize.WithLabelValues(m.name).Set(float64(size))
	}
	return removed
}

// Stats returns a snapshot of the counters and current entry count.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	entries := int64(len(m.entries))
	m.mu.RUnlock()

	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Entries:   entries,
	}
}

// Close is a no-op for the in-process store.
func (m *Memory) Close() error { return nil }

// keyHasToken reports whether key contains token as one of its
// delimiter-separated segments.
func keyHasToken(key, token string) bool {
	for _, part := range strings.Split(key, keySeparator) {
		if part == token {
			return true
		}
	}
	return false
}
