// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package upstream

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/models"
)

// scheduleClient is the slice of Client the fetcher needs; tests swap in
// a fake without a listener.
type scheduleClient interface {
	Schedule(ctx context.Context, groupID, personID, start, finish, lang string) ([]models.ScheduleEntry, error)
}

// Fetcher serves raw schedule entries, cache first. Concurrent misses on
// the same key are collapsed into a single upstream call, and all calls
// run under the circuit breaker. The cache store's lock is never held
// across the upstream round trip; the fetcher only talks to the store
// before and after.
type Fetcher struct {
	client  scheduleClient
	store   cache.Store
	breaker *Breaker
	ttl     time.Duration
	flight  singleflight.Group
}

// NewFetcher wires a fetcher to the schedule cache store. ttl bounds how
// long a fetched range is served from cache.
func NewFetcher(client scheduleClient, store cache.Store, breaker *Breaker, ttl time.Duration) *Fetcher {
	return &Fetcher{
		client:  client,
		store:   store,
		breaker: breaker,
		ttl:     ttl,
	}
}

// Schedule returns the entries for a date range and selector. On any
// fetch failure it returns an empty slice and the error; the failure is
// never cached, so the next request retries upstream.
func (f *Fetcher) Schedule(ctx context.Context, sel cache.Selector, start, finish, lang string) ([]models.ScheduleEntry, error) {
	key := cache.ScheduleKey(start, finish, sel, lang)

	if entries, ok := cache.GetAs[[]models.ScheduleEntry](ctx, f.store, key); ok {
		return entries, nil
	}

	result, err, _ := f.flight.Do(key, func() (interface{}, error) {
		// Another goroutine may have filled the cache while this one
		// waited its turn in the flight group.
		if entries, ok := cache.GetAs[[]models.ScheduleEntry](ctx, f.store, key); ok {
			return entries, nil
		}

		fetched, err := f.breaker.Execute(func() (interface{}, error) {
			return f.client.Schedule(ctx, sel.GroupID, sel.PersonID, start, finish, lang)
		})
		if err != nil {
			return nil, err
		}

		entries, _ := fetched.([]models.ScheduleEntry)
		if len(entries) == 0 {
			// An empty range is returned but not cached: it may be a
			// transient upstream hiccup rather than a truly free week.
			return []models.ScheduleEntry{}, nil
		}

		cache.SetAs(ctx, f.store, key, entries, f.ttl)
		return entries, nil
	})
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("key", key).
			Msg("schedule fetch failed, serving empty result")
		return []models.ScheduleEntry{}, err
	}

	entries, _ := result.([]models.ScheduleEntry)
	return entries, nil
}
