// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package upstream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/models"
)

// fakeScheduleClient scripts upstream behavior per call.
type fakeScheduleClient struct {
	calls   atomic.Int32
	entries []models.ScheduleEntry
	err     error
	delay   time.Duration
}

func (f *fakeScheduleClient) Schedule(context.Context, string, string, string, string, string) ([]models.ScheduleEntry, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.entries, f.err
}

func newTestFetcher(client scheduleClient) (*Fetcher, *cache.Memory) {
	store := cache.NewMemory(cache.NamespaceSchedule, time.Minute)
	return NewFetcher(client, store, NewBreaker("test-upstream"), time.Minute), store
}

func TestFetcherServesFromCache(t *testing.T) {
	client := &fakeScheduleClient{entries: []models.ScheduleEntry{{Date: "2025.01.10", Discipline: "Физика"}}}
	f, _ := newTestFetcher(client)
	ctx := context.Background()
	sel := cache.Selector{GroupID: "154479"}

	first, err := f.Schedule(ctx, sel, "2025.01.01", "2025.01.31", "1")
	if err != nil || len(first) != 1 {
		t.Fatalf("first fetch: entries=%v err=%v", first, err)
	}
	second, err := f.Schedule(ctx, sel, "2025.01.01", "2025.01.31", "1")
	if err != nil || len(second) != 1 {
		t.Fatalf("second fetch: entries=%v err=%v", second, err)
	}

	if client.calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1 (second call cached)", client.calls.Load())
	}
}

func TestFetcherDoesNotCacheFailures(t *testing.T) {
	client := &fakeScheduleClient{err: errors.New("upstream down")}
	f, store := newTestFetcher(client)
	ctx := context.Background()
	sel := cache.Selector{GroupID: "154479"}

	entries, err := f.Schedule(ctx, sel, "2025.01.01", "2025.01.31", "1")
	if err == nil {
		t.Fatal("expected error")
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("entries = %v, want empty non-nil slice", entries)
	}

	// The failure must not occupy the key, so recovery is immediate.
	client.err = nil
	client.entries = []models.ScheduleEntry{{Date: "2025.01.10"}}
	entries, err = f.Schedule(ctx, sel, "2025.01.01", "2025.01.31", "1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("after recovery: entries=%v err=%v", entries, err)
	}
	if client.calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2", client.calls.Load())
	}
	if st := store.Stats(); st.Entries != 1 {
		t.Errorf("store entries = %d, want 1", st.Entries)
	}
}

func TestFetcherDoesNotCacheEmptyResults(t *testing.T) {
	client := &fakeScheduleClient{entries: []models.ScheduleEntry{}}
	f, store := newTestFetcher(client)
	ctx := context.Background()

	f.Schedule(ctx, cache.Selector{}, "2025.01.01", "2025.01.31", "1")
	f.Schedule(ctx, cache.Selector{}, "2025.01.01", "2025.01.31", "1")

	if client.calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2 (empty result not cached)", client.calls.Load())
	}
	if st := store.Stats(); st.Entries != 0 {
		t.Errorf("store entries = %d, want 0", st.Entries)
	}
}

func TestFetcherCollapsesConcurrentMisses(t *testing.T) {
	client := &fakeScheduleClient{
		entries: []models.ScheduleEntry{{Date: "2025.01.10"}},
		delay:   20 * time.Millisecond,
	}
	f, _ := newTestFetcher(client)
	sel := cache.Selector{GroupID: "154479"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Schedule(context.Background(), sel, "2025.01.01", "2025.01.31", "1")
		}()
	}
	wg.Wait()

	if calls := client.calls.Load(); calls != 1 {
		t.Errorf("upstream called %d times for one key, want 1", calls)
	}
}

func TestFetcherDistinctSelectorsFetchSeparately(t *testing.T) {
	client := &fakeScheduleClient{entries: []models.ScheduleEntry{{Date: "2025.01.10"}}}
	f, _ := newTestFetcher(client)
	ctx := context.Background()

	f.Schedule(ctx, cache.Selector{GroupID: "100"}, "a", "b", "1")
	f.Schedule(ctx, cache.Selector{PersonID: "100"}, "a", "b", "1")
	f.Schedule(ctx, cache.Selector{}, "a", "b", "1")

	if calls := client.calls.Load(); calls != 3 {
		t.Errorf("upstream called %d times, want 3 (selectors must not share entries)", calls)
	}
}
