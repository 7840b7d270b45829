// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestClearGroupLeavesOthersIntact(t *testing.T) {
	ctx := context.Background()
	schedule := NewMemory(NamespaceSchedule, time.Minute)
	filter := NewMemory(NamespaceFilter, time.Minute)

	keep := ScheduleKey("2025.01.01", "2025.01.31", Selector{GroupID: "200000"}, "1")
	drop := ScheduleKey("2025.01.01", "2025.01.31", Selector{GroupID: "154479"}, "1")
	dropFilter := FilterOptionsKey("2025.01.01", "2025.01.31", Selector{GroupID: "154479"}, "1")

	schedule.Set(ctx, keep, json.RawMessage(`1`), 0)
	schedule.Set(ctx, drop, json.RawMessage(`1`), 0)
	filter.Set(ctx, dropFilter, json.RawMessage(`1`), 0)

	inv := NewInvalidator(schedule, filter)
	removed, err := inv.ClearGroup(ctx, "154479")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}

	if _, ok := schedule.Get(ctx, keep); !ok {
		t.Error("entry for group 200000 was evicted")
	}
	if _, ok := schedule.Get(ctx, drop); ok {
		t.Error("entry for group 154479 survived")
	}
	if _, ok := filter.Get(ctx, dropFilter); ok {
		t.Error("filter entry for group 154479 survived")
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	a := NewMemory("a", time.Minute)
	b := NewMemory("b", time.Minute)
	a.Set(ctx, "k", json.RawMessage(`1`), 0)
	b.Set(ctx, "k", json.RawMessage(`1`), 0)

	if err := NewInvalidator(a, b).ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Get(ctx, "k"); ok {
		t.Error("store a not cleared")
	}
	if _, ok := b.Get(ctx, "k"); ok {
		t.Error("store b not cleared")
	}
}

func TestClearGroupUnknownGroupIsNoop(t *testing.T) {
	ctx := context.Background()
	schedule := NewMemory(NamespaceSchedule, time.Minute)
	key := ScheduleKey("2025.01.01", "2025.01.31", Selector{GroupID: "154479"}, "1")
	schedule.Set(ctx, key, json.RawMessage(`1`), 0)

	removed, err := NewInvalidator(schedule).ClearGroup(ctx, "999999")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed %d, want 0", removed)
	}
	if _, ok := schedule.Get(ctx, key); !ok {
		t.Error("unrelated entry evicted")
	}
}
