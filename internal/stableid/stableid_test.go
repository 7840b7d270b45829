// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package stableid

import "testing"

func TestFromNameKnownValues(t *testing.T) {
	// Values pinned against the reference md5-mod-1e8 derivation.
	tests := []struct {
		name string
		want int64
	}{
		{"Иванов И.И.", 65158071},
		{"Физика", 13255091},
		{"Главный корпус", 1244218},
		{"Петров Пётр Петрович", 62250187},
		{"Математический анализ", 80088242},
		{"Иностранный язык", 16375597},
		{"Корпус на Ленинградском", 79555039},
		{"Сидорова Анна Владимировна", 18547178},
	}
	for _, tt := range tests {
		if got := FromName(tt.name); got != tt.want {
			t.Errorf("FromName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFromNameDeterministic(t *testing.T) {
	first := FromName("Иванов И.И.")
	for i := 0; i < 100; i++ {
		if got := FromName("Иванов И.И."); got != first {
			t.Fatalf("iteration %d: FromName returned %d, first call returned %d", i, got, first)
		}
	}
}

func TestFromNameRange(t *testing.T) {
	names := []string{"", "a", "Физика", "a very long name with spaces and ünïcode"}
	for _, name := range names {
		id := FromName(name)
		if id < 0 || id >= 100_000_000 {
			t.Errorf("FromName(%q) = %d, outside [0, 1e8)", name, id)
		}
	}
}

func TestFromNameDistinguishesNames(t *testing.T) {
	if FromName("Физика") == FromName("Химия") {
		t.Error("different names produced the same id")
	}
}

func BenchmarkFromName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FromName("Математический анализ")
	}
}
