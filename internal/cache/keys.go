// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// keySeparator delimits key tokens. Free-text tokens are URL-escaped
// before joining, so the separator cannot appear inside a token.
const keySeparator = "|"

// Namespace prefixes. Each namespace has its own Store, so keys from
// different namespaces never collide even with equal parameter tokens.
const (
	NamespaceSchedule = "schedule"
	NamespaceRUZ      = "ruz"
	NamespaceFilter   = "filter"
	NamespaceSearch   = "search"
)

// Selector identifies whose schedule is requested. PersonID takes
// precedence upstream, but both tokens are kept in the key so that
// group-scoped invalidation still reaches entries queried with both.
type Selector struct {
	GroupID  string
	PersonID string
}

// tokens renders the selector. An empty selector renders as "default",
// keeping the default-schedule key distinct from any explicit id.
func (s Selector) tokens() []string {
	var out []string
	if s.GroupID != "" {
		out = append(out, "g="+s.GroupID)
	}
	if s.PersonID != "" {
		out = append(out, "p="+s.PersonID)
	}
	if len(out) == 0 {
		out = append(out, "default")
	}
	return out
}

// Filters restricts lesson output to the listed stable ids.
// A nil slice means no restriction on that dimension.
type Filters struct {
	DisciplineIDs []int64
	LocationIDs   []int64
	LecturerIDs   []int64
}

// token renders the filters sorted and deduplicated, so logically equal
// filter sets always produce the same key.
func (f Filters) token() string {
	var parts []string
	if f.DisciplineIDs != nil {
		parts = append(parts, "d:"+joinIDs(f.DisciplineIDs))
	}
	if f.LocationIDs != nil {
		parts = append(parts, "l:"+joinIDs(f.LocationIDs))
	}
	if f.LecturerIDs != nil {
		parts = append(parts, "t:"+joinIDs(f.LecturerIDs))
	}
	if len(parts) == 0 {
		return "all"
	}
	return "f=" + strings.Join(parts, ";")
}

func joinIDs(ids []int64) string {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	strs := make([]string, len(uniq))
	for i, id := range uniq {
		strs[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(strs, ",")
}

// ScheduleKey builds the key for a raw upstream schedule fetch.
// The language token is last so a selector token is never terminal,
// which keeps group-pattern invalidation exact on every backend.
func ScheduleKey(start, end string, sel Selector, lang string) string {
	tokens := append([]string{NamespaceSchedule, start, end}, sel.tokens()...)
	tokens = append(tokens, "l="+lang)
	return strings.Join(tokens, keySeparator)
}

// RUZKey builds the key for a filtered lesson query.
func RUZKey(from, to string, f Filters) string {
	return strings.Join([]string{NamespaceRUZ, from, to, f.token()}, keySeparator)
}

// FilterOptionsKey builds the key for a filter-options query.
func FilterOptionsKey(from, to string, sel Selector, lang string) string {
	tokens := append([]string{NamespaceFilter, from, to}, sel.tokens()...)
	tokens = append(tokens, "l="+lang)
	return strings.Join(tokens, keySeparator)
}

// SearchKey builds the key for an upstream search. The term is escaped
// so user input cannot inject a separator.
func SearchKey(term, searchType string) string {
	return strings.Join([]string{
		NamespaceSearch,
		"t=" + searchType,
		"q=" + url.QueryEscape(term),
	}, keySeparator)
}

// GroupToken renders the delimited token used for group-scoped
// invalidation.
func GroupToken(groupID string) string {
	return "g=" + groupID
}
