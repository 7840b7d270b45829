// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/models"
)

// ErrInvalidQuery marks client mistakes (bad dates, short search terms)
// as opposed to upstream or backend failures.
var ErrInvalidQuery = errors.New("invalid query")

// upstreamDateLayout is the date format the timetable API expects.
const upstreamDateLayout = "2006.01.02"

// entryFetcher provides raw schedule entries, cache first.
type entryFetcher interface {
	Schedule(ctx context.Context, sel cache.Selector, start, finish, lang string) ([]models.ScheduleEntry, error)
}

// resultSearcher fans a term out over entity types.
type resultSearcher interface {
	Search(ctx context.Context, term string, types []string) []models.SearchResult
}

// Service answers the gateway's query operations. Reshaped results are
// cached in their own namespaces on top of the raw-fetch caching done by
// the fetcher.
type Service struct {
	fetcher     entryFetcher
	searcher    resultSearcher
	ruzStore    cache.Store
	filterStore cache.Store
	defaultLang string
}

// NewService wires the query service to its collaborators.
func NewService(fetcher entryFetcher, searcher resultSearcher, caches *cache.Set, defaultLang string) *Service {
	return &Service{
		fetcher:     fetcher,
		searcher:    searcher,
		ruzStore:    caches.RUZ,
		filterStore: caches.Filter,
		defaultLang: defaultLang,
	}
}

// FilterOptions returns the deduplicated filter listing for a date range
// and selector. Upstream failure degrades to an empty listing; only bad
// input is an error.
func (s *Service) FilterOptions(ctx context.Context, from, to string, sel cache.Selector, lang string) (models.FilterOptions, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return models.FilterOptions{}, err
	}
	if lang == "" {
		lang = s.defaultLang
	}

	key := cache.FilterOptionsKey(from, to, sel, lang)
	if opts, ok := cache.GetAs[models.FilterOptions](ctx, s.filterStore, key); ok {
		return opts, nil
	}

	entries, err := s.fetcher.Schedule(ctx, sel, from, to, lang)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("filter options degraded to empty listing")
	}

	// A person schedule can include co-taught records under other
	// lecturers' ids; restrict the listing to the requested person.
	personID, _ := strconv.ParseInt(sel.PersonID, 10, 64)
	opts := BuildFilterOptions(entries, personID)
	if len(entries) > 0 {
		cache.SetAs(ctx, s.filterStore, key, opts, 0)
	}
	return opts, nil
}

// Lessons returns the filtered lesson list for a date range against the
// default group's schedule. The fetch range is widened by one day on
// each side to absorb timezone drift at the range edges; the output is
// trimmed back to the requested range.
func (s *Service) Lessons(ctx context.Context, from, to string, filters cache.Filters) ([]models.Lesson, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	key := cache.RUZKey(from, to, filters)
	if lessons, ok := cache.GetAs[[]models.Lesson](ctx, s.ruzStore, key); ok {
		return lessons, nil
	}

	fetchFrom, fetchTo := bufferRange(from, to)
	entries, err := s.fetcher.Schedule(ctx, cache.Selector{}, fetchFrom, fetchTo, s.defaultLang)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("lesson query degraded to empty list")
		return []models.Lesson{}, nil
	}

	lessons := trimToRange(BuildLessons(entries, filters), from, to)
	if len(lessons) > 0 {
		cache.SetAs(ctx, s.ruzStore, key, lessons, 0)
	}
	return lessons, nil
}

// Search looks a term up across groups and lecturers, or one type when
// searchType is non-empty. Terms under two characters are rejected.
func (s *Service) Search(ctx context.Context, term, searchType string) ([]models.SearchResult, error) {
	if len([]rune(term)) < 2 {
		return nil, fmt.Errorf("%w: search string too short, minimum 2 characters", ErrInvalidQuery)
	}

	types := []string{models.SearchTypeGroup, models.SearchTypeLecturer}
	switch searchType {
	case "":
	case models.SearchTypeGroup, models.SearchTypeLecturer:
		types = []string{searchType}
	default:
		return nil, fmt.Errorf("%w: unknown search type %q", ErrInvalidQuery, searchType)
	}

	return s.searcher.Search(ctx, term, types), nil
}

// parseDate accepts the upstream dotted format and ISO dates.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{upstreamDateLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrInvalidQuery, s)
}

// normalizeRange parses both dates, swaps them when reversed, and
// renders them in the upstream format.
func normalizeRange(from, to string) (string, string, error) {
	fromT, err := parseDate(from)
	if err != nil {
		return "", "", err
	}
	toT, err := parseDate(to)
	if err != nil {
		return "", "", err
	}
	if toT.Before(fromT) {
		fromT, toT = toT, fromT
	}
	return fromT.Format(upstreamDateLayout), toT.Format(upstreamDateLayout), nil
}

// bufferRange widens a normalized range by one day on each side.
func bufferRange(from, to string) (string, string) {
	fromT, _ := time.Parse(upstreamDateLayout, from)
	toT, _ := time.Parse(upstreamDateLayout, to)
	return fromT.AddDate(0, 0, -1).Format(upstreamDateLayout),
		toT.AddDate(0, 0, 1).Format(upstreamDateLayout)
}

// trimToRange drops lessons whose date fell into the buffer days.
// Lesson start strings order lexicographically because every component
// is fixed width.
func trimToRange(lessons []models.Lesson, from, to string) []models.Lesson {
	out := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		date := l.Start
		if len(date) > len(upstreamDateLayout) {
			date = date[:len(upstreamDateLayout)]
		}
		if date >= from && date <= to {
			out = append(out, l)
		}
	}
	return out
}
