// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/metrics"
	"github.com/ruz-tools/ruzgate/internal/schedule"
	"github.com/ruz-tools/ruzgate/internal/validation"
)

// Handler bundles the services the HTTP endpoints depend on.
type Handler struct {
	schedule    *schedule.Service
	caches      *cache.Set
	invalidator *cache.Invalidator
	startTime   time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(svc *schedule.Service, caches *cache.Set, invalidator *cache.Invalidator) *Handler {
	return &Handler{
		schedule:    svc,
		caches:      caches,
		invalidator: invalidator,
		startTime:   time.Now(),
	}
}

// GetFilterOptions returns the deduplicated discipline, location and
// lecturer listings for a date range.
func (h *Handler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := FilterOptionsRequest{
		DateFrom: params.String("dateFrom"),
		DateTo:   params.String("dateTo"),
		Group:    params.String("group"),
		Lecturer: params.String("lecturer"),
		Lang:     params.String("lang"),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Fields())
		return
	}

	sel := cache.Selector{GroupID: req.Group, PersonID: req.Lecturer}
	options, err := h.schedule.FilterOptions(r.Context(), req.DateFrom, req.DateTo, sel, req.Lang)
	if err != nil {
		h.respondScheduleError(rw, err)
		return
	}

	rw.Success(options)
}

// GetRUZ returns the reshaped lesson list for a date range, optionally
// restricted to the given discipline, location and lecturer ids.
func (h *Handler) GetRUZ(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := RUZRequest{
		DateFrom: params.String("dateFrom"),
		DateTo:   params.String("dateTo"),
	}
	if req.DisciplineIDs, req.LocationIDs, req.LecturerIDs, err = params.FilterLists(); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Fields())
		return
	}

	filters := cache.Filters{
		DisciplineIDs: req.DisciplineIDs,
		LocationIDs:   req.LocationIDs,
		LecturerIDs:   req.LecturerIDs,
	}
	lessons, err := h.schedule.Lessons(r.Context(), req.DateFrom, req.DateTo, filters)
	if err != nil {
		h.respondScheduleError(rw, err)
		return
	}

	rw.SuccessWithMeta(lessons, &APIMeta{Count: len(lessons)})
}

// Search looks a term up across groups and lecturers.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := SearchRequest{
		SearchString: params.String("searchString"),
		Type:         params.String("type"),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Fields())
		return
	}

	results, err := h.schedule.Search(r.Context(), req.SearchString, req.Type)
	if err != nil {
		h.respondScheduleError(rw, err)
		return
	}

	rw.SuccessWithMeta(results, &APIMeta{Count: len(results)})
}

// clearCacheResult reports what an invalidation removed.
type clearCacheResult struct {
	Scope   string `json:"scope"`
	Group   string `json:"group,omitempty"`
	Removed int    `json:"removed,omitempty"`
}

// ClearCache drops every managed cache, or only the entries of one
// group when the group parameter is set.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := ClearCacheRequest{Group: params.String("group")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Fields())
		return
	}

	if req.Group != "" {
		removed, err := h.invalidator.ClearGroup(r.Context(), req.Group)
		if err != nil {
			rw.InternalError("group invalidation failed: " + err.Error())
			return
		}
		metrics.CacheInvalidations.WithLabelValues("group").Inc()
		logging.Ctx(r.Context()).Info().
			Str("group", req.Group).
			Int("removed", removed).
			Msg("Cleared cached entries for group")
		rw.Success(clearCacheResult{Scope: "group", Group: req.Group, Removed: removed})
		return
	}

	if err := h.invalidator.ClearAll(r.Context()); err != nil {
		rw.InternalError("cache clear failed: " + err.Error())
		return
	}
	metrics.CacheInvalidations.WithLabelValues("all").Inc()
	logging.Ctx(r.Context()).Info().Msg("Cleared all caches")
	rw.Success(clearCacheResult{Scope: "all"})
}

// cacheStatsEntry is one cache's counters in the stats response.
type cacheStatsEntry struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Entries   int64   `json:"entries"`
	HitRate   float64 `json:"hit_rate"`
}

// CacheStats reports hit, miss and eviction counters per cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats := make(map[string]cacheStatsEntry)
	for name, s := range h.caches.StatsSnapshot() {
		stats[name] = cacheStatsEntry{
			Hits:      s.Hits,
			Misses:    s.Misses,
			Evictions: s.Evictions,
			Entries:   s.Entries,
			HitRate:   s.HitRate(),
		}
	}

	rw.Success(stats)
}

// HealthLive is the liveness probe. It returns 200 as long as the
// process can serve requests, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe. The gateway fails open on both
// cache and upstream trouble, so readiness reports the cache backends
// but never degrades to a non-200 status because of them.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	caches := make(map[string]int64)
	for name, s := range h.caches.StatsSnapshot() {
		caches[name] = s.Entries
	}

	WriteSuccess(w, r, map[string]interface{}{
		"status": "ready",
		"caches": caches,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// respondScheduleError maps service errors to HTTP statuses. Anything
// that is not a client mistake is an internal error; upstream outages
// surface as degraded empty payloads long before this point.
func (h *Handler) respondScheduleError(rw *ResponseWriter, err error) {
	if errors.Is(err, schedule.ErrInvalidQuery) {
		rw.BadRequest(err.Error())
		return
	}
	rw.InternalError(err.Error())
}
