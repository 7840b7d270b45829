// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/models"
)

// searchClient is the slice of Client the searcher needs.
type searchClient interface {
	Search(ctx context.Context, term, searchType string) ([]models.SearchResult, error)
}

// Searcher fans a term out over entity types concurrently and joins the
// branches with a bounded wait. A slow or failed branch is skipped, not
// fatal: partial results beat no results for an interactive search box.
type Searcher struct {
	client  searchClient
	store   cache.Store
	ttl     time.Duration
	timeout time.Duration
}

// NewSearcher wires a searcher to the search cache store.
func NewSearcher(client searchClient, store cache.Store, ttl, timeout time.Duration) *Searcher {
	return &Searcher{
		client:  client,
		store:   store,
		ttl:     ttl,
		timeout: timeout,
	}
}

// Search runs the term against every requested type. Results arrive in
// type order regardless of which branch finished first.
func (s *Searcher) Search(ctx context.Context, term string, types []string) []models.SearchResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	perType := make([][]models.SearchResult, len(types))
	var wg sync.WaitGroup
	for i, searchType := range types {
		wg.Add(1)
		go func(i int, searchType string) {
			defer wg.Done()
			perType[i] = s.searchOne(ctx, term, searchType)
		}(i, searchType)
	}
	wg.Wait()

	var out []models.SearchResult
	for _, results := range perType {
		out = append(out, results...)
	}
	if out == nil {
		out = []models.SearchResult{}
	}
	return out
}

// searchOne serves one branch, cache first. Failures return nil so the
// join simply skips the branch.
func (s *Searcher) searchOne(ctx context.Context, term, searchType string) []models.SearchResult {
	key := cache.SearchKey(term, searchType)

	if results, ok := cache.GetAs[[]models.SearchResult](ctx, s.store, key); ok {
		return results
	}

	results, err := s.client.Search(ctx, term, searchType)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("term", term).
			Str("type", searchType).
			Msg("search branch failed, skipping")
		return nil
	}
	if len(results) > 0 {
		cache.SetAs(ctx, s.store, key, results, s.ttl)
	}
	return results
}
