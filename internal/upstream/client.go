// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package upstream talks to the timetable API: schedule fetches and
// group/lecturer search, with client-side rate limiting, bounded retry,
// and a circuit breaker. Results are cached per namespace; a failed or
// empty fetch is never cached, so transient upstream trouble cannot
// poison the cache for a full TTL.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/ruz-tools/ruzgate/internal/config"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/metrics"
	"github.com/ruz-tools/ruzgate/internal/models"
)

// retryableStatus lists upstream responses worth retrying. Everything
// else fails the attempt immediately.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is the raw HTTP client for the timetable API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	defaultGroupID string
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
}

// NewClient builds a client from configuration.
func NewClient(cfg config.UpstreamConfig) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		defaultGroupID: cfg.DefaultGroupID,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		limiter:        rate.NewLimiter(limit, burst),
	}
}

// Schedule fetches raw schedule entries for a date range. The person id
// takes precedence over the group id; with neither, the configured
// default group is queried. Dates use the upstream YYYY.MM.DD format.
func (c *Client) Schedule(ctx context.Context, groupID, personID, start, finish, lang string) ([]models.ScheduleEntry, error) {
	var path string
	switch {
	case personID != "":
		path = "/schedule/person/" + url.PathEscape(personID)
	case groupID != "":
		path = "/schedule/group/" + url.PathEscape(groupID)
	default:
		path = "/schedule/group/" + url.PathEscape(c.defaultGroupID)
	}

	params := url.Values{}
	params.Set("start", start)
	params.Set("finish", finish)
	params.Set("lng", lang)

	var entries []models.ScheduleEntry
	if err := c.getJSON(ctx, "schedule", c.baseURL+path+"?"+params.Encode(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// searchItem is the upstream search response shape.
type searchItem struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Search queries the upstream search endpoint for one entity type
// (models.SearchTypeGroup or models.SearchTypeLecturer).
func (c *Client) Search(ctx context.Context, term, searchType string) ([]models.SearchResult, error) {
	typeName := "group"
	if searchType == models.SearchTypeLecturer {
		typeName = "lecturer"
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("type", typeName)

	var items []searchItem
	if err := c.getJSON(ctx, "search", c.baseURL+"/search?"+params.Encode(), &items); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.SearchResult{
			Type:        searchType,
			ID:          strconv.FormatInt(item.ID, 10),
			Name:        item.Label,
			Description: item.Description,
		})
	}
	return results, nil
}

// getJSON performs a GET with rate limiting and bounded retry, decoding
// the body into out. A malformed body is a fetch failure, not a panic.
func (c *Client) getJSON(ctx context.Context, endpoint, reqURL string, out interface{}) error {
	started := time.Now()
	err := c.fetchJSON(ctx, endpoint, reqURL, out)
	metrics.RecordUpstreamRequest(endpoint, time.Since(started), err)
	return err
}

func (c *Client) fetchJSON(ctx context.Context, endpoint, reqURL string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			metrics.UpstreamRetries.WithLabelValues(endpoint).Inc()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport errors are as transient as a 502.
			lastErr = fmt.Errorf("request failed: %w", err)
			if !c.backoff(ctx, attempt, "") {
				return ctx.Err()
			}
			continue
		}

		if retryableStatus[resp.StatusCode] {
			retryAfter := resp.Header.Get("Retry-After")
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
			if !c.backoff(ctx, attempt, retryAfter) {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
		}

		decodeErr := json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("malformed upstream response: %w", decodeErr)
		}
		return nil
	}

	logging.Ctx(ctx).Warn().
		Err(lastErr).
		Str("endpoint", endpoint).
		Int("attempts", c.maxRetries).
		Msg("upstream call exhausted retries")
	return fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}

// backoff waits before the next attempt. Delays double per attempt; a
// Retry-After header in whole seconds wins when present. Returns false
// when the context was cancelled during the wait.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter string) bool {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			delay = time.Duration(seconds) * time.Second
		}
	}

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
