// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package main is the entry point for the ruzgate server.
//
// Ruzgate is a caching gateway in front of the RUZ timetable API. It
// answers schedule, filter-option and search queries from its own
// caches, fetching from the upstream API only on a miss, and keeps
// serving degraded (empty) responses when the upstream is down.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml and env vars
//  2. Caches: in-memory stores, or Redis with fallback to memory
//  3. Upstream: rate-limited HTTP client behind a circuit breaker
//  4. Query service: reshaping, filtering and per-namespace caching
//  5. HTTP server: chi router under a suture supervisor tree
//
// Graceful shutdown on SIGINT and SIGTERM: the supervisor drains the
// HTTP server and stops the cache janitor.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruz-tools/ruzgate/internal/api"
	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/config"
	"github.com/ruz-tools/ruzgate/internal/logging"
	"github.com/ruz-tools/ruzgate/internal/schedule"
	"github.com/ruz-tools/ruzgate/internal/supervisor"
	"github.com/ruz-tools/ruzgate/internal/supervisor/services"
	"github.com/ruz-tools/ruzgate/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Str("cache_backend", cfg.Cache.Backend).
		Str("default_group", cfg.Upstream.DefaultGroupID).
		Msg("Starting ruzgate")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache stores. Redis backends fall back to memory inside NewSet,
	// so startup never blocks on an unreachable Redis.
	caches := cache.NewSet(ctx, cfg.Cache)
	defer func() {
		if err := caches.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing caches")
		}
	}()

	// Upstream client with retry, rate limiting and a circuit breaker,
	// then the cache-first fetch and search layers on top.
	client := upstream.NewClient(cfg.Upstream)
	breaker := upstream.NewBreaker("ruz-upstream")
	fetcher := upstream.NewFetcher(client, caches.Schedule, breaker, cfg.Cache.ScheduleTTL)
	searcher := upstream.NewSearcher(client, caches.Search, cfg.Cache.SearchTTL, cfg.Upstream.SearchTimeout)

	svc := schedule.NewService(fetcher, searcher, caches, cfg.Upstream.DefaultLanguage)
	invalidator := cache.NewInvalidator(caches.All()...)

	handler := api.NewHandler(svc, caches, invalidator)
	router := api.NewRouter(handler, cfg.API)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(services.NewJanitorService(caches, cache.PruneInterval(cfg.Cache)))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Gateway stopped gracefully")
}
