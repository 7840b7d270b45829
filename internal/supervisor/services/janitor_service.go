// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package services

import (
	"context"
	"time"

	"github.com/ruz-tools/ruzgate/internal/logging"
)

// Pruner removes expired cache entries and reports how many went.
type Pruner interface {
	Prune(ctx context.Context) int
}

// JanitorService periodically sweeps expired entries out of the memory
// caches. Without it, entries that are never read again would sit in
// memory until their keys happen to be requested.
type JanitorService struct {
	pruner   Pruner
	interval time.Duration
	name     string
}

// NewJanitorService creates the cache janitor. The interval must be
// positive; the caller decides the cadence.
func NewJanitorService(pruner Pruner, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &JanitorService{
		pruner:   pruner,
		interval: interval,
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service. It prunes on a fixed ticker until
// the context is canceled.
func (j *JanitorService) Serve(ctx context.Context) error {
	log := logging.WithComponent("janitor")
	log.Info().Dur("interval", j.interval).Msg("Cache janitor started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cache janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if removed := j.pruner.Prune(ctx); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Pruned expired cache entries")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return j.name
}
