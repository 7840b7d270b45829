// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package config loads and validates ruzgate configuration from defaults,
// an optional YAML file, and environment variables, in that order of
// precedence (env highest).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for ruzgate.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Cache    CacheConfig    `koanf:"cache"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamConfig controls the timetable API client.
type UpstreamConfig struct {
	// BaseURL is the root of the upstream timetable API.
	BaseURL string `koanf:"base_url"`

	// DefaultGroupID is the group queried when a request names neither
	// a group nor a person.
	DefaultGroupID string `koanf:"default_group_id"`

	// DefaultLanguage is the lng query parameter sent upstream:
	// 1 is Russian, 3 is English.
	DefaultLanguage string `koanf:"default_language"`

	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RateLimit is the maximum outbound requests per second; 0 disables
	// client-side limiting. RateBurst bounds the token bucket.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// SearchTimeout bounds the fan-out search join.
	SearchTimeout time.Duration `koanf:"search_timeout"`
}

// CacheConfig controls the cache backends and per-namespace TTLs.
type CacheConfig struct {
	// Backend selects the cache implementation: memory or redis.
	Backend string `koanf:"backend"`

	// Redis connection settings, used when Backend is redis.
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisTimeout  time.Duration `koanf:"redis_timeout"`

	// TTLs per cache namespace.
	ScheduleTTL time.Duration `koanf:"schedule_ttl"`
	SearchTTL   time.Duration `koanf:"search_ttl"`
	FilterTTL   time.Duration `koanf:"filter_ttl"`

	// PruneInterval is how often the janitor sweeps expired entries
	// from in-memory backends.
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// APIConfig controls the public HTTP API surface.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.MaxRetries < 1 {
		return fmt.Errorf("upstream.max_retries must be at least 1, got %d", c.Upstream.MaxRetries)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when cache.backend is redis")
	}
	for name, ttl := range map[string]time.Duration{
		"cache.schedule_ttl": c.Cache.ScheduleTTL,
		"cache.search_ttl":   c.Cache.SearchTTL,
		"cache.filter_ttl":   c.Cache.FilterTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, ttl)
		}
	}
	if c.Cache.PruneInterval <= 0 {
		return fmt.Errorf("cache.prune_interval must be positive, got %s", c.Cache.PruneInterval)
	}
	return nil
}
