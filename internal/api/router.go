// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruz-tools/ruzgate/internal/config"
	"github.com/ruz-tools/ruzgate/internal/middleware"
)

// Router builds the HTTP handler tree for the gateway.
type Router struct {
	handler *Handler
	cfg     config.APIConfig
}

// NewRouter creates a router around the endpoint handler.
func NewRouter(handler *Handler, cfg config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup wires all routes with the global middleware stack.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.corsHandler())

	// Schedule endpoints. Both verbs are accepted: GET with query
	// parameters and POST with a JSON body.
	r.Route("/api", func(r chi.Router) {
		r.Use(rt.rateLimit())
		r.Use(securityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			r.Method(method, "/getFilterOptions", http.HandlerFunc(rt.handler.GetFilterOptions))
			r.Method(method, "/getRUZ", http.HandlerFunc(rt.handler.GetRUZ))
			r.Method(method, "/search", http.HandlerFunc(rt.handler.Search))
		}

		// Cache administration.
		r.Post("/clearCache", rt.handler.ClearCache)
		r.Get("/cacheStats", rt.handler.CacheStats)
	})

	// Health probes get a permissive limit so monitoring can poll
	// frequently without tripping the API limit.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Use(securityHeaders)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// corsHandler builds the CORS middleware from config. The default
// origin list is "*"; deployments narrow it via api.cors_origins.
func (rt *Router) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	})
}

// rateLimit builds the per-IP API rate limiter. A zero request count
// disables limiting.
func (rt *Router) rateLimit() func(http.Handler) http.Handler {
	if rt.cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(rt.cfg.RateLimitReqs, rt.cfg.RateLimitWindow)
}

// securityHeaders adds defensive headers to API responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
