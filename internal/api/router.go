package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// healthCheckTimeout bounds each connector check in /health and /metrics.
const healthCheckTimeout = 2 * time.Second

// corsMaxAge is the preflight cache lifetime in seconds.
const corsMaxAge = 300

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.telemetryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: s.cfg.CORS.AllowedMethods,
		AllowedHeaders: s.cfg.CORS.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-ID", "X-Session-ID"},
		MaxAge:         corsMaxAge,
	}))
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method Not Allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// The WebSocket route checks the key itself (header or query).
		r.Get("/events/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.apiKeyMiddleware)

			r.Post("/intent", s.handleIntent)
			r.Post("/commands", s.handleCommands)

			r.Get("/metrics", s.handleMetrics)

			r.Route("/findings", func(r chi.Router) {
				r.Get("/", s.handleListFindings)
				r.Get("/{id}", s.handleGetFinding)
			})

			r.Post("/credentials/invalidate", s.handleInvalidateCredentials)
		})
	})

	return r
}

// handleHealth returns the server health status with per-connector checks.
// It reports "degraded" when an optional connector is down; the API itself
// is still serving.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := s.runChecks(r.Context())

	status := "ok"
	report := make(map[string]string, len(checks))
	for name, ok := range checks {
		if ok {
			report[name] = "ok"
			continue
		}
		report[name] = "unavailable"
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  report,
	})
}

// runChecks calls every configured HealthChecker with a bounded context.
func (s *Server) runChecks(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(s.checks))
	for name, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := c.HealthCheck(checkCtx)
		cancel()
		if err != nil {
			s.logger.Debug("connector health check failed", "connector", name, "error", err)
		}
		results[name] = err == nil
	}
	return results
}
