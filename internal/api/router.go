package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/curtain-skill/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/curtains", s.handleListCurtains)

		if s.audit != nil {
			r.With(s.requireScope(auth.ScopeRead)).Get("/audit", s.handleListAudit)
		}

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Group(func(r chi.Router) {
				r.Use(s.requireScope(auth.ScopeAdmin))
				r.Post("/refresh", s.handleRefreshDevices)
			})
		})
	})

	return r
}

// handleHealth reports liveness. Degraded dependencies answer 503 so a
// container healthcheck can restart the skill.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"registry": "ok",
	}
	healthy := true

	if !s.registry.Snapshot().Loaded() {
		checks["registry"] = "not loaded"
		healthy = false
	}
	if s.mqtt != nil {
		checks["mqtt"] = "ok"
		switch {
		case !s.mqtt.IsConnected():
			checks["mqtt"] = "disconnected"
			healthy = false
		case s.intents != "" && !s.mqtt.HasSubscription(s.intents):
			checks["mqtt"] = "not subscribed to " + s.intents
			healthy = false
		}
	}
	if s.db != nil {
		checks["database"] = "ok"
		if err := s.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
