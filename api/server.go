/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RequestLog: One logrus entry per request (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/formulas         Formula definitions
  /api/calculations/*   Calculations
  /api/indices/*        Index series
  /api/scenarios/*      Demo data
  /api/admin/*          Import runs

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/interestd: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// DefaultCORSOrigins are used when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLog(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/formulas", h.ListFormulas)
		r.Post("/calculations/{formula}", h.Calculate)

		// Index routes
		r.Route("/indices", func(r chi.Router) {
			r.Get("/", h.ListIndices)
			r.Get("/{name}/records", h.GetRecords)
			r.Post("/{name}/records", h.AppendRecords)
			r.Get("/{name}/nearest", h.GetNearest)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/import", h.LastImport)
			r.Post("/import", h.TriggerImport)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetStore)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// RequestLog logs each request through log once it completes.
func RequestLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				entry := log.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				})
				switch {
				case ww.Status() >= 500:
					entry.Error("request failed")
				case ww.Status() >= 400:
					entry.Warn("request rejected")
				default:
					entry.Debug("request served")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
