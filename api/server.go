/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. Recoverer:     Panic recovery (500 instead of crash)
  3. RequestLogger: Structured request logging (slog)
  4. RateLimit:     Per-IP token bucket
  5. CORS:          Cross-origin requests for the planning frontend

ROUTE GROUPS:
  /api/campaigns/*   Campaign plans, schedules, manual overrides
  /api/rate-cards/*  Per-client ad-serving rates

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Rate limiting and request logging
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// RouterOptions tune the middleware stack.
type RouterOptions struct {
	RateLimit float64
	RateBurst int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))
	if opts.RateLimit > 0 {
		limiters := NewRateLimiterStore(rate.Limit(opts.RateLimit), opts.RateBurst, 10*time.Minute)
		r.Use(RateLimit(limiters, h.Logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Campaign routes
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Put("/{id}/bursts", h.ReplaceBursts)
			r.Put("/{id}/line-items", h.ReplaceLineItemSources)

			// Schedule routes
			r.Route("/{id}/schedule", func(r chi.Router) {
				r.Get("/", h.GetSchedule)
				r.Get("/line-items", h.GetLineItems)
				r.Post("/edit", h.BeginEdit)
				r.Put("/edit/cell", h.EditCell)
				r.Put("/edit/line-item", h.EditLineItem)
				r.Post("/edit/save", h.SaveSchedule)
				r.Post("/edit/reset", h.ResetSchedule)
			})
		})

		// Rate card routes
		r.Route("/rate-cards", func(r chi.Router) {
			r.Get("/{client}", h.GetRateCard)
			r.Put("/{client}", h.SaveRateCard)
		})
	})

	return r
}
