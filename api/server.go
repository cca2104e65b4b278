/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/people/*     People, enrollments, per-person calendar and billing
  /api/billing/*    Admin monthly report
  /api/calendar/*   Working-day resolution
  /api/holidays/*   Holiday management
  /api/absences     Cancellations (bajas)
  /api/adhoc/*      Ad-hoc additions (altas puntuales) and approval
  /api/pricing/*    Pricing configuration and sign-up estimates

SECURITY NOTE:
  No authentication middleware. Authentication and authorization live in
  the hosted backend in front of this service and are out of scope here.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// People routes
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.ListPeople)
			r.Post("/", h.CreatePerson)
			r.Get("/{id}", h.GetPerson)
			r.Post("/{id}/enrollment", h.CreateEnrollment)
			r.Delete("/{id}/enrollment", h.DeactivateEnrollment)
			r.Get("/{id}/enrollment", h.GetEnrollment)
			r.Get("/{id}/calendar", h.GetPersonCalendar)
			r.Get("/{id}/billing", h.GetPersonBilling)
		})

		// Admin billing report
		r.Route("/billing", func(r chi.Router) {
			r.Get("/month", h.GetMonthReport)
		})

		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/working-days", h.GetWorkingDays)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Absence routes (bajas)
		r.Route("/absences", func(r chi.Router) {
			r.Post("/", h.CreateAbsence)
			r.Get("/", h.ListAbsences)
		})

		// Ad-hoc addition routes (altas puntuales)
		r.Route("/adhoc", func(r chi.Router) {
			r.Post("/", h.CreateAdHoc)
			r.Get("/", h.ListAdHoc)
			r.Post("/{id}/approve", h.ApproveAdHoc)
			r.Post("/{id}/reject", h.RejectAdHoc)
		})

		// Pricing routes
		r.Route("/pricing", func(r chi.Router) {
			r.Get("/", h.GetPricingConfig)
			r.Put("/", h.SavePricingConfig)
			r.Get("/estimate", h.GetEstimate)
		})
	})

	return r
}
