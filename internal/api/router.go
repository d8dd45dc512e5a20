package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
)

// NewRouter mounts every route. metricsHandler may be nil.
func NewRouter(h *Handler, metricsHandler http.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", h.health)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Get("/users/{userID}/plants", h.listPlants)
	r.Get("/users/{userID}/notifications", h.listNotifications)

	r.Route("/plants", func(r chi.Router) {
		r.Post("/", h.createPlant)
		r.Route("/{plantID}", func(r chi.Router) {
			r.Get("/", h.getPlant)
			r.Put("/", h.updatePlant)
			r.Delete("/", h.deletePlant)
			r.Post("/water", h.waterPlant)
			r.Post("/evaluate", h.evaluate)
			r.Get("/status", h.statusHistory)
		})
	})

	r.Post("/notifications/{notificationID}/read", h.markRead)
	r.Post("/tokens", h.saveToken)
	r.Get("/ws/plants/{plantID}", h.livePlant(allowedOrigins))

	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	return cors(r)
}
