package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/ping", apiHandler.PingHandler)
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Health record routes
			r.Get("/health", apiHandler.ListHealthRecordsHandler)
			r.Post("/health", apiHandler.CreateHealthRecordHandler)
			r.Delete("/health/{recordID}", apiHandler.DeleteHealthRecordHandler)

			// Chat history routes
			r.Get("/history", apiHandler.GetHistoryHandler)
			r.Post("/history", apiHandler.PostMessageHandler)
			r.Delete("/history", apiHandler.ClearHistoryHandler)
		})
	})

	return r
}
