package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/eaglesec/eagle-access/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	usersHandler := handlers.NewUsersHandler(deps.Users)
	enrollHandler := handlers.NewEnrollHandler(deps.Enroller)
	accessHandler := handlers.NewAccessHandler(deps.Verifier, deps.AccessLog, deps.Embeddings, deps.Probes)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Users
		r.Get("/users", usersHandler.List)
		r.Delete("/users/{identifier}", usersHandler.Delete)

		// Registration
		r.Post("/register", enrollHandler.Register)
		r.Get("/register/{name}/status", enrollHandler.Status)

		// Access decisions
		r.Post("/access", accessHandler.Verify)
		r.Get("/access/log", accessHandler.Log)
		r.Post("/access/inspect", accessHandler.Inspect)
	})
}
