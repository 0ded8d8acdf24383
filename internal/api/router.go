// Package api serves stored analysis runs over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/caseybackes/galvanize-capstone-one/internal/api/handlers"
)

// Repository is what the router needs from the store
type Repository interface {
	handlers.RunRepository
	handlers.Pinger
}

// NewRouter wires all routes. allowedOrigins configures CORS.
func NewRouter(repo Repository, allowedOrigins []string) http.Handler {
	runHandler := handlers.NewRunHandler(repo)
	healthHandler := handlers.NewHealthHandler(repo)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.Health)

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", runHandler.ListRuns)
		r.Get("/{runId}", runHandler.GetRun)
		r.Get("/{runId}/popular", runHandler.GetPopular)
		r.Get("/{runId}/proximity", runHandler.GetProximity)
	})

	return r
}
