// Command api serves stored analysis runs as JSON.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/caseybackes/galvanize-capstone-one/internal/api"
	"github.com/caseybackes/galvanize-capstone-one/internal/api/repository"
	"github.com/caseybackes/galvanize-capstone-one/internal/config"
	"github.com/caseybackes/galvanize-capstone-one/internal/db"
)

func main() {
	// .env first, then .env.local overrides
	config.LoadDotEnv()
	cfg := config.Load()

	log.Printf("Connecting to SQLite database: %s", cfg.DatabasePath)
	store, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("SQLite database connection established")

	r := api.NewRouter(repository.NewSQLiteRunRepository(store), cfg.AllowedOrigins)

	log.Printf("API server starting on port %s", cfg.Port)
	log.Printf("Endpoints available:")
	log.Printf("  GET /health                        - Health check with database status")
	log.Printf("  GET /api/runs                      - List stored runs")
	log.Printf("  GET /api/runs/{runId}              - Get a run")
	log.Printf("  GET /api/runs/{runId}/popular      - Top stations per window (?window=)")
	log.Printf("  GET /api/runs/{runId}/proximity    - Near-transit comparison")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
