// api serves the inference engine over HTTP. Runs are stored in Postgres
// when DATABASE_URL is set, otherwise in memory.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"pacbayes/adapters/api"
	"pacbayes/adapters/mvl"
	"pacbayes/adapters/postgres"
	"pacbayes/internal/config"
	"pacbayes/ports"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		repo = postgres.NewRunRepository(db)
	} else {
		repo = api.NewMemStore()
	}

	oracle := mvl.New(42)
	server := api.NewServer(oracle, repo, cfg.Analysis, cfg.Workers)

	addr := ":" + cfg.Server.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("server: %v", err)
	}
}
