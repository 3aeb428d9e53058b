// cmd/sweep-orphans/main.go
// Retries deletions of attachment child posts that an edit left behind
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"Quill/internal/atproto/pds"
	"Quill/internal/atproto/postrepo"
	"Quill/internal/config"
	"Quill/internal/core/orphans"
	postgresRepo "Quill/internal/db/postgres"
	"Quill/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	limit := flag.Int("limit", cfg.SweepLimit, "maximum number of orphans to process")
	flag.Parse()

	logger.Initialize(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Connecting to database...")
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	client, err := pds.NewFromCredentials(ctx, pds.Credentials{
		Host:        cfg.PDSURL,
		Handle:      cfg.PDSHandle,
		Password:    cfg.PDSPassword,
		DID:         cfg.PDSDID,
		AccessToken: cfg.PDSAccessToken,
	})
	if err != nil {
		log.Fatalf("Failed to create PDS session: %v", err)
	}

	sweeper := orphans.NewSweeper(postgresRepo.NewOrphanRepository(db), postrepo.NewRepository(client))

	log.Printf("Sweeping up to %d orphaned child posts on %s...", *limit, client.HostURL())
	result, err := sweeper.Sweep(ctx, *limit)
	if err != nil {
		log.Fatalf("Sweep failed after %d resolved, %d failed: %v", result.Resolved, result.Failed, err)
	}

	log.Printf("Done: %d resolved, %d still failing", result.Resolved, result.Failed)
}
