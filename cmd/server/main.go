package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/pressly/goose/v3"

	"Quill/internal/api/handlers/post"
	"Quill/internal/api/middleware"
	"Quill/internal/api/routes"
	"Quill/internal/atproto/pds"
	"Quill/internal/atproto/postrepo"
	"Quill/internal/config"
	"Quill/internal/core/blobs"
	"Quill/internal/core/composer"
	"Quill/internal/core/orphans"
	postgresRepo "Quill/internal/db/postgres"
	"Quill/internal/events"
	"Quill/internal/logger"
	"Quill/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger.Initialize(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to AppView database")

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}

	if err := goose.Up(db, "internal/db/migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Migrations completed successfully")

	pdsClient, err := pds.NewFromCredentials(ctx, pds.Credentials{
		Host:        cfg.PDSURL,
		Handle:      cfg.PDSHandle,
		Password:    cfg.PDSPassword,
		DID:         cfg.PDSDID,
		AccessToken: cfg.PDSAccessToken,
	})
	if err != nil {
		log.Fatal("Failed to create PDS session:", err)
	}
	slog.Info("PDS session established", "host", pdsClient.HostURL(), "did", pdsClient.DID())

	// Broadcast sinks: websocket clients always, NATS when configured
	hub := events.NewHub(originChecker(cfg.AllowedOrigins))
	go hub.Run(ctx)

	var natsPublisher composer.Broadcaster
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("quill-appview"))
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		defer nc.Drain()
		natsPublisher = events.NewNatsPublisher(nc, cfg.NatsSubjectPrefix)
		slog.Info("Publishing events to NATS", "url", cfg.NatsURL, "prefix", cfg.NatsSubjectPrefix)
	}

	// Continuations of every composer run one at a time on this queue
	mainQueue := composer.NewMainQueue(256)
	defer mainQueue.Close()

	orphanRepo := postgresRepo.NewOrphanRepository(db)
	postRepo := postrepo.NewRepository(pdsClient)
	blobService := blobs.NewBlobService(pdsClient)

	if cfg.SweepInterval > 0 {
		sweeper := orphans.NewSweeper(orphanRepo, postRepo)
		go sweeper.Run(ctx, cfg.SweepInterval, cfg.SweepLimit)
		slog.Info("Orphan sweeps enabled", "interval", cfg.SweepInterval, "limit", cfg.SweepLimit)
	}

	postHandler := post.NewHandler(postRepo, blobService, cfg.RequestTimeout,
		composer.WithBroadcaster(events.NewFanout(hub, natsPublisher)),
		composer.WithDispatcher(mainQueue),
		composer.WithOrphanRecorder(orphans.NewRecorder(orphanRepo)),
	)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go rateLimiter.Run(ctx.Done())

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		routes.RegisterPostRoutes(r, postHandler)
	})

	r.Handle("/events", hub)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Quill AppView starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	slog.Info("Quill AppView stopped")
}

// originChecker accepts websocket upgrades from the listed origins. Without
// a list only same-origin requests are accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
