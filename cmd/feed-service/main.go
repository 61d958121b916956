package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/PrathamTagline/d247-be/internal/cache"
	"github.com/PrathamTagline/d247-be/internal/config"
	"github.com/PrathamTagline/d247-be/internal/handlers"
	"github.com/PrathamTagline/d247-be/internal/metrics"
	"github.com/PrathamTagline/d247-be/internal/middleware"
	"github.com/PrathamTagline/d247-be/internal/query"
	"github.com/PrathamTagline/d247-be/internal/scheduler"
	"github.com/PrathamTagline/d247-be/internal/tree"
	"github.com/PrathamTagline/d247-be/internal/upstream"
)

func main() {
	fmt.Println("=== d247 Feed Service ===")

	// A .env file is optional; real deployments set the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to Postgres
	store, err := tree.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	fmt.Println("✓ Connected to Postgres")

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Printf("❌ Failed to ensure schema: %v\n", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	cacheStore := cache.NewRedisStore(redisClient)
	engine := query.NewEngine(cacheStore)
	pipelineMetrics := metrics.NewPipelineMetrics()

	tokens := upstream.NewTokenSource(cfg.ProviderLoginURL, cfg.TokenTTL)
	client := upstream.NewClient(cfg.ProviderBaseURL, cfg.DecryptionKey, tokens)

	// Background ingestion
	sched := scheduler.New(client, store, cacheStore, pipelineMetrics, scheduler.Options{
		TreeSyncInterval:    cfg.TreeSyncInterval,
		OddsRefreshInterval: cfg.OddsRefreshInterval,
		OddsTTL:             cfg.OddsTTL,
		Workers:             cfg.Workers,
	})

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	go sched.Run(schedCtx)
	fmt.Println("✓ Ingestion scheduler started")

	// Setup router
	handler := handlers.NewHandler(engine, store, client, store)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Secret-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(pipelineMetrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Odds
		r.Get("/odds/fetch", handler.FetchOdds)
		r.Get("/odds/{eventID}", handler.GetEventOdds)
		r.Post("/odds/markets/search", handler.SearchMarkets)
		r.Post("/odds/{eventID}", handler.FilterEventOdds)
		r.Post("/odds/{eventID}/{marketType}", handler.FilterEventOdds)
		r.Get("/highlight/{eventTypeID}", handler.GetHighlight)

		// Tree (guarded)
		r.Group(func(r chi.Router) {
			r.Use(middleware.SecretKey(cfg.APISecretKey))
			r.Get("/sports", handler.ListSports)
			r.Get("/sports/{eventTypeID}/competitions", handler.ListCompetitions)
			r.Get("/sports/{eventTypeID}/{competitionID}/events", handler.ListEvents)
			r.Get("/events/{eventID}", handler.GetEvent)
			r.Post("/tree/sync", handler.SyncTree)
		})
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Feed service listening on %s\n", cfg.ListenAddr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)
		cancelSched()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
