package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api"
	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/blob"
	"github.com/its-pratyushpandey/NextHire-backend/internal/config"
	"github.com/its-pratyushpandey/NextHire-backend/internal/directory"
	"github.com/its-pratyushpandey/NextHire-backend/internal/handlers"
	"github.com/its-pratyushpandey/NextHire-backend/internal/hub"
	"github.com/its-pratyushpandey/NextHire-backend/internal/search"
	"github.com/its-pratyushpandey/NextHire-backend/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Message store: Postgres in production, SQLite as the local
	// fallback so the service runs without external dependencies.
	var msgStore store.MessageStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("running database migrations...")
		if err := pg.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("connected to PostgreSQL")
		msgStore = pg
	} else {
		sq, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
		msgStore = sq
	}
	defer msgStore.Close()

	// Realtime hub
	h := hub.New(logger)

	// Redis backs rate limiting, search and the cross-instance
	// fan-out bridge. All three are optional.
	var (
		redisClient *redis.Client
		searchIndex *search.Index
		limiter     *middleware.RateLimiter
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to Redis")

		searchIndex = search.NewIndex(redisClient)
		limiter = middleware.NewRateLimiter(redisClient, logger)

		bridge := hub.NewBridge(redisClient, logger)
		h.SetBridge(bridge)
		go bridge.Run(ctx, h)
	}

	// Collaborator services
	dir := directory.NewHTTPDirectory(cfg.DirectoryURL)
	blobs := blob.NewHTTPStore(cfg.BlobUploadURL, cfg.UploadTimeout)

	// Handlers and router
	handler := handlers.NewHandler(msgStore, h, dir, blobs, searchIndex, logger)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	router := api.NewRouter(logger, handler, auth, limiter, cfg.UploadMaxBytes)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
