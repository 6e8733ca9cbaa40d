package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/api"
	"github.com/Priyan-git/rait-rooms/internal/config"
	"github.com/Priyan-git/rait-rooms/internal/directory"
	"github.com/Priyan-git/rait-rooms/internal/identity"
	"github.com/Priyan-git/rait-rooms/internal/netmon"
	"github.com/Priyan-git/rait-rooms/internal/roomlog"
	"github.com/Priyan-git/rait-rooms/internal/store"
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

	ctx := context.Background()

	// Room directory store: PostgreSQL when configured, SQLite otherwise
	var rooms store.RoomStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pg.Close()
		logger.Info().Msg("connected to PostgreSQL")
		rooms = pg
	} else {
		lite, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer lite.Close()
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite room directory")
		rooms = lite
	}

	// Redis message store
	redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisStore.Close()
	logger.Info().Msg("connected to Redis")

	// Core services
	dir := directory.New(rooms, redisStore, logger)
	log := roomlog.New(redisStore, dir, logger)
	ident := identity.NewProvider(rooms, logger)

	if cfg.SeedRooms {
		dir.Seed(ctx)
		logger.Info().Msg("default rooms seeded")
	}

	// Connectivity monitor probes Redis, the message transport
	monitor := netmon.New(redisStore.Ping, cfg.ProbeInterval, logger)
	monitor.Start()
	defer monitor.Stop()

	// Create router
	router := api.NewRouter(api.Deps{
		Rooms:    rooms,
		Redis:    redisStore,
		Dir:      dir,
		Log:      log,
		Identity: ident,
		Monitor:  monitor,
		Logger:   logger,
	})

	// Create server. No global write timeout: websocket streams are
	// long-lived and pace themselves with ping/pong deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting rait-rooms server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
