package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/cache"
	"github.com/user/topic-scout/internal/config"
	"github.com/user/topic-scout/internal/index"
	"github.com/user/topic-scout/internal/ingest"
	"github.com/user/topic-scout/internal/maintenance"
	"github.com/user/topic-scout/internal/server"
	"github.com/user/topic-scout/internal/store"
	"github.com/user/topic-scout/internal/youtube"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Initialize structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Root context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record store
	sqliteStore, err := store.NewSQLiteStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	log.Info().Str("path", cfg.DB.Path).Msg("Record store opened")

	// Full-text index
	idx, err := index.Open(cfg.Index.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open full-text index")
	}
	log.Info().Str("path", cfg.Index.Path).Msg("Full-text index opened")

	// Disk cache for upstream responses
	diskCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize disk cache")
	}
	log.Info().Str("dir", cfg.Cache.Dir).Dur("ttl", cfg.Cache.TTL).Msg("Disk cache initialized")

	// Upstream API client
	ytClient, err := youtube.NewClient(ctx, &cfg.YouTube, diskCache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create YouTube client")
	}
	log.Info().Msg("YouTube client initialized")

	// Ingestion coordinator
	coord := ingest.New(sqliteStore, idx, ytClient, cfg.Ingest.MaxResults, cfg.YouTube.CommentLimit)
	log.Info().Msg("Ingestion coordinator initialized")

	// Maintenance scheduler
	sched := maintenance.NewScheduler(sqliteStore, idx, &cfg.Maintenance)

	// HTTP server
	httpServer := server.NewServer(coord, sqliteStore)

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sched.Start(ctx)
	log.Info().Msg("Maintenance scheduler started")

	log.Info().Msg("Topic Scout started successfully")

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop the maintenance scheduler from triggering new cycles
	sched.Stop()

	// 2. Stop accepting HTTP requests and drain in-flight ones
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Close the full-text index
	if err := idx.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing full-text index")
	} else {
		log.Info().Msg("Full-text index closed")
	}

	// 4. Close the record store connection pool
	if err := sqliteStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing record store")
	} else {
		log.Info().Msg("Record store closed")
	}

	cancel()

	select {
	case <-shutdownCtx.Done():
		if shutdownCtx.Err() == context.DeadlineExceeded {
			log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
		}
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
}
