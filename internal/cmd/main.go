package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gameCfg, err := loadGameConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid game configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The server refuses to start without its stores: a room server that
	// cannot archive rounds or track presence silently loses data.
	pool, err := setupDatabase(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	services, err := setupServices(ctx, cfg, gameCfg, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	log.Info().
		Str("port", cfg.Port).
		Int("min_performance_sec", gameCfg.MinPerformanceDurationSec).
		Int("max_performance_sec", gameCfg.MaxPerformanceDurationSec).
		Int("cut_threshold_percent", gameCfg.CutVoteThresholdPercent).
		Msg("starting prompt party server")

	// Broadcast fan-out and empty-room sweeping run for the process lifetime.
	go services.Gateway.Start(ctx)
	go services.Registry.Run(ctx)

	server := buildServer(cfg, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()

	// Give in-flight broadcasts and archive writes time to drain
	time.Sleep(1 * time.Second)

	log.Info().Msg("prompt party server shutdown complete")
}
