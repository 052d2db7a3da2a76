// Package main runs the commander rater REST API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ramonehamilton/commander-rater/internal/api"
	"github.com/ramonehamilton/commander-rater/internal/bootstrap"
	"github.com/ramonehamilton/commander-rater/internal/config"
	"github.com/ramonehamilton/commander-rater/internal/logging"
	"github.com/ramonehamilton/commander-rater/internal/metrics"
	"github.com/ramonehamilton/commander-rater/internal/version"
)

var (
	configPath  = pflag.StringP("config", "c", "", "Config file (default: ~/.commander-rater/config.toml)")
	port        = pflag.IntP("port", "p", 0, "API server port (overrides config)")
	dbPath      = pflag.String("db-path", "", "SQLite database path (overrides config)")
	logLevel    = pflag.String("log-level", "", "Log level: debug, info, warn, error")
	syncTimeout = pflag.Duration("sync-timeout", 15*time.Minute, "Maximum duration of one sync request")
)

func main() {
	pflag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LoggingConfig())

	if err := run(cfg.Server.Port, *syncTimeout, cfg); err != nil {
		log.Fatal().Err(err).Msg("API server failed")
	}
}

func run(listenPort int, timeout time.Duration, cfg *config.Config) error {
	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing card store")
		}
	}()

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	service, err := bootstrap.NewService(cfg, store, syncMetrics)
	if err != nil {
		return err
	}

	if result := service.InitializeDatabase(ctx); !result.Success {
		return errors.New(result.Message)
	}

	server := api.NewServer(&api.Config{
		Port:           listenPort,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SyncTimeout:    timeout,
	}, service, registry)

	if err := server.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	log.Info().Int("port", listenPort).Str("driver", cfg.Database.Driver).Str("version", version.GetVersion()).Msg("API server running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}

	log.Info().Msg("API server stopped")
	return nil
}
