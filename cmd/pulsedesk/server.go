package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/api"
	"github.com/pulsedesk/pulsedesk/internal/config"
	"github.com/pulsedesk/pulsedesk/internal/metrics"
	"github.com/pulsedesk/pulsedesk/internal/sensor"
	"github.com/pulsedesk/pulsedesk/internal/session"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/pulsedesk/pulsedesk/internal/storage/bolt"
	"github.com/pulsedesk/pulsedesk/internal/storage/redis"
	"github.com/pulsedesk/pulsedesk/internal/systemd"
	"github.com/pulsedesk/pulsedesk/internal/tracking"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Pulsedesk daemon",
	Long:  `Start the Pulsedesk daemon with the tracking API and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting Pulsedesk")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize rollover policy and run the activation check before
	// anything can read an aggregate.
	rollover := tracking.NewRollover(store.Usage(), nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	rolled, err := rollover.Check(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed initial rollover check: %w", err)
	}
	if rolled {
		logger.Info().Msg("Day boundary crossed since last run, totals archived")
	}

	// Initialize the accounting engine and session controller
	tracker := tracking.NewTracker(
		store.Usage(),
		rollover,
		tracking.Config{PlaceholderTargets: cfg.Tracking.PlaceholderTargets},
		nil,
		logger,
	)
	controller := session.NewController(tracker, logger)

	logger.Info().Msg("Usage tracker initialized")

	// Initialize the sensor feed
	adapter := sensor.NewSimulator(store.Fitness(), sensor.SimulatorConfig{
		UpdateInterval:  parseDuration(cfg.Sensor.UpdateInterval, 5*time.Second),
		StepsPerTickMin: cfg.Sensor.StepsPerTickMin,
		StepsPerTickMax: cfg.Sensor.StepsPerTickMax,
		CaloriesPerStep: cfg.Sensor.CaloriesPerStep,
		SeedStepsMin:    cfg.Sensor.SeedStepsMin,
		SeedStepsMax:    cfg.Sensor.SeedStepsMax,
	}, logger)
	adapter.OnDisconnect(func(handle sensor.Handle) {
		logger.Info().Str("handle", string(handle)).Msg("Sensor connection lost")
	})

	logger.Info().Msg("Sensor feed initialized")

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)
	if sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// Initialize API Server
	apiServer := api.NewServer(
		api.Config{
			ListenAddr:      fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort),
			RateLimit:       cfg.Server.RateLimit,
			RateLimitWindow: parseDuration(cfg.Server.RateLimitWindow, time.Minute),
		},
		controller,
		tracker,
		adapter,
		store.Activities(),
		logger,
	)
	if sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd readiness")
	}

	logger.Info().Msg("Pulsedesk startup complete")
	logger.Info().Msgf("API: http://%s:%d/api", cfg.Server.BindAddress, cfg.Server.APIPort)
	logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd stopping")
	}

	// Close the open accounting interval so no tracked time is lost.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := controller.StopTracking(stopCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping active session")
	}
	stopCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("Pulsedesk stopped")
	return nil
}

// openStorage opens the configured storage backend.
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return bolt.Open(cfg.Path)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
