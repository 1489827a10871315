// Package main provides the entrypoint for the RideCast background worker.
//
// The worker keeps the conditions cache warm for the configured refresh
// targets. It is triggered by Pub/Sub messages and exposes a small health
// endpoint for liveness probes.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/conditions/openmeteo"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/telemetry"
	"github.com/ridecast/ridecast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ridecast-worker"

	cfg := config.FromEnv()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("environment", cfg.Environment).
		Str("build_time", BuildTime).
		Msg("starting RideCast worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// The worker always refreshes straight from Open-Meteo.
	client := openmeteo.NewClient(openmeteo.ClientConfig{
		WeatherURL: cfg.WeatherURL,
		AirURL:     cfg.AirURL,
		Logger:     log,
	})

	conditionsService := conditions.NewService(conditions.ServiceConfig{
		Source:   client,
		Logger:   log,
		CacheTTL: cfg.ConditionsTTL,
	})

	refreshConfig := worker.DefaultRefreshConfig()
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     refreshConfig,
		Logger:     log,
		Conditions: conditionsService,
	})

	log.Info().
		Int("targets", len(refreshConfig.Targets)).
		Int("total_points", refreshConfig.TotalPoints()).
		Msg("refresh job configured")

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSubProjectID,
		SubscriptionName: cfg.PubSubSubscription,
		RefreshJob:       refreshJob,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if closeErr := handler.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close pubsub handler")
		}
	}()

	// Health endpoint for liveness probes; also exposes refresh metrics.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "OK",
			"service": serviceName,
			"version": Version,
			"metrics": refreshJob.MetricsSnapshot(),
		})
	})

	healthServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", healthServer.Addr).Msg("health endpoint listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until the context is cancelled.
	errChan := make(chan error, 1)
	go func() {
		errChan <- handler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down worker")
	case err := <-errChan:
		if err != nil {
			log.Error().Err(err).Msg("pubsub handler stopped")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
