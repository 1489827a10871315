// Package main provides the entrypoint for the RideCast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/api"
	"github.com/ridecast/ridecast/internal/api/middleware"
	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/auth"
	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/conditions/openmeteo"
	conditionspg "github.com/ridecast/ridecast/internal/conditions/postgres"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/database"
	"github.com/ridecast/ridecast/internal/narration"
	"github.com/ridecast/ridecast/internal/provider/resilience"
	"github.com/ridecast/ridecast/internal/session"
	"github.com/ridecast/ridecast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ridecast-api"

	cfg := config.FromEnv()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("environment", cfg.Environment).
		Str("build_time", BuildTime).
		Msg("starting RideCast API")

	ctx := context.Background()

	// Initialize OpenTelemetry
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.TelemetryEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize HTTP metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Connect to the database only when a configured backend needs it
	var pool *pgxpool.Pool
	if cfg.SessionBackend == "postgres" || cfg.ConditionsSource == "postgres" {
		dbConfig := database.ConfigFromEnv()
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")
	}

	// Conditions source: Open-Meteo by default, warehouse tables optionally
	var source conditions.Source
	var providerHealth func() []resilience.Health
	switch cfg.ConditionsSource {
	case "postgres":
		source = conditionspg.NewSource(pool)
		log.Info().Msg("using postgres conditions source")
	default:
		client := openmeteo.NewClient(openmeteo.ClientConfig{
			WeatherURL: cfg.WeatherURL,
			AirURL:     cfg.AirURL,
			Logger:     log,
		})
		source = client
		providerHealth = func() []resilience.Health {
			return []resilience.Health{client.HTTPHealth()}
		}
		log.Info().Msg("using open-meteo conditions source")
	}

	conditionsService := conditions.NewService(conditions.ServiceConfig{
		Source:   source,
		Logger:   log,
		CacheTTL: cfg.ConditionsTTL,
	})

	// Session store
	var store session.Store
	if cfg.SessionBackend == "postgres" {
		store = session.NewPostgresStore(pool, cfg.SessionTTL)
		log.Info().Msg("using postgres session store")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		log.Info().Msg("using in-memory session store")
	}

	// Session tokens
	signingKey := cfg.JWTSigningKey
	if signingKey == "" {
		signingKey = "local-dev-signing-key"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens := auth.NewTokenService(auth.TokenConfig{
		SigningKey: signingKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Expiry:     cfg.SessionTTL,
	})

	// Narration is optional; without a model the chat endpoint returns 503
	var narrator *narration.Narrator
	if cfg.OllamaModel != "" {
		narrator = narration.New(narration.Config{
			BaseURL: cfg.OllamaBaseURL,
			APIKey:  cfg.OllamaAPIKey,
			Model:   cfg.OllamaModel,
			Logger:  log,
		})
		log.Info().Str("model", cfg.OllamaModel).Msg("narration initialized")
	} else {
		log.Warn().Msg("no narration model configured - chat endpoint disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		Tokens:         tokens,
		APIKey:         cfg.APIKey,
		Sessions:       store,
		Conditions:     conditionsService,
		Engine:         assessment.NewEngine(),
		Narrator:       narrator,
		ProviderHealth: providerHealth,
		DefaultPreferences: assessment.RiderPreferences{
			Latitude:  &cfg.DefaultLatitude,
			Longitude: &cfg.DefaultLongitude,
			Timezone:  cfg.DefaultTimezone,
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
