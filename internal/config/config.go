// Package config collects application configuration from environment
// variables with sensible local-development defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// App holds configuration shared by the API server and the worker.
type App struct {
	// Port the HTTP server listens on.
	Port string

	// Environment is the deployment environment (development, production).
	Environment string

	// APIKey optionally gates all session endpoints. Empty disables the gate.
	APIKey string

	// JWTSigningKey signs session tokens.
	JWTSigningKey string

	// JWTIssuer and JWTAudience are the session token claims.
	JWTIssuer   string
	JWTAudience string

	// SessionBackend selects the session store: "memory" or "postgres".
	SessionBackend string

	// SessionTTL is the sliding session expiry.
	SessionTTL time.Duration

	// ConditionsSource selects the conditions backend: "open-meteo" or
	// "postgres".
	ConditionsSource string

	// ConditionsTTL bounds cache freshness for fetched conditions.
	ConditionsTTL time.Duration

	// WeatherURL and AirURL override the Open-Meteo endpoints.
	WeatherURL string
	AirURL     string

	// OllamaBaseURL, OllamaModel, and OllamaAPIKey configure narration.
	// An empty model disables narration.
	OllamaBaseURL string
	OllamaModel   string
	OllamaAPIKey  string

	// DefaultLatitude, DefaultLongitude, and DefaultTimezone seed rider
	// preferences for sessions created without a location.
	DefaultLatitude  float64
	DefaultLongitude float64
	DefaultTimezone  string

	// OTLPEndpoint and TelemetryEnabled configure OpenTelemetry export.
	OTLPEndpoint     string
	TelemetryEnabled bool

	// PubSubProjectID and PubSubSubscription configure the worker trigger.
	PubSubProjectID    string
	PubSubSubscription string
}

// FromEnv creates an App config from environment variables.
func FromEnv() App {
	sessionTTL, _ := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "1h"))
	conditionsTTL, _ := time.ParseDuration(getEnvOrDefault("CONDITIONS_TTL", "15m"))
	lat, _ := strconv.ParseFloat(getEnvOrDefault("USER_LATITUDE_DEFAULT", "43.00"), 64)
	lon, _ := strconv.ParseFloat(getEnvOrDefault("USER_LONGITUDE_DEFAULT", "-89.00"), 64)

	return App{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		APIKey:             os.Getenv("API_KEY"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:          getEnvOrDefault("JWT_ISSUER", "https://api.ridecast.io"),
		JWTAudience:        getEnvOrDefault("JWT_AUDIENCE", "ridecast-api"),
		SessionBackend:     getEnvOrDefault("SESSION_BACKEND", "memory"),
		SessionTTL:         sessionTTL,
		ConditionsSource:   getEnvOrDefault("CONDITIONS_SOURCE", "open-meteo"),
		ConditionsTTL:      conditionsTTL,
		WeatherURL:         os.Getenv("OPEN_METEO_WEATHER_URL"),
		AirURL:             os.Getenv("OPEN_METEO_AIR_URL"),
		OllamaBaseURL:      getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		OllamaModel:        os.Getenv("OLLAMA_MODEL"),
		OllamaAPIKey:       getEnvOrDefault("OLLAMA_API_KEY", "ollama"),
		DefaultLatitude:    lat,
		DefaultLongitude:   lon,
		DefaultTimezone:    getEnvOrDefault("USER_TIMEZONE_DEFAULT", "America/Chicago"),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled:   os.Getenv("OTEL_ENABLED") == "true",
		PubSubProjectID:    getEnvOrDefault("PUBSUB_PROJECT_ID", "ridecast-local"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "conditions-refresh-sub"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
