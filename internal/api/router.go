// Package api provides the HTTP API for RideCast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/api/handler"
	"github.com/ridecast/ridecast/internal/api/middleware"
	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/auth"
	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/narration"
	"github.com/ridecast/ridecast/internal/provider/resilience"
	"github.com/ridecast/ridecast/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Tokens     *auth.TokenService
	APIKey     string
	Sessions   session.Store
	Conditions *conditions.Service
	Engine     *assessment.Engine
	Narrator   *narration.Narrator

	// ProviderHealth reports upstream circuit breaker health for the ops
	// endpoints. May be nil.
	ProviderHealth func() []resilience.Health

	// DefaultPreferences seed sessions created without a body.
	DefaultPreferences assessment.RiderPreferences
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ridecast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Conditions, cfg.ProviderHealth)
	sessionHandler := handler.NewSessionHandler(handler.SessionHandlerConfig{
		Sessions:           cfg.Sessions,
		Conditions:         cfg.Conditions,
		Engine:             cfg.Engine,
		Narrator:           cfg.Narrator,
		Tokens:             cfg.Tokens,
		DefaultPreferences: cfg.DefaultPreferences,
		Logger:             cfg.Logger,
	})

	// Create auth middleware
	sessionAuth := middleware.SessionAuth(cfg.Tokens)
	apiKeyGate := middleware.APIKeyGate(cfg.APIKey)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	expensiveSessionLimit := middleware.RateLimitBySession(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitBySession(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Session endpoints - optional API key gate on everything
		r.Route("/sessions", func(r chi.Router) {
			r.Use(apiKeyGate)

			// Creation fetches upstream conditions; rate limit by IP since
			// there is no session yet.
			r.With(expensiveRateLimit).Post("/", sessionHandler.Create)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Use(sessionAuth)

				r.With(expensiveSessionLimit).Post("/assessment", sessionHandler.Assess)
				r.With(expensiveSessionLimit).Post("/chat", sessionHandler.Chat)
				r.With(expensiveSessionLimit).Post("/refresh", sessionHandler.Refresh)

				r.Route("/preferences", func(r chi.Router) {
					r.Use(standardRateLimit)
					r.Get("/", sessionHandler.GetPreferences)
					r.Put("/", sessionHandler.UpdatePreferences)
				})
			})
		})

		// Ops endpoints - health probes stay open, status is authenticated
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(apiKeyGate, sessionAuth).Get("/status", opsHandler.SystemStatus)
		})
	})

	return r
}
