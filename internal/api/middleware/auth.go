package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ridecast/ridecast/internal/api/models"
	"github.com/ridecast/ridecast/internal/auth"
)

// sessionIDKey is the context key for the authenticated session ID.
type sessionIDKey struct{}

// SessionAuth creates authentication middleware that validates bearer
// session tokens. When the route carries a {sessionId} path parameter the
// token's sid claim must match it, so a token for one session cannot be
// replayed against another.
func SessionAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			// Check for Bearer prefix (case-insensitive)
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			claims, err := tokens.ValidateSessionToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					writeUnauthorized(w, r, "session token has expired")
				case errors.Is(err, auth.ErrInvalidToken):
					writeUnauthorized(w, r, "invalid session token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			if pathID := chi.URLParam(r, "sessionId"); pathID != "" && pathID != claims.SessionID {
				writeUnauthorized(w, r, "session token does not match session")
				return
			}

			// Add session ID to context
			ctx := context.WithValue(r.Context(), sessionIDKey{}, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyGate creates middleware that enforces the optional X-API-Key header.
// An empty configured key disables the gate entirely.
func APIKeyGate(configured string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.APIKeyMatches(configured, r.Header.Get("X-API-Key")) {
				if r.Header.Get("X-API-Key") == "" {
					writeUnauthorized(w, r, "missing API key")
				} else {
					writeUnauthorized(w, r, "invalid API key")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetSessionID retrieves the authenticated session ID from the context.
// Returns an empty string if not authenticated.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
