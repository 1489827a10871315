package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecast/ridecast/internal/api/middleware"
	"github.com/ridecast/ridecast/internal/auth"
)

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		SigningKey: "test-signing-key",
		Issuer:     "https://api.test",
		Audience:   "ridecast-api",
	})
}

func newSessionRouter(tokens *auth.TokenService) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Use(middleware.SessionAuth(tokens))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(middleware.GetSessionID(r.Context())))
		})
	})
	return r
}

func TestSessionAuth_MissingAuthorizationHeader(t *testing.T) {
	tokens := newTestTokenService()
	router := newSessionRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc/", http.NoBody)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestSessionAuth_InvalidAuthorizationFormat(t *testing.T) {
	tokens := newTestTokenService()
	router := newSessionRouter(tokens)

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc/", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSessionAuth_InvalidToken(t *testing.T) {
	tokens := newTestTokenService()
	router := newSessionRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc/", http.NoBody)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid session token")
}

func TestSessionAuth_ValidTokenSetsSessionID(t *testing.T) {
	tokens := newTestTokenService()
	router := newSessionRouter(tokens)

	token, _, err := tokens.GenerateSessionToken("sess-123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-123/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-123", rec.Body.String())
}

func TestSessionAuth_TokenSessionMismatch(t *testing.T) {
	tokens := newTestTokenService()
	router := newSessionRouter(tokens)

	token, _, err := tokens.GenerateSessionToken("sess-123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions/other-session/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not match session")
}

func TestAPIKeyGate(t *testing.T) {
	gate := middleware.APIKeyGate("secret")
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing API key")

	req = httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid API key")

	req = httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyGate_DisabledWhenUnconfigured(t *testing.T) {
	gate := middleware.APIKeyGate("")
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSessionID_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetSessionID(req.Context()))
}
