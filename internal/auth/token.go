// Package auth issues and validates the signed session tokens that bind API
// callers to their sessions, plus the optional static API key gate.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenExpiry is how long session tokens are valid. It matches the
// default session store TTL so a token never outlives its session by much.
const SessionTokenExpiry = 1 * time.Hour

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token has expired")
)

// SessionClaims are the claims carried by session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims

	// SessionID is the session this token grants access to.
	SessionID string `json:"sid"`
}

// TokenService creates and validates session tokens, signed HS256.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	expiry     time.Duration
}

// TokenConfig holds configuration for the token service.
type TokenConfig struct {
	// SigningKey is the secret used to sign tokens (required).
	SigningKey string

	// Issuer is the issuer claim (e.g. "https://api.ridecast.io").
	Issuer string

	// Audience is the audience claim (e.g. "ridecast-api").
	Audience string

	// Expiry overrides SessionTokenExpiry when non-zero.
	Expiry time.Duration
}

// NewTokenService creates a token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = SessionTokenExpiry
	}
	return &TokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiry:     expiry,
	}
}

// GenerateSessionToken mints a token bound to the given session ID.
func (s *TokenService) GenerateSessionToken(sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateSessionToken parses and verifies a token and returns its claims.
func (s *TokenService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// generateTokenID returns a random token identifier for the jti claim.
func generateTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
