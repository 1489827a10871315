// Package session stores per-rider chat sessions: preferences, conversation
// history, and cached conditions and assessments with freshness metadata.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/conditions"
)

// Predefined errors for session operations.
var (
	// ErrSessionNotFound is returned when a session does not exist or has
	// expired.
	ErrSessionNotFound = errors.New("session not found")
)

// ChatMessage is one turn of the session conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CachedConditions wraps fetched conditions with their fetch time so callers
// can decide whether to reuse or refetch.
type CachedConditions struct {
	Data      *conditions.Conditions `json:"data"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// Fresh reports whether the cached conditions are younger than ttl.
func (c *CachedConditions) Fresh(ttl time.Duration, now time.Time) bool {
	return c != nil && c.Data != nil && now.Sub(c.FetchedAt) < ttl
}

// CachedAssessment wraps an assessment payload with its generation time.
type CachedAssessment struct {
	Data        *assessment.Payload `json:"data"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Session is the full stored state for one rider conversation.
type Session struct {
	ID          string                      `json:"id"`
	Messages    []ChatMessage               `json:"messages"`
	Preferences assessment.RiderPreferences `json:"preferences"`
	Conditions  *CachedConditions           `json:"conditions,omitempty"`
	Assessment  *CachedAssessment           `json:"assessment,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// Store persists sessions. Implementations expire sessions after their TTL;
// reads refresh the expiry (sliding window).
type Store interface {
	// Create persists a new session. The store assigns the ID when empty.
	Create(ctx context.Context, s *Session) error

	// Get fetches a session by ID. Returns ErrSessionNotFound for missing
	// or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces a stored session. Returns ErrSessionNotFound when the
	// session does not exist.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session, without error if it is absent.
	Delete(ctx context.Context, id string) error
}
