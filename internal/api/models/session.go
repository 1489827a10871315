package models

import (
	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/conditions"
)

// CreateSessionRequest is the optional body for session creation. When
// preferences are omitted the server defaults apply.
type CreateSessionRequest struct {
	Preferences *assessment.RiderPreferences `json:"preferences,omitempty"`
}

// SessionResponse is returned on session creation.
type SessionResponse struct {
	SessionID      string                       `json:"sessionId"`
	Token          string                       `json:"token"`
	TokenExpiresAt Timestamp                    `json:"tokenExpiresAt"`
	Current        *conditions.HourConditions   `json:"current,omitempty"`
	Forecast       []*conditions.HourConditions `json:"forecast,omitempty"`
	Preferences    assessment.RiderPreferences  `json:"preferences"`
}

// AssessmentResponse carries a rendered summary plus the full payload the
// summary was derived from.
type AssessmentResponse struct {
	Summary    string                       `json:"summary"`
	Assessment *assessment.Payload          `json:"assessment"`
	Current    *conditions.HourConditions   `json:"current,omitempty"`
	Forecast   []*conditions.HourConditions `json:"forecast,omitempty"`
}

// ChatRequest is an incoming chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the narrated reply and the assessment it was
// grounded on.
type ChatResponse struct {
	Response   string              `json:"response"`
	Assessment *assessment.Payload `json:"assessment,omitempty"`
}

// PreferencesResponse wraps rider preferences.
type PreferencesResponse struct {
	Preferences assessment.RiderPreferences `json:"preferences"`
}
