// Package handler provides HTTP handlers for the RideCast API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/api/middleware"
	"github.com/ridecast/ridecast/internal/api/models"
	"github.com/ridecast/ridecast/internal/api/response"
	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/auth"
	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/narration"
	"github.com/ridecast/ridecast/internal/session"
)

const (
	defaultConditionsTTL   = 15 * time.Minute
	defaultMaxMessageChars = 4000
)

// DefaultRiderPreferences is the out-of-the-box rider profile used when a
// session is created without preferences.
func DefaultRiderPreferences() assessment.RiderPreferences {
	lat, lon := 43.00, -89.00
	idealTemp := 75.0
	maxWind := 25.0
	maxAQI := 80
	yes := true
	daylight := true
	return assessment.RiderPreferences{
		Latitude:            &lat,
		Longitude:           &lon,
		Timezone:            "America/Chicago",
		RideWindowHours:     12,
		IdealTempF:          &idealTemp,
		PreferredTempRangeF: &assessment.TempRange{Low: 65, High: 93},
		PreferDaylight:      &daylight,
		MaxWindMPH:          &maxWind,
		AvoidPoorAQI:        &yes,
		MaxAQI:              &maxAQI,
		AvoidPrecip:         &yes,
	}
}

// SessionHandler handles session lifecycle, assessment, and chat endpoints.
type SessionHandler struct {
	sessions        session.Store
	conditions      *conditions.Service
	engine          *assessment.Engine
	narrator        *narration.Narrator
	tokens          *auth.TokenService
	defaults        assessment.RiderPreferences
	conditionsTTL   time.Duration
	maxMessageChars int
	logger          zerolog.Logger
}

// SessionHandlerConfig holds dependencies for the session handler. Zero
// values fall back to sensible defaults.
type SessionHandlerConfig struct {
	Sessions   session.Store
	Conditions *conditions.Service
	Engine     *assessment.Engine
	Narrator   *narration.Narrator
	Tokens     *auth.TokenService

	// DefaultPreferences seed new sessions created without a body.
	DefaultPreferences assessment.RiderPreferences

	// ConditionsTTL bounds how long session-cached conditions are reused
	// before assessment and chat refetch them.
	ConditionsTTL time.Duration

	// MaxMessageChars caps incoming chat message length.
	MaxMessageChars int

	Logger zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	if cfg.ConditionsTTL == 0 {
		cfg.ConditionsTTL = defaultConditionsTTL
	}
	if cfg.MaxMessageChars == 0 {
		cfg.MaxMessageChars = defaultMaxMessageChars
	}
	defaults := overlayPreferences(DefaultRiderPreferences(), cfg.DefaultPreferences)
	cfg.DefaultPreferences = defaults
	return &SessionHandler{
		sessions:        cfg.Sessions,
		conditions:      cfg.Conditions,
		engine:          cfg.Engine,
		narrator:        cfg.Narrator,
		tokens:          cfg.Tokens,
		defaults:        cfg.DefaultPreferences,
		conditionsTTL:   cfg.ConditionsTTL,
		maxMessageChars: cfg.MaxMessageChars,
		logger:          cfg.Logger,
	}
}

// Create handles POST /v1/sessions - create a session, fetch conditions, and
// mint a session token bound to the new session ID.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	prefs := h.defaults

	if r.Body != nil && r.ContentLength != 0 {
		var input models.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, r, "invalid JSON body", nil)
			return
		}
		if input.Preferences != nil {
			merged, fieldErrors := mergePreferences(h.defaults, *input.Preferences)
			if len(fieldErrors) > 0 {
				response.BadRequest(w, r, "validation failed", fieldErrors)
				return
			}
			prefs = merged
		}
	}

	cond, ok := h.fetchConditions(w, r, prefs, false)
	if !ok {
		return
	}

	sess := &session.Session{
		Preferences: prefs,
		Conditions:  &session.CachedConditions{Data: cond, FetchedAt: cond.FetchedAt},
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Msg("failed to create session")
		response.InternalError(w, r, "internal server error")
		return
	}

	token, expiresAt, err := h.tokens.GenerateSessionToken(sess.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to mint session token")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.Created(w, r, "/v1/sessions/"+sess.ID, models.SessionResponse{
		SessionID:      sess.ID,
		Token:          token,
		TokenExpiresAt: models.Timestamp(expiresAt),
		Current:        cond.Current,
		Forecast:       cond.Forecast,
		Preferences:    prefs,
	})
}

// Assess handles POST /v1/sessions/{sessionId}/assessment - run the
// deterministic engine over (fresh) conditions and seed the conversation
// with the rendered summary.
func (h *SessionHandler) Assess(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	cond, payload, ok := h.assess(w, r, sess, false)
	if !ok {
		return
	}

	summary := formatSummaryMarkdown(payload.Summary)
	sess.Messages = seedMessages(payload, summary)
	sess.Conditions = &session.CachedConditions{Data: cond, FetchedAt: cond.FetchedAt}
	sess.Assessment = &session.CachedAssessment{Data: payload, GeneratedAt: payload.Context.GeneratedAt}
	if err := h.sessions.Update(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist assessment")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.AssessmentResponse{
		Summary:    summary,
		Assessment: payload,
		Current:    cond.Current,
		Forecast:   cond.Forecast,
	})
}

// Chat handles POST /v1/sessions/{sessionId}/chat - narrate a user question
// over a fresh assessment.
func (h *SessionHandler) Chat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Message == "" {
		response.BadRequest(w, r, "message must not be empty", []models.FieldError{
			{Field: "message", Message: "required"},
		})
		return
	}
	if len(req.Message) > h.maxMessageChars {
		response.BadRequest(w, r, fmt.Sprintf("message too long; limit %d characters", h.maxMessageChars), []models.FieldError{
			{Field: "message", Message: fmt.Sprintf("must be at most %d characters", h.maxMessageChars)},
		})
		return
	}

	// Reuse the session's assessment only while its conditions are fresh.
	wasFresh := sess.Conditions.Fresh(h.conditionsTTL, time.Now())
	var payload *assessment.Payload
	if wasFresh && sess.Assessment != nil {
		payload = sess.Assessment.Data
	}
	if payload == nil {
		cond, p, ok := h.assess(w, r, sess, false)
		if !ok {
			return
		}
		payload = p
		sess.Conditions = &session.CachedConditions{Data: cond, FetchedAt: cond.FetchedAt}
		sess.Assessment = &session.CachedAssessment{Data: payload, GeneratedAt: payload.Context.GeneratedAt}
	}

	if h.narrator == nil {
		response.ServiceUnavailable(w, r, "narration is not configured")
		return
	}
	reply, err := h.narrator.Narrate(r.Context(), payload, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("narration failed")
		response.ServiceUnavailable(w, r, "narration is temporarily unavailable")
		return
	}

	sess.Messages = append(sess.Messages,
		session.ChatMessage{Role: "user", Content: req.Message},
		session.ChatMessage{Role: "assistant", Content: reply},
	)
	if err := h.sessions.Update(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist chat turn")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChatResponse{
		Response:   reply,
		Assessment: payload,
	})
}

// GetPreferences handles GET /v1/sessions/{sessionId}/preferences.
func (h *SessionHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.PreferencesResponse{Preferences: sess.Preferences})
}

// UpdatePreferences handles PUT /v1/sessions/{sessionId}/preferences -
// replace stored preferences. A cached assessment is dropped since it was
// computed against the old preferences.
func (h *SessionHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var prefs assessment.RiderPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	merged, fieldErrors := mergePreferences(h.defaults, prefs)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	sess.Preferences = merged
	sess.Assessment = nil
	if err := h.sessions.Update(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist preferences")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.PreferencesResponse{Preferences: merged})
}

// Refresh handles POST /v1/sessions/{sessionId}/refresh - force a refetch of
// conditions and a reassessment, bypassing every cache layer.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	cond, payload, ok := h.assess(w, r, sess, true)
	if !ok {
		return
	}

	summary := formatSummaryMarkdown(payload.Summary)
	sess.Conditions = &session.CachedConditions{Data: cond, FetchedAt: cond.FetchedAt}
	sess.Assessment = &session.CachedAssessment{Data: payload, GeneratedAt: payload.Context.GeneratedAt}
	if err := h.sessions.Update(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist refresh")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.AssessmentResponse{
		Summary:    summary,
		Assessment: payload,
		Current:    cond.Current,
		Forecast:   cond.Forecast,
	})
}

// loadSession fetches the session named in the path, writing the error
// response itself when the lookup fails.
func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		response.Unauthorized(w, r, "not authenticated")
		return nil, false
	}

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.NotFound(w, r, "unknown session ID")
			return nil, false
		}
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		response.InternalError(w, r, "internal server error")
		return nil, false
	}
	return sess, true
}

// assess fetches conditions for the session's preferences (honoring the
// session cache unless force is set) and runs the engine over them.
func (h *SessionHandler) assess(w http.ResponseWriter, r *http.Request, sess *session.Session, force bool) (*conditions.Conditions, *assessment.Payload, bool) {
	var cond *conditions.Conditions
	if !force && sess.Conditions.Fresh(h.conditionsTTL, time.Now()) {
		cond = sess.Conditions.Data
	} else {
		fetched, ok := h.fetchConditions(w, r, sess.Preferences, force)
		if !ok {
			return nil, nil, false
		}
		cond = fetched
	}

	payload, err := h.engine.BuildPayload(sess.Preferences, cond.Snapshots(), cond.Source)
	if err != nil {
		if errors.Is(err, assessment.ErrInvalidSnapshot) {
			response.NotFound(w, r, "no usable conditions data available")
			return nil, nil, false
		}
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("assessment failed")
		response.InternalError(w, r, "internal server error")
		return nil, nil, false
	}
	return cond, payload, true
}

// fetchConditions resolves the query for the given preferences and fetches
// conditions, writing the error response itself on failure.
func (h *SessionHandler) fetchConditions(w http.ResponseWriter, r *http.Request, prefs assessment.RiderPreferences, force bool) (*conditions.Conditions, bool) {
	q := queryForPreferences(prefs, h.defaults)

	var (
		cond *conditions.Conditions
		err  error
	)
	if force {
		cond, err = h.conditions.Refresh(r.Context(), q)
	} else {
		cond, err = h.conditions.Get(r.Context(), q)
	}
	if err != nil {
		switch {
		case errors.Is(err, conditions.ErrInvalidCoordinates):
			response.BadRequest(w, r, "invalid coordinates", nil)
		case errors.Is(err, conditions.ErrSourceUnavailable):
			response.ServiceUnavailable(w, r, "conditions data is temporarily unavailable")
		default:
			h.logger.Error().Err(err).Msg("failed to fetch conditions")
			response.InternalError(w, r, "internal server error")
		}
		return nil, false
	}

	if cond.Current == nil && len(cond.Forecast) == 0 {
		response.NotFound(w, r, "no conditions data available for this location")
		return nil, false
	}
	return cond, true
}

// queryForPreferences builds a conditions query, filling gaps from defaults.
func queryForPreferences(prefs, defaults assessment.RiderPreferences) conditions.Query {
	q := conditions.Query{
		Timezone:      prefs.Timezone,
		ForecastHours: prefs.RideWindowHours,
	}
	if prefs.Latitude != nil {
		q.Latitude = *prefs.Latitude
	} else if defaults.Latitude != nil {
		q.Latitude = *defaults.Latitude
	}
	if prefs.Longitude != nil {
		q.Longitude = *prefs.Longitude
	} else if defaults.Longitude != nil {
		q.Longitude = *defaults.Longitude
	}
	if q.Timezone == "" {
		q.Timezone = defaults.Timezone
	}
	if q.ForecastHours <= 0 {
		q.ForecastHours = defaults.RideWindowHours
	}
	return q
}

// seedMessages builds the conversation seed for a freshly assessed session:
// the narration prompt pair plus the rendered summary as the first
// assistant turn.
func seedMessages(payload *assessment.Payload, summary string) []session.ChatMessage {
	system, user := narration.BuildMessages(payload, "", 0)
	msgs := []session.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	if summary != "" {
		msgs = append(msgs, session.ChatMessage{Role: "assistant", Content: summary})
	}
	return msgs
}

// overlayPreferences fills unset fields of incoming from base.
func overlayPreferences(base, incoming assessment.RiderPreferences) assessment.RiderPreferences {
	out := incoming
	if out.Latitude == nil {
		out.Latitude = base.Latitude
	}
	if out.Longitude == nil {
		out.Longitude = base.Longitude
	}
	if out.Timezone == "" {
		out.Timezone = base.Timezone
	}
	if out.RideWindowHours == 0 {
		out.RideWindowHours = base.RideWindowHours
	}
	if out.IdealTempF == nil {
		out.IdealTempF = base.IdealTempF
	}
	if out.PreferredTempRangeF == nil {
		out.PreferredTempRangeF = base.PreferredTempRangeF
	}
	if out.PreferDaylight == nil {
		out.PreferDaylight = base.PreferDaylight
	}
	if out.MaxWindMPH == nil {
		out.MaxWindMPH = base.MaxWindMPH
	}
	if out.AvoidPoorAQI == nil {
		out.AvoidPoorAQI = base.AvoidPoorAQI
	}
	if out.MaxAQI == nil {
		out.MaxAQI = base.MaxAQI
	}
	if out.AvoidPrecip == nil {
		out.AvoidPrecip = base.AvoidPrecip
	}
	return out
}

// mergePreferences overlays incoming preferences on the defaults and
// validates the result.
func mergePreferences(defaults, incoming assessment.RiderPreferences) (assessment.RiderPreferences, []models.FieldError) {
	merged := overlayPreferences(defaults, incoming)

	var fieldErrors []models.FieldError
	if merged.Latitude != nil && (*merged.Latitude < -90 || *merged.Latitude > 90) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "latitude",
			Message: "must be between -90 and 90",
		})
	}
	if merged.Longitude != nil && (*merged.Longitude < -180 || *merged.Longitude > 180) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "longitude",
			Message: "must be between -180 and 180",
		})
	}
	if merged.RideWindowHours < 1 || merged.RideWindowHours > 48 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "ride_window_hours",
			Message: "must be between 1 and 48",
		})
	}
	if merged.PreferredTempRangeF != nil && merged.PreferredTempRangeF.Low > merged.PreferredTempRangeF.High {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "preferred_temp_range_f",
			Message: "low must not exceed high",
		})
	}
	if merged.MaxWindMPH != nil && *merged.MaxWindMPH < 0 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "max_wind_mph",
			Message: "must not be negative",
		})
	}
	if merged.MaxAQI != nil && (*merged.MaxAQI < 0 || *merged.MaxAQI > 500) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "max_aqi",
			Message: "must be between 0 and 500",
		})
	}
	return merged, fieldErrors
}
