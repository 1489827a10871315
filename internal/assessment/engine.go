package assessment

import "time"

// Engine ties the assessment pipeline together into one payload build. The
// clock and window durations are injected so the output is reproducible in
// tests; everything else is derived from the inputs.
type Engine struct {
	now       func() time.Time
	durations []int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for the payload generation
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithWindowDurations replaces the candidate ride window lengths (minutes).
func WithWindowDurations(minutes []int) Option {
	return func(e *Engine) { e.durations = minutes }
}

// NewEngine builds an Engine with the default clock and window durations.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:       time.Now,
		durations: DefaultWindowDurations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildPayload runs the full pipeline: per-hour judgment, key normalization,
// trend annotation, window search, and summary, bundled with the generation
// context and the policy table that produced it. source names where the
// condition data came from.
func (e *Engine) BuildPayload(prefs RiderPreferences, input TimelineInput, source string) (*Payload, error) {
	policies := DefaultMeasurePolicies()

	current, hourly, err := AssessTimeline(prefs, input, policies)
	if err != nil {
		return nil, err
	}

	windows := ComputeWindowRecommendations(hourly, e.durations)
	summary := BuildSummary(hourly, windows)

	return &Payload{
		Context: Context{
			Latitude:    prefs.Latitude,
			Longitude:   prefs.Longitude,
			Timezone:    prefs.Timezone,
			GeneratedAt: e.now().UTC(),
			Source:      source,
		},
		Preferences: prefs,
		Current:     current,
		Hourly:      hourly,
		Summary:     summary,
		Policies:    policies,
	}, nil
}
