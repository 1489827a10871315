// Package assessment implements the deterministic ride assessment engine:
// per-measure judgment of hourly conditions, decision aggregation, suitability
// scoring, hour-over-hour trend analysis, ride window search, and summary
// building. Everything in this package is a pure function of its inputs; no
// I/O, clocks, or shared state.
package assessment

import (
	"errors"
	"time"
)

// ErrInvalidSnapshot is returned when an hour snapshot has no valid timestamp.
// This is the only input contract violation the engine reports; all other
// missing data degrades to unknown judgments.
var ErrInvalidSnapshot = errors.New("hour snapshot has no valid timestamp")

// Status is the qualitative judgment for a single measure, ordered by
// increasing unsuitability.
type Status string

const (
	StatusIdeal      Status = "ideal"
	StatusAcceptable Status = "acceptable"
	StatusCaution    Status = "caution"
	StatusAvoid      Status = "avoid"
	StatusUnknown    Status = "unknown"
)

// Decision is the go/no-go verdict for an hour, window, or full timeline.
type Decision string

const (
	DecisionGo            Decision = "go"
	DecisionGoWithCaution Decision = "go_with_caution"
	DecisionAvoid         Decision = "avoid"
	DecisionUnknown       Decision = "unknown"
)

// Trend is the direction of a measure's distance-from-preference between
// consecutive hours.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendWorsening Trend = "worsening"
	TrendUnknown   Trend = "unknown"
)

// RiskSeverity grades a risk flag.
type RiskSeverity string

const (
	SeverityMinor    RiskSeverity = "minor"
	SeverityModerate RiskSeverity = "moderate"
	SeverityMajor    RiskSeverity = "major"
	SeverityCritical RiskSeverity = "critical"
)

// RiskCode identifies a riding hazard. The string values are a stable wire
// contract consumed by the narration and UI layers.
type RiskCode string

const (
	RiskExtremeHeat    RiskCode = "extreme_heat"
	RiskExtremeCold    RiskCode = "extreme_cold"
	RiskHighWind       RiskCode = "high_wind"
	RiskGustyWind      RiskCode = "gusty_wind"
	RiskPrecipitation  RiskCode = "precipitation"
	RiskStorm          RiskCode = "storm"
	RiskSnowOrIce      RiskCode = "snow_or_ice"
	RiskLowVisibility  RiskCode = "low_visibility"
	RiskDarkness       RiskCode = "darkness"
	RiskPoorAirQuality RiskCode = "poor_air_quality"
	RiskUVExposure     RiskCode = "uv_exposure"
	RiskRouteHazard    RiskCode = "route_hazard"
)

// Directionality describes how a measure should move to be considered better.
type Directionality string

const (
	HigherIsBetter        Directionality = "higher_is_better"
	LowerIsBetter         Directionality = "lower_is_better"
	TargetBand            Directionality = "target_band"
	DirectionalityUnknown Directionality = "unknown"
)

// Measure keys. These name the judgment entries in an HourAssessment and key
// the policy table; they are part of the wire contract.
const (
	MeasureTemperature         = "temperature_f"
	MeasureApparentTemperature = "apparent_temperature_f"
	MeasureWindSpeed           = "wind_speed_mph"
	MeasureWindGusts           = "wind_gusts_mph"
	MeasureAQI                 = "us_aqi"
	MeasurePrecipProb          = "precipitation_prob_percent"
	MeasurePrecipitation       = "precipitation_mm"
	MeasureUVIndex             = "uv_index"
	MeasureDaylight            = "daylight"
)

// MeasurePolicy is static per-measure configuration used by scoring and trend
// analysis: which direction is better, and the minimum change in distance that
// counts as a trend at all.
type MeasurePolicy struct {
	Name           string         `json:"name"`
	Unit           string         `json:"unit,omitempty"`
	TrendDeadband  float64        `json:"trend_deadband,omitempty"`
	Directionality Directionality `json:"directionality"`
}

// DefaultMeasurePolicies returns the built-in policy table. A fresh map is
// returned on every call so callers can override entries per invocation
// without affecting other assessments.
func DefaultMeasurePolicies() map[string]MeasurePolicy {
	return map[string]MeasurePolicy{
		MeasureTemperature: {
			Name:           MeasureTemperature,
			Unit:           "F",
			TrendDeadband:  1.0,
			Directionality: TargetBand,
		},
		MeasureApparentTemperature: {
			Name:           MeasureApparentTemperature,
			Unit:           "F",
			TrendDeadband:  1.0,
			Directionality: TargetBand,
		},
		MeasureWindSpeed: {
			Name:           MeasureWindSpeed,
			Unit:           "mph",
			TrendDeadband:  1.0,
			Directionality: LowerIsBetter,
		},
		MeasureWindGusts: {
			Name:           MeasureWindGusts,
			Unit:           "mph",
			TrendDeadband:  2.0,
			Directionality: LowerIsBetter,
		},
		MeasureAQI: {
			Name:           MeasureAQI,
			Unit:           "aqi",
			TrendDeadband:  3.0,
			Directionality: LowerIsBetter,
		},
		MeasurePrecipProb: {
			Name:           MeasurePrecipProb,
			Unit:           "percent",
			TrendDeadband:  5.0,
			Directionality: LowerIsBetter,
		},
		MeasurePrecipitation: {
			Name:           MeasurePrecipitation,
			Unit:           "mm",
			TrendDeadband:  0.1,
			Directionality: LowerIsBetter,
		},
		MeasureUVIndex: {
			Name:           MeasureUVIndex,
			Unit:           "uv",
			TrendDeadband:  0.2,
			Directionality: LowerIsBetter,
		},
	}
}

// TempRange is an inclusive preferred temperature band in Fahrenheit.
type TempRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// RiderPreferences is the normalized rider profile used for judging. Nil
// fields disable the corresponding check or fall back to a judge-local
// default.
type RiderPreferences struct {
	Latitude            *float64   `json:"latitude,omitempty"`
	Longitude           *float64   `json:"longitude,omitempty"`
	Timezone            string     `json:"timezone,omitempty"`
	RideWindowHours     int        `json:"ride_window_hours,omitempty"`
	IdealTempF          *float64   `json:"ideal_temp_f,omitempty"`
	PreferredTempRangeF *TempRange `json:"preferred_temp_range_f,omitempty"`
	PreferDaylight      *bool      `json:"prefer_daylight,omitempty"`
	MaxWindMPH          *float64   `json:"max_wind_mph,omitempty"`
	AvoidPoorAQI        *bool      `json:"avoid_poor_aqi,omitempty"`
	MaxAQI              *int       `json:"max_aqi,omitempty"`
	AvoidPrecip         *bool      `json:"avoid_precip,omitempty"`
}

// MeasureJudgment is the outcome of judging one measure for one hour. The
// trend fields are filled in afterwards by the trend analyzer; that in-place
// annotation is the only mutation of a previously built value in this
// package.
type MeasureJudgment struct {
	Status                 Status       `json:"status"`
	DistanceFromPreference *float64     `json:"distance_from_preference,omitempty"`
	Severity               RiskSeverity `json:"severity,omitempty"`
	Reasons                []string     `json:"reasons"`
	Trend                  Trend        `json:"trend,omitempty"`
	TrendDelta             *float64     `json:"trend_delta,omitempty"`
	TrendConfidence        *float64     `json:"trend_confidence,omitempty"`
}

// RiskFlag is a structured hazard annotation raised by a judge.
type RiskFlag struct {
	Code     RiskCode     `json:"code"`
	Severity RiskSeverity `json:"severity"`
	Evidence []string     `json:"evidence"`
}

// HourAssessment is one fully evaluated hour.
type HourAssessment struct {
	Time      time.Time                   `json:"time"`
	HourIndex *int                        `json:"hour_index,omitempty"`
	Decision  Decision                    `json:"decision"`
	Judgments map[string]*MeasureJudgment `json:"judgments"`
	Risks     []RiskFlag                  `json:"risks"`
	HourScore *float64                    `json:"hour_score,omitempty"`
	Notes     []string                    `json:"notes"`
}

// WindowRecommendation is a candidate ride span with aggregated scoring.
type WindowRecommendation struct {
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Decision        Decision   `json:"decision"`
	WindowScore     *float64   `json:"window_score,omitempty"`
	Reasons         []string   `json:"reasons"`
	Risks           []RiskFlag `json:"risks"`
}

// AssessmentSummary distills a full timeline into one decision, one score, and
// the top limiting risks and windows.
type AssessmentSummary struct {
	OverallDecision  Decision               `json:"overall_decision"`
	SuitabilityScore *float64               `json:"suitability_score,omitempty"`
	PrimaryLimiters  []RiskFlag             `json:"primary_limiters"`
	BestWindows      []WindowRecommendation `json:"best_windows"`
}

// Context describes how and when a payload was generated.
type Context struct {
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"`
}

// Payload is the full deterministic assessment bundle consumed by the
// narration and API layers.
type Payload struct {
	Context     Context                  `json:"context"`
	Preferences RiderPreferences         `json:"preferences"`
	Current     *HourAssessment          `json:"current,omitempty"`
	Hourly      []*HourAssessment        `json:"hourly"`
	Summary     *AssessmentSummary       `json:"summary,omitempty"`
	Policies    map[string]MeasurePolicy `json:"policies"`
}

// HourSnapshot is the input contract for one hour of merged weather and
// air-quality readings. Nil fields mean the reading is unavailable.
type HourSnapshot struct {
	Time              time.Time
	HourIndex         *int
	TemperatureF      *float64
	WindSpeedMPH      *float64
	WindGustsMPH      *float64
	USAQI             *float64
	PrecipProbPercent *float64
	IsDay             *bool
}
