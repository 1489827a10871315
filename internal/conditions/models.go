// Package conditions fetches and merges hourly weather and air-quality data
// into ride conditions, with grid-based caching in front of the configured
// source.
package conditions

import (
	"errors"
	"time"

	"github.com/ridecast/ridecast/internal/assessment"
)

// Predefined errors for conditions operations.
var (
	// ErrInvalidCoordinates is returned for out-of-range latitude/longitude.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrSourceUnavailable is returned when the source fails and no usable
	// stale data exists.
	ErrSourceUnavailable = errors.New("conditions source unavailable")
)

// Query identifies a location and forecast horizon.
type Query struct {
	Latitude      float64
	Longitude     float64
	Timezone      string
	ForecastHours int
}

// WeatherHour is one hour of weather readings from a source, imperial units.
type WeatherHour struct {
	Time               time.Time
	HourIndex          int
	TemperatureF       *float64
	RelHumidityPercent *float64
	DewPointF          *float64
	ApparentTempF      *float64
	PrecipProbPercent  *float64
	PrecipitationMM    *float64
	CloudCoverPercent  *float64
	WindSpeedMPH       *float64
	WindGustsMPH       *float64
	WindDirectionDeg   *float64
	IsDay              *bool
}

// AirHour is one hour of air-quality readings from a source.
type AirHour struct {
	Time    time.Time
	PM25    *float64
	PM10    *float64
	USAQI   *float64
	Ozone   *float64
	UVIndex *float64
}

// HourConditions is a merged weather and air-quality hour, the unit the
// assessment engine consumes. Nil fields mean the reading is unavailable.
type HourConditions struct {
	Time              time.Time `json:"time"`
	HourIndex         int       `json:"hour_index"`
	TemperatureF      *float64  `json:"temperature_f,omitempty"`
	RelHumidityPct    *float64  `json:"relative_humidity_percent,omitempty"`
	DewPointF         *float64  `json:"dew_point_f,omitempty"`
	ApparentTempF     *float64  `json:"apparent_temperature_f,omitempty"`
	PrecipProbPct     *float64  `json:"precipitation_prob_percent,omitempty"`
	PrecipitationMM   *float64  `json:"precipitation_mm,omitempty"`
	CloudCoverPct     *float64  `json:"cloud_cover_percent,omitempty"`
	WindSpeedMPH      *float64  `json:"wind_speed_mph,omitempty"`
	WindGustsMPH      *float64  `json:"wind_gusts_mph,omitempty"`
	WindDirectionDeg  *float64  `json:"wind_direction_deg,omitempty"`
	IsDay             *bool     `json:"is_day,omitempty"`
	PM25              *float64  `json:"pm2_5,omitempty"`
	PM10              *float64  `json:"pm10,omitempty"`
	USAQI             *float64  `json:"us_aqi,omitempty"`
	Ozone             *float64  `json:"ozone,omitempty"`
	UVIndex           *float64  `json:"uv_index,omitempty"`
}

// Snapshot converts the merged hour into the assessment engine's input shape.
func (h *HourConditions) Snapshot() *assessment.HourSnapshot {
	if h == nil {
		return nil
	}
	idx := h.HourIndex
	return &assessment.HourSnapshot{
		Time:              h.Time,
		HourIndex:         &idx,
		TemperatureF:      h.TemperatureF,
		WindSpeedMPH:      h.WindSpeedMPH,
		WindGustsMPH:      h.WindGustsMPH,
		USAQI:             h.USAQI,
		PrecipProbPercent: h.PrecipProbPct,
		IsDay:             h.IsDay,
	}
}

// Conditions bundles the current observation with the hourly forecast.
type Conditions struct {
	Current   *HourConditions   `json:"current,omitempty"`
	Forecast  []*HourConditions `json:"forecast"`
	FetchedAt time.Time         `json:"fetched_at"`
	Source    string            `json:"source"`
}

// Snapshots converts the bundle into the assessment engine's timeline input.
func (c *Conditions) Snapshots() assessment.TimelineInput {
	input := assessment.TimelineInput{}
	if c == nil {
		return input
	}
	input.Current = c.Current.Snapshot()
	for _, h := range c.Forecast {
		input.Forecast = append(input.Forecast, h.Snapshot())
	}
	return input
}

// merge combines a weather hour with its same-timestamp air hour. air may be
// nil when the air source has no reading for that hour.
func merge(w *WeatherHour, air *AirHour) *HourConditions {
	out := &HourConditions{
		Time:             w.Time,
		HourIndex:        w.HourIndex,
		TemperatureF:     w.TemperatureF,
		RelHumidityPct:   w.RelHumidityPercent,
		DewPointF:        w.DewPointF,
		ApparentTempF:    w.ApparentTempF,
		PrecipProbPct:    w.PrecipProbPercent,
		PrecipitationMM:  w.PrecipitationMM,
		CloudCoverPct:    w.CloudCoverPercent,
		WindSpeedMPH:     w.WindSpeedMPH,
		WindGustsMPH:     w.WindGustsMPH,
		WindDirectionDeg: w.WindDirectionDeg,
		IsDay:            w.IsDay,
	}
	if air != nil {
		out.PM25 = air.PM25
		out.PM10 = air.PM10
		out.USAQI = air.USAQI
		out.Ozone = air.Ozone
		out.UVIndex = air.UVIndex
	}
	return out
}
