// Package postgres implements a conditions source backed by warehouse mart
// tables that mirror Open-Meteo's hourly schema. It serves deployments where
// a separate ingestion pipeline already lands forecasts in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridecast/ridecast/internal/conditions"
)

const (
	// SourceName identifies this conditions source.
	SourceName = "postgres"

	// DefaultCurrentTable holds the latest merged observation per location.
	DefaultCurrentTable = "mart.fct_current_weather_air_conditions"

	// DefaultForecastTable holds the latest hourly forecast per location.
	DefaultForecastTable = "mart.fct_latest_weather_air_forecast"

	// locationTolerance matches rows whose coordinates are within this many
	// degrees of the query.
	locationTolerance = 0.05
)

// ErrNoData is returned when the mart tables have no rows for the location.
var ErrNoData = errors.New("no conditions rows for location")

// Source reads merged weather and air-quality rows from Postgres.
type Source struct {
	pool          *pgxpool.Pool
	currentTable  string
	forecastTable string
}

// Option configures a Source.
type Option func(*Source)

// WithTables overrides the mart table names.
func WithTables(current, forecast string) Option {
	return func(s *Source) {
		s.currentTable = current
		s.forecastTable = forecast
	}
}

// NewSource creates a Postgres-backed conditions source.
func NewSource(pool *pgxpool.Pool, opts ...Option) *Source {
	s := &Source{
		pool:          pool,
		currentTable:  DefaultCurrentTable,
		forecastTable: DefaultForecastTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name.
func (s *Source) Name() string {
	return SourceName
}

const conditionColumns = `
	observed_at,
	temperature_2m, relative_humidity_2m, dew_point_2m, apparent_temperature,
	precipitation_probability, precipitation, cloud_cover,
	wind_speed_10m, wind_gusts_10m, wind_direction_10m, is_day,
	pm2_5, pm10, us_aqi, ozone, uv_index`

// FetchCurrent returns the most recent merged row near the query location.
func (s *Source) FetchCurrent(ctx context.Context, q conditions.Query) (*conditions.WeatherHour, *conditions.AirHour, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE abs(latitude - $1) < $3 AND abs(longitude - $2) < $3
		ORDER BY observed_at DESC
		LIMIT 1
	`, conditionColumns, s.currentTable)

	row := s.pool.QueryRow(ctx, query, q.Latitude, q.Longitude, locationTolerance)
	weather, air, err := scanConditionRow(row, 0)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNoData
		}
		return nil, nil, fmt.Errorf("query current conditions: %w", err)
	}
	return weather, air, nil
}

// FetchHourly returns forecast rows near the query location, from the current
// hour forward.
func (s *Source) FetchHourly(ctx context.Context, q conditions.Query) ([]*conditions.WeatherHour, []*conditions.AirHour, error) {
	hours := q.ForecastHours
	if hours <= 0 {
		hours = 24
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE abs(latitude - $1) < $3 AND abs(longitude - $2) < $3
		  AND observed_at >= date_trunc('hour', now())
		ORDER BY observed_at ASC
		LIMIT $4
	`, conditionColumns, s.forecastTable)

	rows, err := s.pool.Query(ctx, query, q.Latitude, q.Longitude, locationTolerance, hours)
	if err != nil {
		return nil, nil, fmt.Errorf("query forecast conditions: %w", err)
	}
	defer rows.Close()

	var weather []*conditions.WeatherHour
	var air []*conditions.AirHour
	idx := 0
	for rows.Next() {
		w, a, err := scanConditionRow(rows, idx)
		if err != nil {
			return nil, nil, fmt.Errorf("scan forecast row: %w", err)
		}
		weather = append(weather, w)
		if a != nil {
			air = append(air, a)
		}
		idx++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate forecast rows: %w", err)
	}
	if len(weather) == 0 {
		return nil, nil, ErrNoData
	}
	return weather, air, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConditionRow(row rowScanner, hourIndex int) (*conditions.WeatherHour, *conditions.AirHour, error) {
	var (
		observedAt time.Time
		isDay      *int
		w          conditions.WeatherHour
		a          conditions.AirHour
	)

	err := row.Scan(
		&observedAt,
		&w.TemperatureF, &w.RelHumidityPercent, &w.DewPointF, &w.ApparentTempF,
		&w.PrecipProbPercent, &w.PrecipitationMM, &w.CloudCoverPercent,
		&w.WindSpeedMPH, &w.WindGustsMPH, &w.WindDirectionDeg, &isDay,
		&a.PM25, &a.PM10, &a.USAQI, &a.Ozone, &a.UVIndex,
	)
	if err != nil {
		return nil, nil, err
	}

	w.Time = observedAt
	w.HourIndex = hourIndex
	if isDay != nil {
		day := *isDay != 0
		w.IsDay = &day
	}

	a.Time = observedAt
	if a.PM25 == nil && a.PM10 == nil && a.USAQI == nil && a.Ozone == nil && a.UVIndex == nil {
		return &w, nil, nil
	}
	return &w, &a, nil
}
