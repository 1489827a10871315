// Package openmeteo implements the conditions source backed by the Open-Meteo
// forecast and air-quality APIs. Requests use imperial units (Fahrenheit, mph)
// with precipitation in millimeters.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/conditions"
	"github.com/ridecast/ridecast/internal/provider/resilience"
)

const (
	// SourceName identifies this conditions source.
	SourceName = "open-meteo"

	// DefaultWeatherURL is the Open-Meteo forecast endpoint.
	DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultAirURL is the Open-Meteo air-quality endpoint.
	DefaultAirURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	// maxAirForecastDays is the horizon the air-quality API supports.
	maxAirForecastDays = 5
)

var weatherHourlyVars = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"dew_point_2m",
	"apparent_temperature",
	"precipitation_probability",
	"precipitation",
	"cloud_cover",
	"wind_speed_10m",
	"wind_gusts_10m",
	"wind_direction_10m",
	"is_day",
}

var weatherCurrentVars = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"is_day",
	"wind_speed_10m",
	"wind_direction_10m",
	"wind_gusts_10m",
	"precipitation",
	"cloud_cover",
}

var airVars = []string{
	"pm2_5",
	"pm10",
	"ozone",
	"uv_index",
	"us_aqi",
}

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// WeatherURL overrides the forecast endpoint (optional).
	WeatherURL string

	// AirURL overrides the air-quality endpoint (optional).
	AirURL string

	// HTTPClient is the HTTP client to use (optional). If nil, a resilient
	// client with defaults is used.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches weather and air-quality data from Open-Meteo.
type Client struct {
	weatherURL string
	airURL     string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	weatherURL := cfg.WeatherURL
	if weatherURL == "" {
		weatherURL = DefaultWeatherURL
	}

	airURL := cfg.AirURL
	if airURL == "" {
		airURL = DefaultAirURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{Name: SourceName})
	}

	return &Client{
		weatherURL: weatherURL,
		airURL:     airURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return SourceName
}

// HTTPHealth exposes the underlying breaker state for the ops endpoint.
func (c *Client) HTTPHealth() resilience.Health {
	return c.httpClient.Health()
}

// FetchCurrent returns the latest weather and air-quality observations.
func (c *Client) FetchCurrent(ctx context.Context, q conditions.Query) (*conditions.WeatherHour, *conditions.AirHour, error) {
	params := c.baseParams(q)
	params.Set("current", joinVars(weatherCurrentVars))

	var weatherResp weatherResponse
	if err := c.getJSON(ctx, c.weatherURL, params, &weatherResp); err != nil {
		return nil, nil, fmt.Errorf("open-meteo current weather: %w", err)
	}

	airParams := c.baseParams(q)
	airParams.Del("temperature_unit")
	airParams.Del("wind_speed_unit")
	airParams.Del("precipitation_unit")
	airParams.Set("current", joinVars(airVars))

	var airResp airResponse
	if err := c.getJSON(ctx, c.airURL, airParams, &airResp); err != nil {
		return nil, nil, fmt.Errorf("open-meteo current air: %w", err)
	}

	loc := loadLocation(weatherResp.Timezone, c.logger)
	weather, err := weatherResp.currentHour(loc)
	if err != nil {
		return nil, nil, err
	}
	air, err := airResp.currentHour(loadLocation(airResp.Timezone, c.logger))
	if err != nil {
		c.logger.Warn().Err(err).Msg("air-quality current unavailable")
		air = nil
	}
	return weather, air, nil
}

// FetchHourly returns the hourly weather and air-quality forecasts covering
// at least q.ForecastHours.
func (c *Client) FetchHourly(ctx context.Context, q conditions.Query) ([]*conditions.WeatherHour, []*conditions.AirHour, error) {
	days := forecastDays(q.ForecastHours)

	params := c.baseParams(q)
	params.Set("hourly", joinVars(weatherHourlyVars))
	params.Set("forecast_days", strconv.Itoa(days))

	var weatherResp weatherResponse
	if err := c.getJSON(ctx, c.weatherURL, params, &weatherResp); err != nil {
		return nil, nil, fmt.Errorf("open-meteo hourly weather: %w", err)
	}

	airDays := days
	if airDays > maxAirForecastDays {
		airDays = maxAirForecastDays
	}
	airParams := c.baseParams(q)
	airParams.Del("temperature_unit")
	airParams.Del("wind_speed_unit")
	airParams.Del("precipitation_unit")
	airParams.Set("hourly", joinVars(airVars))
	airParams.Set("forecast_days", strconv.Itoa(airDays))

	var airResp airResponse
	if err := c.getJSON(ctx, c.airURL, airParams, &airResp); err != nil {
		return nil, nil, fmt.Errorf("open-meteo hourly air: %w", err)
	}

	weather, err := weatherResp.hourlyHours(loadLocation(weatherResp.Timezone, c.logger))
	if err != nil {
		return nil, nil, err
	}
	air, err := airResp.hourlyHours(loadLocation(airResp.Timezone, c.logger))
	if err != nil {
		c.logger.Warn().Err(err).Msg("air-quality forecast unavailable")
		air = nil
	}
	return weather, air, nil
}

func (c *Client) baseParams(q conditions.Query) url.Values {
	tz := q.Timezone
	if tz == "" {
		tz = "auto"
	}
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	params.Set("timezone", tz)
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("precipitation_unit", "mm")
	return params
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func joinVars(vars []string) string {
	return strings.Join(vars, ",")
}

func forecastDays(hours int) int {
	if hours <= 0 {
		hours = 24
	}
	days := (hours + 23) / 24
	if days < 1 {
		days = 1
	}
	return days
}

func loadLocation(name string, logger zerolog.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Str("timezone", name).Msg("unknown timezone in response, using UTC")
		return time.UTC
	}
	return loc
}
