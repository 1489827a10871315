package openmeteo

import (
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/conditions"
)

// localTimeLayout is the naive local timestamp format Open-Meteo returns when
// a timezone parameter is supplied.
const localTimeLayout = "2006-01-02T15:04"

type weatherResponse struct {
	Timezone string         `json:"timezone"`
	Current  *currentBlock  `json:"current"`
	Hourly   *weatherHourly `json:"hourly"`
}

type currentBlock struct {
	Time          string   `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	RelHumidity   *float64 `json:"relative_humidity_2m"`
	ApparentTemp  *float64 `json:"apparent_temperature"`
	Precipitation *float64 `json:"precipitation"`
	CloudCover    *float64 `json:"cloud_cover"`
	WindSpeed     *float64 `json:"wind_speed_10m"`
	WindGusts     *float64 `json:"wind_gusts_10m"`
	WindDirection *float64 `json:"wind_direction_10m"`
	IsDay         *int     `json:"is_day"`
}

type weatherHourly struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	RelHumidity   []*float64 `json:"relative_humidity_2m"`
	DewPoint      []*float64 `json:"dew_point_2m"`
	ApparentTemp  []*float64 `json:"apparent_temperature"`
	PrecipProb    []*float64 `json:"precipitation_probability"`
	Precipitation []*float64 `json:"precipitation"`
	CloudCover    []*float64 `json:"cloud_cover"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindGusts     []*float64 `json:"wind_gusts_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	IsDay         []*int     `json:"is_day"`
}

type airResponse struct {
	Timezone string      `json:"timezone"`
	Current  *airCurrent `json:"current"`
	Hourly   *airHourly  `json:"hourly"`
}

type airCurrent struct {
	Time    string   `json:"time"`
	PM25    *float64 `json:"pm2_5"`
	PM10    *float64 `json:"pm10"`
	USAQI   *float64 `json:"us_aqi"`
	Ozone   *float64 `json:"ozone"`
	UVIndex *float64 `json:"uv_index"`
}

type airHourly struct {
	Time    []string   `json:"time"`
	PM25    []*float64 `json:"pm2_5"`
	PM10    []*float64 `json:"pm10"`
	USAQI   []*float64 `json:"us_aqi"`
	Ozone   []*float64 `json:"ozone"`
	UVIndex []*float64 `json:"uv_index"`
}

// parseLocalTime interprets a naive Open-Meteo timestamp in loc.
func parseLocalTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(localTimeLayout, s, loc)
	if err != nil {
		// Some deployments return full RFC3339 stamps.
		t, err = time.ParseInLocation(time.RFC3339, s, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	return t, nil
}

func intToBool(v *int) *bool {
	if v == nil {
		return nil
	}
	b := *v != 0
	return &b
}

func (r *weatherResponse) currentHour(loc *time.Location) (*conditions.WeatherHour, error) {
	if r.Current == nil {
		return nil, fmt.Errorf("response has no current block")
	}
	t, err := parseLocalTime(r.Current.Time, loc)
	if err != nil {
		return nil, err
	}
	return &conditions.WeatherHour{
		Time:               t,
		HourIndex:          0,
		TemperatureF:       r.Current.Temperature,
		RelHumidityPercent: r.Current.RelHumidity,
		ApparentTempF:      r.Current.ApparentTemp,
		PrecipitationMM:    r.Current.Precipitation,
		CloudCoverPercent:  r.Current.CloudCover,
		WindSpeedMPH:       r.Current.WindSpeed,
		WindGustsMPH:       r.Current.WindGusts,
		WindDirectionDeg:   r.Current.WindDirection,
		IsDay:              intToBool(r.Current.IsDay),
	}, nil
}

func (r *weatherResponse) hourlyHours(loc *time.Location) ([]*conditions.WeatherHour, error) {
	if r.Hourly == nil {
		return nil, fmt.Errorf("response has no hourly block")
	}
	h := r.Hourly
	out := make([]*conditions.WeatherHour, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := parseLocalTime(ts, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, &conditions.WeatherHour{
			Time:               t,
			HourIndex:          i,
			TemperatureF:       at(h.Temperature, i),
			RelHumidityPercent: at(h.RelHumidity, i),
			DewPointF:          at(h.DewPoint, i),
			ApparentTempF:      at(h.ApparentTemp, i),
			PrecipProbPercent:  at(h.PrecipProb, i),
			PrecipitationMM:    at(h.Precipitation, i),
			CloudCoverPercent:  at(h.CloudCover, i),
			WindSpeedMPH:       at(h.WindSpeed, i),
			WindGustsMPH:       at(h.WindGusts, i),
			WindDirectionDeg:   at(h.WindDirection, i),
			IsDay:              intToBool(at(h.IsDay, i)),
		})
	}
	return out, nil
}

func (r *airResponse) currentHour(loc *time.Location) (*conditions.AirHour, error) {
	if r.Current == nil {
		return nil, fmt.Errorf("response has no current block")
	}
	t, err := parseLocalTime(r.Current.Time, loc)
	if err != nil {
		return nil, err
	}
	return &conditions.AirHour{
		Time:    t,
		PM25:    r.Current.PM25,
		PM10:    r.Current.PM10,
		USAQI:   r.Current.USAQI,
		Ozone:   r.Current.Ozone,
		UVIndex: r.Current.UVIndex,
	}, nil
}

func (r *airResponse) hourlyHours(loc *time.Location) ([]*conditions.AirHour, error) {
	if r.Hourly == nil {
		return nil, fmt.Errorf("response has no hourly block")
	}
	h := r.Hourly
	out := make([]*conditions.AirHour, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := parseLocalTime(ts, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, &conditions.AirHour{
			Time:    t,
			PM25:    at(h.PM25, i),
			PM10:    at(h.PM10, i),
			USAQI:   at(h.USAQI, i),
			Ozone:   at(h.Ozone, i),
			UVIndex: at(h.UVIndex, i),
		})
	}
	return out, nil
}

// at indexes a parallel array that may be shorter than the time array.
func at[T any](vals []*T, i int) *T {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
