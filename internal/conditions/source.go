package conditions

import "context"

// Source provides raw weather and air-quality hours for a location. The
// service layer merges, caches, and windows the results.
type Source interface {
	// FetchCurrent returns the latest weather observation and, when
	// available, the matching air-quality observation.
	FetchCurrent(ctx context.Context, q Query) (*WeatherHour, *AirHour, error)

	// FetchHourly returns the hourly weather forecast and air-quality
	// forecast covering at least q.ForecastHours.
	FetchHourly(ctx context.Context, q Query) ([]*WeatherHour, []*AirHour, error)

	// Name identifies the source for logging and payload provenance.
	Name() string
}
