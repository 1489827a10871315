package conditions_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecast/ridecast/internal/conditions"
)

func fptr(v float64) *float64 { return &v }

// mockSource is a scripted conditions source for testing.
type mockSource struct {
	mu        sync.Mutex
	callCount int
	err       error
	base      time.Time
	hours     int
}

func newMockSource(base time.Time, hours int) *mockSource {
	return &mockSource{base: base, hours: hours}
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchCurrent(_ context.Context, _ conditions.Query) (*conditions.WeatherHour, *conditions.AirHour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, nil, m.err
	}
	return &conditions.WeatherHour{Time: m.base, TemperatureF: fptr(60)},
		&conditions.AirHour{Time: m.base, USAQI: fptr(30)}, nil
}

func (m *mockSource) FetchHourly(_ context.Context, _ conditions.Query) ([]*conditions.WeatherHour, []*conditions.AirHour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, nil, m.err
	}
	weather := make([]*conditions.WeatherHour, 0, m.hours)
	air := make([]*conditions.AirHour, 0, m.hours)
	for i := 0; i < m.hours; i++ {
		t := m.base.Add(time.Duration(i) * time.Hour)
		weather = append(weather, &conditions.WeatherHour{Time: t, HourIndex: i, TemperatureF: fptr(60 + float64(i))})
		if i%2 == 0 {
			air = append(air, &conditions.AirHour{Time: t, USAQI: fptr(30)})
		}
	}
	return weather, air, nil
}

func (m *mockSource) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func newTestService(source conditions.Source) *conditions.Service {
	return conditions.NewService(conditions.ServiceConfig{
		Source: source,
		Logger: zerolog.Nop(),
	})
}

func testQuery(hours int) conditions.Query {
	return conditions.Query{Latitude: 43.07, Longitude: -89.4, Timezone: "UTC", ForecastHours: hours}
}

func TestServiceMergesWeatherAndAir(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	svc := newTestService(newMockSource(base, 6))

	got, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)

	require.NotNil(t, got.Current)
	require.NotNil(t, got.Current.USAQI)
	assert.InDelta(t, 30, *got.Current.USAQI, 1e-9)
	assert.Equal(t, "mock", got.Source)

	require.NotEmpty(t, got.Forecast)
	// Even hours carry air data, odd hours do not.
	assert.NotNil(t, got.Forecast[0].USAQI)
	assert.Nil(t, got.Forecast[1].USAQI)
}

func TestServiceCachesByGridCell(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	source := newMockSource(base, 6)
	svc := newTestService(source)

	_, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)
	first := source.calls()

	// Same cell: a second call is served from cache.
	q := testQuery(6)
	q.Latitude += 0.001
	_, err = svc.Get(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, source.calls())

	// Different cell triggers a fresh fetch.
	q.Latitude += 1.0
	_, err = svc.Get(context.Background(), q)
	require.NoError(t, err)
	assert.Greater(t, source.calls(), first)
}

func TestServiceWindowsForecast(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	svc := newTestService(newMockSource(base, 48))

	got, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)
	assert.Len(t, got.Forecast, 6)
}

func TestServiceStaleIfError(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	source := newMockSource(base, 6)
	svc := conditions.NewService(conditions.ServiceConfig{
		Source:   source,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Nanosecond,
	})

	_, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)

	source.mu.Lock()
	source.err = errors.New("source down")
	source.mu.Unlock()

	// Cache entry has expired but is within the stale-if-error horizon.
	got, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)
	require.NotNil(t, got.Current)
}

func TestServiceErrorWithoutCache(t *testing.T) {
	source := newMockSource(time.Now(), 6)
	source.err = errors.New("source down")
	svc := newTestService(source)

	_, err := svc.Get(context.Background(), testQuery(6))
	require.ErrorIs(t, err, conditions.ErrSourceUnavailable)
}

func TestServiceRejectsBadCoordinates(t *testing.T) {
	svc := newTestService(newMockSource(time.Now(), 6))

	_, err := svc.Get(context.Background(), conditions.Query{Latitude: 91, Longitude: 0})
	require.ErrorIs(t, err, conditions.ErrInvalidCoordinates)

	_, err = svc.Refresh(context.Background(), conditions.Query{Latitude: 0, Longitude: 181})
	require.ErrorIs(t, err, conditions.ErrInvalidCoordinates)
}

func TestServiceRefreshBypassesCache(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	source := newMockSource(base, 6)
	svc := newTestService(source)

	_, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)
	first := source.calls()

	_, err = svc.Refresh(context.Background(), testQuery(6))
	require.NoError(t, err)
	assert.Greater(t, source.calls(), first)
}

func TestServiceStats(t *testing.T) {
	base := time.Now().Truncate(time.Hour)
	svc := newTestService(newMockSource(base, 6))

	_, err := svc.Get(context.Background(), testQuery(6))
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, "mock", stats.Source)

	svc.InvalidateCache()
	assert.Zero(t, svc.Stats().Entries)
}
