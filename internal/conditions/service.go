package conditions

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServiceConfig holds configuration for the conditions service.
type ServiceConfig struct {
	// Source provides the raw weather and air-quality data.
	Source Source

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long fetched conditions stay fresh (default: 15 minutes).
	CacheTTL time.Duration

	// CacheGridSize groups nearby coordinates into shared cache cells, in
	// degrees (default: 0.05, roughly 5km).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale conditions when the source fails
	// (default: 2 hours).
	StaleIfErrorTTL time.Duration
}

// Service returns merged ride conditions for a location, caching per grid
// cell and falling back to stale data when the source is down.
type Service struct {
	source          Source
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedConditions

	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	sourceErrors metric.Int64Counter
}

type cachedConditions struct {
	conditions *Conditions
	fetchedAt  time.Time
	expiresAt  time.Time
}

// NewService creates a conditions service around the given source.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.05
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 2 * time.Hour
	}

	meter := otel.Meter("ridecast/conditions")
	cacheHits, _ := meter.Int64Counter("conditions.cache.hits")
	cacheMisses, _ := meter.Int64Counter("conditions.cache.misses")
	sourceErrors, _ := meter.Int64Counter("conditions.source.errors")

	return &Service{
		source:          cfg.Source,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedConditions),
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		sourceErrors:    sourceErrors,
	}
}

// Get returns merged conditions for the query, from cache when fresh.
func (s *Service) Get(ctx context.Context, q Query) (*Conditions, error) {
	if err := validateCoordinates(q.Latitude, q.Longitude); err != nil {
		return nil, err
	}
	if q.ForecastHours <= 0 {
		q.ForecastHours = 24
	}

	key := s.cacheKey(q)

	s.mu.RLock()
	cached, ok := s.cache[key]
	if ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("source", s.source.Name())))
		return windowed(cached.conditions, q.ForecastHours), nil
	}
	s.mu.RUnlock()

	s.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("source", s.source.Name())))
	return s.fetch(ctx, q, key, false)
}

// Refresh bypasses the cache, fetches from the source, and repopulates the
// cell. Used by the warm-up worker and the forced session refresh.
func (s *Service) Refresh(ctx context.Context, q Query) (*Conditions, error) {
	if err := validateCoordinates(q.Latitude, q.Longitude); err != nil {
		return nil, err
	}
	if q.ForecastHours <= 0 {
		q.ForecastHours = 24
	}
	return s.fetch(ctx, q, s.cacheKey(q), true)
}

func (s *Service) fetch(ctx context.Context, q Query, key string, force bool) (*Conditions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check under the write lock.
	if !force {
		if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
			return windowed(cached.conditions, q.ForecastHours), nil
		}
	}

	s.logger.Debug().
		Float64("lat", q.Latitude).
		Float64("lon", q.Longitude).
		Str("source", s.source.Name()).
		Msg("fetching conditions from source")

	bundle, err := s.fetchAndMerge(ctx, q)
	if err != nil {
		s.sourceErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", s.source.Name())))
		s.logger.Error().Err(err).
			Float64("lat", q.Latitude).
			Float64("lon", q.Longitude).
			Msg("failed to fetch conditions")

		if cached, ok := s.cache[key]; ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale conditions due to source error")
			return windowed(cached.conditions, q.ForecastHours), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	now := time.Now()
	s.cache[key] = &cachedConditions{
		conditions: bundle,
		fetchedAt:  now,
		expiresAt:  now.Add(s.cacheTTL),
	}

	return windowed(bundle, q.ForecastHours), nil
}

// fetchAndMerge pulls weather and air from the source and joins air readings
// to weather hours by timestamp.
func (s *Service) fetchAndMerge(ctx context.Context, q Query) (*Conditions, error) {
	curWeather, curAir, err := s.source.FetchCurrent(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch current: %w", err)
	}

	hourlyWeather, hourlyAir, err := s.source.FetchHourly(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly: %w", err)
	}

	airByTime := make(map[int64]*AirHour, len(hourlyAir))
	for _, a := range hourlyAir {
		if a != nil {
			airByTime[a.Time.Unix()] = a
		}
	}

	var current *HourConditions
	if curWeather != nil {
		current = merge(curWeather, curAir)
	}

	forecast := make([]*HourConditions, 0, len(hourlyWeather))
	for _, w := range hourlyWeather {
		if w == nil {
			continue
		}
		forecast = append(forecast, merge(w, airByTime[w.Time.Unix()]))
	}

	return &Conditions{
		Current:   current,
		Forecast:  forecast,
		FetchedAt: time.Now(),
		Source:    s.source.Name(),
	}, nil
}

// windowed returns a copy of the bundle trimmed to hours hours of forecast,
// starting from the current observation time (or the first forecast hour).
func windowed(c *Conditions, hours int) *Conditions {
	if c == nil {
		return nil
	}

	start := time.Now()
	if c.Current != nil {
		start = c.Current.Time
	} else if len(c.Forecast) > 0 {
		start = c.Forecast[0].Time
	}
	end := start.Add(time.Duration(hours) * time.Hour)

	forecast := make([]*HourConditions, 0, hours)
	for _, h := range c.Forecast {
		if h == nil || h.Time.Before(start.Truncate(time.Hour)) || !h.Time.Before(end) {
			continue
		}
		forecast = append(forecast, h)
	}

	return &Conditions{
		Current:   c.Current,
		Forecast:  forecast,
		FetchedAt: c.FetchedAt,
		Source:    c.Source,
	}
}

// cacheKey buckets the query into a grid cell so nearby riders share data.
func (s *Service) cacheKey(q Query) string {
	gridLat := math.Floor(q.Latitude/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(q.Longitude/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.3f:%.3f", gridLat, gridLon)
}

// InvalidateCache clears all cached conditions.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedConditions)
}

// CacheStats describes the cache for the ops status endpoint.
type CacheStats struct {
	Entries      int    `json:"entries"`
	FreshEntries int    `json:"fresh_entries"`
	Source       string `json:"source"`
}

// Stats returns current cache statistics.
func (s *Service) Stats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}
	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Source:       s.source.Name(),
	}
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
