package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/conditions"
)

// RefreshJob keeps the conditions cache warm for the configured targets so
// session creation hits a populated cache instead of the upstream source.
type RefreshJob struct {
	config     RefreshConfig
	logger     zerolog.Logger
	conditions *conditions.Service

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns        int64
	SuccessfulPoints int64
	FailedPoints     int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Logger     zerolog.Logger
	Conditions *conditions.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ForecastHours <= 0 {
		config.ForecastHours = 12
	}

	return &RefreshJob{
		config:     config,
		logger:     cfg.Logger,
		conditions: cfg.Conditions,
		metrics:    &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Point Point
	Error string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting conditions refresh job")

	points := j.config.AllPoints()

	// Create work channels
	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	// Send points to workers
	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for pr := range resultsChan {
		if pr.err == nil {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				Point: pr.point,
				Error: pr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("conditions refresh job completed")

	return result
}

type pointResult struct {
	point Point
	err   error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			results <- pointResult{point: point, err: ctx.Err()}
		default:
			results <- pointResult{point: point, err: j.refreshPoint(ctx, point)}
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) error {
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.conditions.Refresh(pointCtx, conditions.Query{
		Latitude:      point.Lat,
		Longitude:     point.Lon,
		ForecastHours: j.config.ForecastHours,
	})
	if err != nil {
		j.logger.Warn().
			Err(err).
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Msg("point refresh failed")
	}
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPoints += int64(result.Successful)
	j.metrics.FailedPoints += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:        j.metrics.TotalRuns,
		SuccessfulPoints: j.metrics.SuccessfulPoints,
		FailedPoints:     j.metrics.FailedPoints,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalDuration:    j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_points": m.SuccessfulPoints,
		"failed_points":     m.FailedPoints,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
