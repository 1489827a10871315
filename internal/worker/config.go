// Package worker provides background cache warming for RideCast.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to keep warm.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh. Typically city
	// centers and popular ride start points.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the conditions refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// ForecastHours is the forecast horizon fetched per point.
	// Default: 12
	ForecastHours int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:       DefaultRefreshTargets(),
		Concurrency:   3,
		Timeout:       30 * time.Second,
		ForecastHours: 12,
	}
}

// DefaultRefreshTargets returns the default refresh targets for the upper
// Midwest riding corridor the service launched in.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Madison",
			Priority: 1,
			Points: []Point{
				{Lat: 43.0731, Lon: -89.4012}, // Capitol Square
				{Lat: 43.0599, Lon: -89.5008}, // West side
			},
		},
		{
			Name:     "Chicago",
			Priority: 1,
			Points: []Point{
				{Lat: 41.8781, Lon: -87.6298}, // Loop
				{Lat: 41.9742, Lon: -87.6553}, // Lakefront Trail north
			},
		},
		{
			Name:     "Milwaukee",
			Priority: 2,
			Points: []Point{
				{Lat: 43.0389, Lon: -87.9065}, // Downtown
			},
		},
		{
			Name:     "Green Bay",
			Priority: 3,
			Points: []Point{
				{Lat: 44.5133, Lon: -88.0133},
			},
		},
		{
			Name:     "Rockford",
			Priority: 3,
			Points: []Point{
				{Lat: 42.2711, Lon: -89.0940},
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
