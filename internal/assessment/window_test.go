package assessment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecast/ridecast/internal/assessment"
)

// buildHourly assesses a run of hours with the given temperatures, one hour
// apart starting at base.
func buildHourly(t *testing.T, base time.Time, temps []float64) []*assessment.HourAssessment {
	t.Helper()

	snaps := make([]*assessment.HourSnapshot, 0, len(temps))
	for i, temp := range temps {
		s := snapAt(base.Add(time.Duration(i)*time.Hour), i)
		s.TemperatureF = fptr(temp)
		snaps = append(snaps, s)
	}

	_, hourly, err := assessment.AssessTimeline(basePrefs(), assessment.TimelineInput{Forecast: snaps}, assessment.DefaultMeasurePolicies())
	require.NoError(t, err)
	return hourly
}

func TestWindowsSkipAvoidHours(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	// Hour 1 is a hard avoid (95F); no window may include it.
	hourly := buildHourly(t, base, []float64{65, 95, 65, 65})

	windows := assessment.ComputeWindowRecommendations(hourly, []int{60})
	require.Len(t, windows, 3)
	for _, w := range windows {
		assert.NotEqual(t, base.Add(time.Hour), w.Start)
	}
}

func TestWindowsRequireContiguousHours(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	s0 := snapAt(base, 0)
	s0.TemperatureF = fptr(65)
	s1 := snapAt(base.Add(3*time.Hour), 1) // two hour gap
	s1.TemperatureF = fptr(65)

	_, hourly, err := assessment.AssessTimeline(basePrefs(), assessment.TimelineInput{Forecast: []*assessment.HourSnapshot{s0, s1}}, assessment.DefaultMeasurePolicies())
	require.NoError(t, err)

	windows := assessment.ComputeWindowRecommendations(hourly, []int{120})
	assert.Empty(t, windows)
}

func TestWindowsScoreAndRank(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	// 65F is ideal (10.0); 85F judges caution with a 2.0 distance penalty (6.0).
	hourly := buildHourly(t, base, []float64{85, 65, 65})

	windows := assessment.ComputeWindowRecommendations(hourly, []int{120})
	require.Len(t, windows, 2)

	best := windows[0]
	assert.Equal(t, base.Add(time.Hour), best.Start)
	assert.Equal(t, base.Add(3*time.Hour), best.End)
	assert.Equal(t, 120, best.DurationMinutes)
	require.NotNil(t, best.WindowScore)
	assert.InDelta(t, 10.0, *best.WindowScore, 1e-9)
	assert.Equal(t, assessment.DecisionGo, best.Decision)
	require.Len(t, best.Reasons, 1)
	assert.Equal(t, "Average score 10.0 over 2 hour(s)", best.Reasons[0])

	second := windows[1]
	assert.Equal(t, base, second.Start)
	require.NotNil(t, second.WindowScore)
	assert.InDelta(t, 8.0, *second.WindowScore, 1e-9)
	assert.Equal(t, assessment.DecisionGoWithCaution, second.Decision)
}

func TestWindowsTieBreakByStart(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	hourly := buildHourly(t, base, []float64{65, 65, 65})

	windows := assessment.ComputeWindowRecommendations(hourly, []int{60})
	require.Len(t, windows, 3)
	assert.Equal(t, base, windows[0].Start)
	assert.Equal(t, base.Add(time.Hour), windows[1].Start)
	assert.Equal(t, base.Add(2*time.Hour), windows[2].Start)
}

func TestWindowsSubHourDurationUsesOneHour(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	hourly := buildHourly(t, base, []float64{65})

	windows := assessment.ComputeWindowRecommendations(hourly, []int{45})
	require.Len(t, windows, 1)
	assert.Equal(t, 45, windows[0].DurationMinutes)
	assert.Equal(t, base.Add(45*time.Minute), windows[0].End)
}

func TestWindowsCollectRisks(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	// Two caution hours each raise an extreme_heat flag; both are kept.
	hourly := buildHourly(t, base, []float64{85, 85})

	windows := assessment.ComputeWindowRecommendations(hourly, []int{120})
	require.Len(t, windows, 1)
	assert.Len(t, windows[0].Risks, 2)
}

func TestWindowsDefaultDurations(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	hourly := buildHourly(t, base, []float64{65, 65})

	// 45 and 60 minute windows need one hour (two placements each); 90 and 120
	// need two hours (one placement each).
	windows := assessment.ComputeWindowRecommendations(hourly, nil)
	assert.Len(t, windows, 6)
}
