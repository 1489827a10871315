package assessment

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultWindowDurations are the candidate ride lengths, in minutes, searched
// when the caller does not supply its own.
var DefaultWindowDurations = []int{45, 60, 90, 120}

// contiguityTolerance is how far apart two consecutive hours may be from
// exactly one hour before a window spanning them is rejected.
const contiguityTolerance = 90 * time.Second

// ComputeWindowRecommendations slides each candidate duration over the hourly
// assessments and returns the viable windows, best first. A window is viable
// when its hours are contiguous and none of them is an avoid. Scores are the
// mean hour score over the window, with missing scores counted as zero.
func ComputeWindowRecommendations(hourly []*HourAssessment, durations []int) []WindowRecommendation {
	if len(durations) == 0 {
		durations = DefaultWindowDurations
	}

	windows := []WindowRecommendation{}
	for _, minutes := range durations {
		if minutes <= 0 {
			continue
		}
		needed := (minutes + 59) / 60
		for start := 0; start+needed <= len(hourly); start++ {
			span := hourly[start : start+needed]
			if w, ok := buildWindow(span, minutes); ok {
				windows = append(windows, w)
			}
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		si, sj := windows[i].WindowScore, windows[j].WindowScore
		switch {
		case si != nil && sj != nil && *si != *sj:
			return *si > *sj
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		}
		return windows[i].Start.Before(windows[j].Start)
	})
	return windows
}

func buildWindow(span []*HourAssessment, minutes int) (WindowRecommendation, bool) {
	for _, h := range span {
		if h == nil || h.Decision == DecisionAvoid {
			return WindowRecommendation{}, false
		}
	}
	if !contiguous(span) {
		return WindowRecommendation{}, false
	}

	total := 0.0
	decisions := make([]Decision, 0, len(span))
	risks := []RiskFlag{}
	for _, h := range span {
		if h.HourScore != nil {
			total += *h.HourScore
		}
		decisions = append(decisions, h.Decision)
		risks = append(risks, h.Risks...)
	}
	score := total / float64(len(span))

	return WindowRecommendation{
		Start:           span[0].Time,
		End:             span[0].Time.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Decision:        aggregateDecisions(decisions),
		WindowScore:     &score,
		Reasons:         []string{fmt.Sprintf("Average score %.1f over %d hour(s)", score, len(span))},
		Risks:           risks,
	}, true
}

func contiguous(span []*HourAssessment) bool {
	for i := 1; i < len(span); i++ {
		gap := span[i].Time.Sub(span[i-1].Time)
		if math.Abs((gap - time.Hour).Seconds()) > contiguityTolerance.Seconds() {
			return false
		}
	}
	return true
}
