package assessment

import "math"

// trendDirection classifies the change in distance-from-preference between
// two consecutive hours. Changes inside the measure's deadband are stable.
// For target_band measures (and measures with no declared directionality) the
// distance is already non-negative, so shrinking distance means improving.
func trendDirection(delta float64, policy MeasurePolicy) Trend {
	if math.Abs(delta) <= policy.TrendDeadband {
		return TrendStable
	}
	switch policy.Directionality {
	case HigherIsBetter:
		if delta > 0 {
			return TrendImproving
		}
		return TrendWorsening
	case LowerIsBetter:
		if delta < 0 {
			return TrendImproving
		}
		return TrendWorsening
	default:
		if delta < 0 {
			return TrendImproving
		}
		return TrendWorsening
	}
}

// applyTrends annotates each hour's judgments with the trend relative to the
// previous hour. prev seeds the comparison for the first hourly entry (the
// current-hour assessment, when present). Judgments whose distance is missing
// on either side are skipped.
func applyTrends(hours []*HourAssessment, prev *HourAssessment, policies map[string]MeasurePolicy) {
	for _, hour := range hours {
		if hour == nil {
			continue
		}
		if prev != nil {
			annotateTrends(hour, prev, policies)
		}
		prev = hour
	}
}

func annotateTrends(hour, prev *HourAssessment, policies map[string]MeasurePolicy) {
	for name, j := range hour.Judgments {
		if j == nil || j.DistanceFromPreference == nil {
			continue
		}
		pj, ok := prev.Judgments[name]
		if !ok || pj == nil || pj.DistanceFromPreference == nil {
			continue
		}
		policy, ok := policies[name]
		if !ok {
			continue
		}
		delta := *j.DistanceFromPreference - *pj.DistanceFromPreference
		j.Trend = trendDirection(delta, policy)
		j.TrendDelta = floatPtr(delta)
		j.TrendConfidence = floatPtr(1.0)
	}
}
