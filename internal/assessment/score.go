package assessment

import "math"

// Per-status score penalties. An hour starts at 10 and loses points for each
// non-ideal judgment.
const (
	baseHourScore     = 10.0
	penaltyAvoid      = 4.0
	penaltyCaution    = 2.0
	penaltyAcceptable = 1.0
)

// aggregateStatuses folds per-measure statuses into a decision: any avoid
// wins, then any caution, and a set with no informative judgments at all is
// unknown.
func aggregateStatuses(statuses []Status) Decision {
	if len(statuses) == 0 {
		return DecisionUnknown
	}
	hasCaution := false
	known := false
	for _, s := range statuses {
		switch s {
		case StatusAvoid:
			return DecisionAvoid
		case StatusCaution:
			hasCaution = true
			known = true
		case StatusIdeal, StatusAcceptable:
			known = true
		}
	}
	if !known {
		return DecisionUnknown
	}
	if hasCaution {
		return DecisionGoWithCaution
	}
	return DecisionGo
}

// aggregateDecisions applies the same dominance rule to already-made
// decisions, used when rolling hours up into windows and summaries.
func aggregateDecisions(decisions []Decision) Decision {
	if len(decisions) == 0 {
		return DecisionUnknown
	}
	hasCaution := false
	known := false
	for _, d := range decisions {
		switch d {
		case DecisionAvoid:
			return DecisionAvoid
		case DecisionGoWithCaution:
			hasCaution = true
			known = true
		case DecisionGo:
			known = true
		}
	}
	if !known {
		return DecisionUnknown
	}
	if hasCaution {
		return DecisionGoWithCaution
	}
	return DecisionGo
}

// scoreHour computes the 0-10 suitability score for a judged hour. Besides the
// flat per-status penalties, temperature contributes a continuous penalty that
// grows with its distance outside the preferred band, so an hour 20F too hot
// scores worse than one 6F too hot even though both judge the same status.
func scoreHour(judgments map[string]*MeasureJudgment) float64 {
	score := baseHourScore
	for name, j := range judgments {
		if j == nil {
			continue
		}
		switch j.Status {
		case StatusAvoid:
			score -= penaltyAvoid
		case StatusCaution:
			score -= penaltyCaution
		case StatusAcceptable:
			score -= penaltyAcceptable
		}
		if name == MeasureTemperature && j.DistanceFromPreference != nil && *j.DistanceFromPreference > 0 {
			d := *j.DistanceFromPreference
			penalty := math.Pow(d/10.0, 1.5) * 2.0
			score -= math.Min(penaltyAvoid, penalty)
		}
	}
	return clampScore(score)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > baseHourScore {
		return baseHourScore
	}
	return s
}
