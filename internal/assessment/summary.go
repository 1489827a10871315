package assessment

const (
	maxBestWindows     = 3
	maxPrimaryLimiters = 3
)

// BuildSummary rolls the hourly assessments and window recommendations up
// into the single overall verdict. The primary limiters come from the best
// windows when any window exists, otherwise from all hours, deduplicated by
// code and severity in first-seen order.
func BuildSummary(hourly []*HourAssessment, windows []WindowRecommendation) *AssessmentSummary {
	decisions := make([]Decision, 0, len(hourly))
	total := 0.0
	scored := 0
	for _, h := range hourly {
		if h == nil {
			continue
		}
		decisions = append(decisions, h.Decision)
		if h.HourScore != nil {
			total += *h.HourScore
			scored++
		}
	}

	var suitability *float64
	if scored > 0 {
		mean := total / float64(scored)
		suitability = &mean
	}

	best := windows
	if len(best) > maxBestWindows {
		best = best[:maxBestWindows]
	}

	var riskSource []RiskFlag
	if len(windows) > 0 {
		for _, w := range best {
			riskSource = append(riskSource, w.Risks...)
		}
	} else {
		for _, h := range hourly {
			if h != nil {
				riskSource = append(riskSource, h.Risks...)
			}
		}
	}

	return &AssessmentSummary{
		OverallDecision:  aggregateDecisions(decisions),
		SuitabilityScore: suitability,
		PrimaryLimiters:  dedupeLimiters(riskSource, maxPrimaryLimiters),
		BestWindows:      append([]WindowRecommendation{}, best...),
	}
}

type limiterKey struct {
	code     RiskCode
	severity RiskSeverity
}

func dedupeLimiters(flags []RiskFlag, limit int) []RiskFlag {
	out := []RiskFlag{}
	seen := make(map[limiterKey]bool, len(flags))
	for _, f := range flags {
		k := limiterKey{f.Code, f.Severity}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
		if len(out) == limit {
			break
		}
	}
	return out
}
