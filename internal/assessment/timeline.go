package assessment

import "sort"

// TimelineInput bundles the observed current hour (optional) with the ordered
// or unordered forecast hours to assess.
type TimelineInput struct {
	Current  *HourSnapshot
	Forecast []*HourSnapshot
}

// AssessTimeline judges the current hour and every forecast hour, normalizes
// the judgment key set across all hours, and annotates trends using the
// current hour as the seed for the first forecast entry. Forecast entries are
// sorted by time (hour index breaks ties) before assessment, so callers may
// pass them in any order. Nil forecast entries are dropped.
func AssessTimeline(prefs RiderPreferences, input TimelineInput, policies map[string]MeasurePolicy) (*HourAssessment, []*HourAssessment, error) {
	var current *HourAssessment
	if input.Current != nil {
		c, err := AssessHour(prefs, input.Current)
		if err != nil {
			return nil, nil, err
		}
		current = c
	}

	snaps := make([]*HourSnapshot, 0, len(input.Forecast))
	for _, s := range input.Forecast {
		if s != nil {
			snaps = append(snaps, s)
		}
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].Time.Equal(snaps[j].Time) {
			return snaps[i].Time.Before(snaps[j].Time)
		}
		return hourIndexOrZero(snaps[i]) < hourIndexOrZero(snaps[j])
	})

	hourly := make([]*HourAssessment, 0, len(snaps))
	for _, s := range snaps {
		h, err := AssessHour(prefs, s)
		if err != nil {
			return nil, nil, err
		}
		hourly = append(hourly, h)
	}

	normalizeJudgmentKeys(current, hourly)
	applyTrends(hourly, current, policies)

	return current, hourly, nil
}

func hourIndexOrZero(s *HourSnapshot) int {
	if s.HourIndex == nil {
		return 0
	}
	return *s.HourIndex
}

// normalizeJudgmentKeys ensures every hour carries the same judgment key set,
// so downstream consumers can index any measure on any hour. The canonical set
// comes from the current hour, falling back to the first forecast hour.
// Missing entries are filled with synthetic unknown judgments.
func normalizeJudgmentKeys(current *HourAssessment, hourly []*HourAssessment) {
	var canonical *HourAssessment
	switch {
	case current != nil:
		canonical = current
	case len(hourly) > 0:
		canonical = hourly[0]
	default:
		return
	}

	keys := make([]string, 0, len(canonical.Judgments))
	for k := range canonical.Judgments {
		keys = append(keys, k)
	}

	for _, hour := range hourly {
		if hour == nil {
			continue
		}
		if hour.Judgments == nil {
			hour.Judgments = make(map[string]*MeasureJudgment, len(keys))
		}
		for _, k := range keys {
			if _, ok := hour.Judgments[k]; !ok {
				hour.Judgments[k] = unknownJudgment()
			}
		}
	}
}
