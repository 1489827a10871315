package assessment

// AssessHour judges every measure of a single hour snapshot against the
// rider's preferences and assembles the decision, risks, and score. Trend
// fields are left empty; the timeline pass fills them in once neighboring
// hours are available.
func AssessHour(prefs RiderPreferences, snap *HourSnapshot) (*HourAssessment, error) {
	if snap == nil || snap.Time.IsZero() {
		return nil, ErrInvalidSnapshot
	}

	rc := &riskCollector{}
	judgments := map[string]*MeasureJudgment{
		MeasureTemperature: judgeTemperature(snap.TemperatureF, prefs, rc),
		MeasureWindSpeed:   judgeWind(snap.WindSpeedMPH, prefs, rc),
		MeasureWindGusts:   judgeGusts(snap.WindGustsMPH, prefs, rc),
		MeasureAQI:         judgeAQI(snap.USAQI, prefs, rc),
		MeasurePrecipProb:  judgePrecip(snap.PrecipProbPercent, prefs, rc),
		MeasureDaylight:    judgeDaylight(snap.IsDay, prefs, rc),
	}

	statuses := make([]Status, 0, len(judgments))
	for _, j := range judgments {
		statuses = append(statuses, j.Status)
	}

	score := scoreHour(judgments)
	risks := rc.flags
	if risks == nil {
		risks = []RiskFlag{}
	}

	return &HourAssessment{
		Time:      snap.Time,
		HourIndex: snap.HourIndex,
		Decision:  aggregateStatuses(statuses),
		Judgments: judgments,
		Risks:     risks,
		HourScore: &score,
		Notes:     []string{},
	}, nil
}
