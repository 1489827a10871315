package assessment

import "fmt"

// Judge-local defaults applied when the rider has not set a threshold.
const (
	defaultMaxWindMPH = 25.0
	defaultMaxAQI     = 80.0
)

// riskCollector accumulates risk flags raised while judging a single hour.
// It is local to one AssessHour call and never escapes it.
type riskCollector struct {
	flags []RiskFlag
}

func (rc *riskCollector) add(code RiskCode, severity RiskSeverity, evidence []string) {
	ev := make([]string, len(evidence))
	copy(ev, evidence)
	rc.flags = append(rc.flags, RiskFlag{Code: code, Severity: severity, Evidence: ev})
}

func unknownJudgment() *MeasureJudgment {
	return &MeasureJudgment{Status: StatusUnknown, Reasons: []string{}}
}

func floatPtr(v float64) *float64 { return &v }

// judgeTemperature evaluates temperature against the preferred band. Distance
// is the non-negative distance to the band (0 inside it), matching the
// target_band trend policy.
func judgeTemperature(tempF *float64, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if tempF == nil || prefs.PreferredTempRangeF == nil {
		return unknownJudgment()
	}

	t := *tempF
	band := *prefs.PreferredTempRangeF

	if t < band.Low {
		distance := band.Low - t
		if t < 32 {
			// Hard cold floor at freezing; major below 25F.
			severity := SeverityModerate
			if t <= 25 {
				severity = SeverityMajor
			}
			reasons := []string{fmt.Sprintf("Very cold: %.1fF below preferred %.1fF", t, band.Low)}
			rc.add(RiskExtremeCold, severity, reasons)
			return &MeasureJudgment{
				Status:                 StatusAvoid,
				DistanceFromPreference: floatPtr(distance),
				Severity:               severity,
				Reasons:                reasons,
			}
		}
		if distance > 10 {
			reasons := []string{fmt.Sprintf("Cold: %.1fF is %.1fF below preferred", t, distance)}
			rc.add(RiskExtremeCold, SeverityModerate, reasons)
			return &MeasureJudgment{
				Status:                 StatusCaution,
				DistanceFromPreference: floatPtr(distance),
				Severity:               SeverityModerate,
				Reasons:                reasons,
			}
		}
		reason := fmt.Sprintf("Slightly cool: %.1fF just below preferred", t)
		if distance > 5 {
			reason = fmt.Sprintf("Slightly cool: %.1fF below preferred", t)
		}
		return &MeasureJudgment{
			Status:                 StatusAcceptable,
			DistanceFromPreference: floatPtr(distance),
			Reasons:                []string{reason},
		}
	}

	if t > band.High {
		distance := t - band.High
		if distance > 15 {
			reasons := []string{fmt.Sprintf("Very hot: %.1fF above preferred %.1fF", t, band.High)}
			rc.add(RiskExtremeHeat, SeverityMajor, reasons)
			return &MeasureJudgment{
				Status:                 StatusAvoid,
				DistanceFromPreference: floatPtr(distance),
				Severity:               SeverityMajor,
				Reasons:                reasons,
			}
		}
		if distance > 5 {
			reasons := []string{fmt.Sprintf("Hot: %.1fF is %.1fF above preferred", t, distance)}
			rc.add(RiskExtremeHeat, SeverityModerate, reasons)
			return &MeasureJudgment{
				Status:                 StatusCaution,
				DistanceFromPreference: floatPtr(distance),
				Severity:               SeverityModerate,
				Reasons:                reasons,
			}
		}
		return &MeasureJudgment{
			Status:                 StatusAcceptable,
			DistanceFromPreference: floatPtr(distance),
			Reasons:                []string{fmt.Sprintf("Slightly warm: %.1fF just above preferred", t)},
		}
	}

	return &MeasureJudgment{
		Status:                 StatusIdeal,
		DistanceFromPreference: floatPtr(0),
		Reasons:                []string{fmt.Sprintf("Comfortable: %.1fF within preferred %.1f-%.1fF", t, band.Low, band.High)},
	}
}

// judgeWind evaluates sustained wind speed against the rider's limit.
// Distance is value minus limit: positive means over the limit, so
// lower_is_better trend semantics apply directly.
func judgeWind(windMPH *float64, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if windMPH == nil {
		return unknownJudgment()
	}

	limit := defaultMaxWindMPH
	if prefs.MaxWindMPH != nil {
		limit = *prefs.MaxWindMPH
	}
	w := *windMPH
	distance := w - limit

	if w > limit+5 {
		reasons := []string{fmt.Sprintf("Wind %.1f mph above limit %.1f", w, limit)}
		rc.add(RiskHighWind, SeverityMajor, reasons)
		return &MeasureJudgment{
			Status:                 StatusAvoid,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityMajor,
			Reasons:                reasons,
		}
	}
	if w > limit {
		reasons := []string{fmt.Sprintf("Wind %.1f mph exceeds preferred %.1f", w, limit)}
		rc.add(RiskHighWind, SeverityModerate, reasons)
		return &MeasureJudgment{
			Status:                 StatusCaution,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityModerate,
			Reasons:                reasons,
		}
	}
	if w > limit*0.8 {
		return &MeasureJudgment{
			Status:                 StatusAcceptable,
			DistanceFromPreference: floatPtr(distance),
			Reasons:                []string{fmt.Sprintf("Wind %.1f mph near limit %.1f", w, limit)},
		}
	}
	return &MeasureJudgment{
		Status:                 StatusIdeal,
		DistanceFromPreference: floatPtr(distance),
		Reasons:                []string{fmt.Sprintf("Wind %.1f mph within preference", w)},
	}
}

// judgeGusts evaluates wind gusts against the same limit as sustained wind,
// with wider tolerances before caution and avoid.
func judgeGusts(gustMPH *float64, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if gustMPH == nil {
		return unknownJudgment()
	}

	limit := defaultMaxWindMPH
	if prefs.MaxWindMPH != nil {
		limit = *prefs.MaxWindMPH
	}
	g := *gustMPH
	distance := g - limit

	if g > limit+15 {
		reasons := []string{fmt.Sprintf("Gusts %.1f mph well above limit %.1f", g, limit)}
		rc.add(RiskGustyWind, SeverityMajor, reasons)
		return &MeasureJudgment{
			Status:                 StatusAvoid,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityMajor,
			Reasons:                reasons,
		}
	}
	if g > limit+5 {
		reasons := []string{fmt.Sprintf("Gusts %.1f mph above preferred wind", g)}
		rc.add(RiskGustyWind, SeverityModerate, reasons)
		return &MeasureJudgment{
			Status:                 StatusCaution,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityModerate,
			Reasons:                reasons,
		}
	}
	if g > limit {
		return &MeasureJudgment{
			Status:                 StatusAcceptable,
			DistanceFromPreference: floatPtr(distance),
			Reasons:                []string{fmt.Sprintf("Gusts %.1f mph slightly above preferred wind", g)},
		}
	}
	return &MeasureJudgment{
		Status:                 StatusIdeal,
		DistanceFromPreference: floatPtr(distance),
		Reasons:                []string{fmt.Sprintf("Gusts %.1f mph within preference", g)},
	}
}

// judgeAQI evaluates the US AQI. AQI at or above 151 (unhealthy) is an avoid
// regardless of the rider's avoid-poor-AQI setting.
func judgeAQI(aqi *float64, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if aqi == nil {
		return unknownJudgment()
	}

	limit := defaultMaxAQI
	if prefs.MaxAQI != nil {
		limit = float64(*prefs.MaxAQI)
	}
	avoidPoor := prefs.AvoidPoorAQI == nil || *prefs.AvoidPoorAQI
	a := *aqi
	distance := a - limit

	if a >= 151 {
		reasons := []string{fmt.Sprintf("AQI %.0f unhealthy", a)}
		rc.add(RiskPoorAirQuality, SeverityMajor, reasons)
		return &MeasureJudgment{
			Status:                 StatusAvoid,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityMajor,
			Reasons:                reasons,
		}
	}
	if avoidPoor && a > limit {
		reasons := []string{fmt.Sprintf("AQI %.0f exceeds preferred max %.0f", a, limit)}
		rc.add(RiskPoorAirQuality, SeverityModerate, reasons)
		return &MeasureJudgment{
			Status:                 StatusCaution,
			DistanceFromPreference: floatPtr(distance),
			Severity:               SeverityModerate,
			Reasons:                reasons,
		}
	}
	if a <= 50 {
		return &MeasureJudgment{
			Status:                 StatusIdeal,
			DistanceFromPreference: floatPtr(distance),
			Reasons:                []string{fmt.Sprintf("AQI %.0f good", a)},
		}
	}
	return &MeasureJudgment{
		Status:                 StatusAcceptable,
		DistanceFromPreference: floatPtr(distance),
		Reasons:                []string{fmt.Sprintf("AQI %.0f within preferred range", a)},
	}
}

// judgePrecip evaluates precipitation probability. Distance is the raw
// probability: lower is always better.
func judgePrecip(prob *float64, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if prob == nil {
		return unknownJudgment()
	}

	avoidPrecip := prefs.AvoidPrecip == nil || *prefs.AvoidPrecip
	p := *prob

	if avoidPrecip {
		if p >= 70 {
			reasons := []string{fmt.Sprintf("Precipitation probability %.0f%% high", p)}
			rc.add(RiskPrecipitation, SeverityModerate, reasons)
			return &MeasureJudgment{
				Status:                 StatusAvoid,
				DistanceFromPreference: floatPtr(p),
				Severity:               SeverityModerate,
				Reasons:                reasons,
			}
		}
		if p >= 50 {
			reasons := []string{fmt.Sprintf("Precipitation probability %.0f%% elevated", p)}
			rc.add(RiskPrecipitation, SeverityMinor, reasons)
			return &MeasureJudgment{
				Status:                 StatusCaution,
				DistanceFromPreference: floatPtr(p),
				Severity:               SeverityMinor,
				Reasons:                reasons,
			}
		}
	}

	if p >= 80 {
		reasons := []string{fmt.Sprintf("Precipitation probability %.0f%% may impact ride", p)}
		rc.add(RiskPrecipitation, SeverityMinor, reasons)
		return &MeasureJudgment{
			Status:                 StatusCaution,
			DistanceFromPreference: floatPtr(p),
			Severity:               SeverityMinor,
			Reasons:                reasons,
		}
	}
	if p >= 20 {
		return &MeasureJudgment{
			Status:                 StatusAcceptable,
			DistanceFromPreference: floatPtr(p),
			Reasons:                []string{fmt.Sprintf("Precipitation probability %.0f%% low", p)},
		}
	}
	return &MeasureJudgment{
		Status:                 StatusIdeal,
		DistanceFromPreference: floatPtr(p),
		Reasons:                []string{"Precipitation probability minimal"},
	}
}

// judgeDaylight only applies when the rider prefers daylight riding.
func judgeDaylight(isDay *bool, prefs RiderPreferences, rc *riskCollector) *MeasureJudgment {
	if prefs.PreferDaylight == nil || !*prefs.PreferDaylight {
		return &MeasureJudgment{Status: StatusIdeal, Reasons: []string{}}
	}
	if isDay == nil {
		return unknownJudgment()
	}
	if !*isDay {
		reasons := []string{"Riding in darkness"}
		rc.add(RiskDarkness, SeverityMinor, reasons)
		return &MeasureJudgment{Status: StatusCaution, Severity: SeverityMinor, Reasons: reasons}
	}
	return &MeasureJudgment{Status: StatusIdeal, Reasons: []string{"Daylight ride"}}
}
