package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/ridecast/ridecast/internal/assessment"
)

// formatSummaryMarkdown renders an assessment summary as short markdown for
// the chat bubble.
func formatSummaryMarkdown(summary *assessment.AssessmentSummary) string {
	if summary == nil {
		return ""
	}

	lines := []string{
		"**Ride decision:** " + titleLabel(string(summary.OverallDecision)),
		"**Suitability score:** " + scoreLabel(summary.SuitabilityScore),
	}
	if len(summary.PrimaryLimiters) > 0 {
		limiters := make([]string, 0, len(summary.PrimaryLimiters))
		for _, lim := range summary.PrimaryLimiters {
			limiters = append(limiters, fmt.Sprintf("%s (%s)", titleLabel(string(lim.Code)), titleLabel(string(lim.Severity))))
		}
		lines = append(lines, "**Risks:** "+strings.Join(limiters, ", "))
	}
	if len(summary.BestWindows) > 0 {
		best := summary.BestWindows[0]
		lines = append(lines, fmt.Sprintf("**Best window:** %s to %s (score %s)",
			best.Start.Format(time.RFC3339), best.End.Format(time.RFC3339), scoreLabel(best.WindowScore)))
	}
	return strings.Join(lines, "\n")
}

// titleLabel turns an enum value like "go_with_caution" into "Go With Caution".
func titleLabel(value string) string {
	words := strings.Split(strings.ReplaceAll(value, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func scoreLabel(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *score)
}
