package narration

import (
	"fmt"
	"strings"
	"time"

	"github.com/ridecast/ridecast/internal/assessment"
)

const systemPrompt = `You are a friendly, safety-first ride coach. All scoring, risks, and windows are precomputed.
Never recompute numbers, categories, or decisions. Use the provided values.
If conditions are poor or no good windows exist, clearly say so and suggest an indoor ride as an alternative.

Respond as short conversational text/markdown (sentences or a few bullets). No JSON. Keep it helpful and specific:
- Never return key/value objects or wrap the reply in braces.
- Mention the suitability score and decision briefly.
- Call out primary limiters (codes/severity) in plain language.
- Point to the best window(s) with times/scores.
- If asked for safety now, explicitly say if it's safe and why.
- Avoid vague filler and banned phrases: "overall", "in summary". Keep it concise.`

// BuildMessages renders the system and user prompts for a narration request.
// Only precomputed values from the payload are quoted; the question is
// appended verbatim.
func BuildMessages(payload *assessment.Payload, question string, maxSampleHours int) (system, user string) {
	var lines []string
	lines = append(lines, "Precomputed ride assessment follows. Do not recompute numbers or decisions.")

	if payload != nil && payload.Summary != nil {
		s := payload.Summary
		lines = append(lines, fmt.Sprintf("Overall decision: %s", s.OverallDecision))
		lines = append(lines, fmt.Sprintf("Suitability score: %s", formatScore(s.SuitabilityScore)))
		if len(s.PrimaryLimiters) > 0 {
			badges := make([]string, 0, len(s.PrimaryLimiters))
			for _, l := range s.PrimaryLimiters {
				badges = append(badges, fmt.Sprintf("%s:%s", l.Code, l.Severity))
			}
			lines = append(lines, "Primary limiters: "+strings.Join(badges, ", "))
		}
		if len(s.BestWindows) > 0 {
			lines = append(lines, "Best windows:")
			for _, w := range s.BestWindows {
				lines = append(lines, fmt.Sprintf("- %s to %s (%s) score=%s",
					w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), w.Decision, formatScore(w.WindowScore)))
			}
		}
	}

	if payload != nil && len(payload.Hourly) > 0 {
		hours := payload.Hourly
		if maxSampleHours > 0 && len(hours) > maxSampleHours {
			hours = hours[:maxSampleHours]
		}
		lines = append(lines, "Hourly samples:")
		for _, h := range hours {
			if h == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s decision=%s score=%s",
				h.Time.Format(time.RFC3339), h.Decision, formatScore(h.HourScore)))
		}
	}

	lines = append(lines, "Answer the user's question in conversational text/markdown using this assessment.")
	if question != "" {
		lines = append(lines, "User question: "+question)
	}

	return systemPrompt, strings.Join(lines, "\n")
}

func formatScore(s *float64) string {
	if s == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.1f", *s)
}
