package narration

import (
	"fmt"
	"strings"
)

// StripMarkdownFences removes a surrounding code fence the model added
// despite instructions, so the client can render the reply directly.
func StripMarkdownFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	lines := strings.Split(t, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Validate strips fences and rejects replies that contain a banned phrase.
// The banned list guards against the model padding replies with filler
// instead of the assessment at hand.
func Validate(raw string, banned []string) (string, error) {
	text := StripMarkdownFences(raw)
	lower := strings.ToLower(text)
	for _, phrase := range banned {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return "", fmt.Errorf("banned phrasing detected: %q", phrase)
		}
	}
	return text, nil
}
