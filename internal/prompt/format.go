package prompt

import (
	"regexp"
	"strings"
)

var (
	weakRefusalPattern = regexp.MustCompile(`(?i)i don't know|not sure|cannot help|unsure`)

	repeatedSpace  = regexp.MustCompile(`\s{2,}`)
	starBullet     = regexp.MustCompile(`\n\s*\*`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// IsWeakRefusal reports whether a completion is empty or hedges instead of answering
func IsWeakRefusal(response string) bool {
	return strings.TrimSpace(response) == "" || weakRefusalPattern.MatchString(response)
}

// Normalize replaces weak refusals with the canonical refusal text
func Normalize(response string) string {
	if IsWeakRefusal(response) {
		return RefusalText
	}
	return response
}

// Clean collapses repeated whitespace, converts star bullets and trims.
// Runs of whitespace including line breaks collapse to a single space.
func Clean(response string) string {
	out := repeatedSpace.ReplaceAllString(response, " ")
	out = starBullet.ReplaceAllString(out, "\n• ")
	out = excessNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
