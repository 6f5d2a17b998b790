package router

import (
	"regexp"
	"strings"

	"github.com/upb/clearpath-assistant/models"
)

var (
	greetingTokens = []string{
		"hello",
		"hi",
		"hey",
		"good morning",
		"good evening",
		"good afternoon",
	}

	complexKeywords = regexp.MustCompile(`(?i)error|issue|failed|problem|not working|can't|unable|why|explain|steps|troubleshoot|migrate|setup|permissions|workflow`)
	simpleKeywords  = regexp.MustCompile(`(?i)price|pricing|cost|what is|how many|does clearpath|invite|export|secure|offline`)
)

const (
	multiIntentMinWords = 6
	longQueryMinWords   = 12
)

// Classify maps a query to an intent bucket. Rules are checked in order and
// the first match wins.
func Classify(query string) models.Classification {
	q := strings.ToLower(strings.TrimSpace(query))
	wordCount := len(strings.Fields(q))

	if startsWithGreeting(q) {
		return models.ClassificationGreeting
	}

	// multi-intent
	if strings.Contains(q, " and ") && wordCount > multiIntentMinWords {
		return models.ClassificationComplex
	}

	if complexKeywords.MatchString(q) {
		return models.ClassificationComplex
	}

	if wordCount > longQueryMinWords {
		return models.ClassificationComplex
	}

	// Same outcome as the fallthrough below. Kept so the keyword list stays
	// the single place that documents what a simple lookup looks like.
	if simpleKeywords.MatchString(q) {
		return models.ClassificationSimple
	}

	return models.ClassificationSimple
}

// startsWithGreeting is a plain prefix test, so "history" counts as "hi".
func startsWithGreeting(q string) bool {
	for _, g := range greetingTokens {
		if strings.HasPrefix(q, g) {
			return true
		}
	}
	return false
}
