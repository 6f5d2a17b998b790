package prompt

import (
	"regexp"
	"sort"
	"strings"
)

// PIIType names a category of personal data found in free text
type PIIType string

const (
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeSSN        PIIType = "ssn"
	PIITypeCreditCard PIIType = "credit_card"
	PIITypeIPAddress  PIIType = "ip_address"
)

// PIIMatch is one detected span, byte offsets into the input
type PIIMatch struct {
	Type  PIIType
	Start int
	End   int
}

type piiPattern struct {
	kind  PIIType
	re    *regexp.Regexp
	check func(string) bool
}

// Order matters: earlier patterns win overlapping spans.
var piiPatterns = []piiPattern{
	{kind: PIITypeEmail, re: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{kind: PIITypeCreditCard, re: regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`), check: luhnValid},
	{kind: PIITypeSSN, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{kind: PIITypePhone, re: regexp.MustCompile(`(?:\+?1[-. ]?)?\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)},
	{kind: PIITypeIPAddress, re: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)},
}

// FindPII returns non-overlapping matches ordered by position.
func FindPII(text string) []PIIMatch {
	var matches []PIIMatch
	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if p.check != nil && !p.check(text[loc[0]:loc[1]]) {
				continue
			}
			if overlaps(matches, loc[0], loc[1]) {
				continue
			}
			matches = append(matches, PIIMatch{Type: p.kind, Start: loc[0], End: loc[1]})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// RedactPII replaces every detected span with a typed placeholder such as
// [EMAIL_REDACTED].
func RedactPII(text string) string {
	matches := FindPII(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString("[" + strings.ToUpper(string(m.Type)) + "_REDACTED]")
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func overlaps(matches []PIIMatch, start, end int) bool {
	for _, m := range matches {
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}

func luhnValid(number string) bool {
	sum := 0
	digits := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c == ' ' || c == '-' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		digits++
		double = !double
	}
	return digits >= 13 && sum%10 == 0
}
