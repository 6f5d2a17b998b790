package prompt

import (
	"regexp"
	"strings"
)

// Guardrail names
const (
	GuardrailCode            = "code"
	GuardrailSync            = "sync"
	GuardrailCrypto          = "crypto"
	GuardrailOffDomain       = "off_domain"
	GuardrailPromptInjection = "prompt_injection"
)

var codePattern = regexp.MustCompile(`function|code|javascript|api|login\(`)

// Guardrail is a fixed-response short-circuit for a known out-of-scope
// query category. Match receives the lowercased raw query.
type Guardrail struct {
	Name     string
	Match    func(query string) bool
	Response string
}

// DefaultGuardrails returns the refusal rules in evaluation order. Order is
// product policy: the first matching rule decides the response text.
func DefaultGuardrails() []Guardrail {
	return []Guardrail{
		{
			Name:     GuardrailCode,
			Match:    codePattern.MatchString,
			Response: RefusalText,
		},
		{
			Name:     GuardrailSync,
			Match:    containsAny("sync"),
			Response: SyncRefusalText,
		},
		{
			Name:     GuardrailCrypto,
			Match:    containsAny("crypto", "cryptocurrency"),
			Response: RefusalText,
		},
		{
			Name:     GuardrailOffDomain,
			Match:    containsAny("mars", "space mission", "quantum", "ai engine"),
			Response: RefusalText,
		},
		{
			Name:     GuardrailPromptInjection,
			Match:    IsInjectionAttempt,
			Response: RefusalText,
		},
	}
}

// Guardrails evaluates an ordered rule table against raw queries
type Guardrails struct {
	rules []Guardrail
}

// NewGuardrails creates a rule table. A nil slice uses DefaultGuardrails.
func NewGuardrails(rules []Guardrail) *Guardrails {
	if rules == nil {
		rules = DefaultGuardrails()
	}
	return &Guardrails{rules: rules}
}

// Check returns the first rule matching the query
func (g *Guardrails) Check(query string) (Guardrail, bool) {
	q := strings.ToLower(query)
	for _, rule := range g.rules {
		if rule.Match(q) {
			return rule, true
		}
	}
	return Guardrail{}, false
}

// Names returns the rule names in evaluation order
func (g *Guardrails) Names() []string {
	names := make([]string, len(g.rules))
	for i, rule := range g.rules {
		names[i] = rule.Name
	}
	return names
}

func containsAny(terms ...string) func(string) bool {
	return func(q string) bool {
		for _, term := range terms {
			if strings.Contains(q, term) {
				return true
			}
		}
		return false
	}
}
