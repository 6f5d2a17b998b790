package rag

import (
	"regexp"
	"strings"

	"github.com/upb/clearpath-assistant/models"
)

var (
	// Internal-only topics the corpus should never surface for general queries
	noisePattern = regexp.MustCompile(`(?i)creator role|api access|advanced reports|employee handbook`)

	roleVocabularyPattern      = regexp.MustCompile(`(?i)workflow|roles|admin|member|viewer`)
	sensitiveVocabularyPattern = regexp.MustCompile(`(?i)password|mfa|confidential|termination|security policy|data classification`)
)

const migrationPassageLimit = 3

// ShapeRule narrows or filters retrieved passages for a query.
// Query is already lowercased. Rules must not modify the input slice.
type ShapeRule struct {
	Name  string
	Apply func(query string, chunks []models.Passage) []models.Passage
}

// DefaultShapeRules returns the shaping rules in the order they are applied
func DefaultShapeRules() []ShapeRule {
	return []ShapeRule{
		{Name: "noise_filter", Apply: dropNoise},
		{Name: "migration_narrowing", Apply: narrowMigration},
		{Name: "workflow_narrowing", Apply: narrowWorkflow},
		{Name: "pricing_priority", Apply: prioritizePricing},
	}
}

// Shaper applies shaping rules to retrieved passages
type Shaper struct {
	rules []ShapeRule
}

// NewShaper creates a Shaper. A nil rule set uses DefaultShapeRules.
func NewShaper(rules []ShapeRule) *Shaper {
	if rules == nil {
		rules = DefaultShapeRules()
	}
	return &Shaper{rules: rules}
}

// Shape applies every rule in sequence. Each rule sees the output of the previous one.
func (s *Shaper) Shape(query string, chunks []models.Passage) []models.Passage {
	q := strings.ToLower(query)
	out := append([]models.Passage(nil), chunks...)
	for _, rule := range s.rules {
		out = rule.Apply(q, out)
	}
	if out == nil {
		out = []models.Passage{}
	}
	return out
}

// ShapeContext applies DefaultShapeRules
func ShapeContext(query string, chunks []models.Passage) []models.Passage {
	return NewShaper(nil).Shape(query, chunks)
}

func dropNoise(_ string, chunks []models.Passage) []models.Passage {
	return filterPassages(chunks, func(p models.Passage) bool {
		return !noisePattern.MatchString(p.Text)
	})
}

func narrowMigration(query string, chunks []models.Passage) []models.Passage {
	if !strings.Contains(query, "migrate") || len(chunks) <= migrationPassageLimit {
		return chunks
	}
	return chunks[:migrationPassageLimit]
}

func narrowWorkflow(query string, chunks []models.Passage) []models.Passage {
	if !strings.Contains(query, "workflow") && !strings.Contains(query, "permissions") {
		return chunks
	}
	return filterPassages(chunks, func(p models.Passage) bool {
		return roleVocabularyPattern.MatchString(p.Text) && !sensitiveVocabularyPattern.MatchString(p.Text)
	})
}

// prioritizePricing never narrows to an empty set
func prioritizePricing(query string, chunks []models.Passage) []models.Passage {
	if !strings.Contains(query, "pricing") && !strings.Contains(query, "price") && !strings.Contains(query, "cost") {
		return chunks
	}
	pricing := filterPassages(chunks, func(p models.Passage) bool {
		return strings.Contains(strings.ToLower(p.Source), "pricing")
	})
	if len(pricing) == 0 {
		return chunks
	}
	return pricing
}

func filterPassages(chunks []models.Passage, keep func(models.Passage) bool) []models.Passage {
	out := make([]models.Passage, 0, len(chunks))
	for _, p := range chunks {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
