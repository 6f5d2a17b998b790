// Package evaluator scores synthesized answers for missing grounding,
// refusals and likely hallucination.
//
// The hallucination check is a lexical heuristic: it counts long response
// words that never appear in the retrieved context. It has known false
// positives (paraphrase, inflection) and false negatives (fabrications built
// from context vocabulary) and is not a semantic verification.
package evaluator

import (
	"regexp"
	"strings"

	"github.com/upb/clearpath-assistant/models"
)

const (
	// DefaultNoContextFloor is the top score below which grounding is considered absent
	DefaultNoContextFloor = 0.30

	// DefaultSuspiciousWordLength is the length a word must exceed to be considered
	DefaultSuspiciousWordLength = 6

	// DefaultSuspiciousWordLimit is the count of suspicious words that must be exceeded
	DefaultSuspiciousWordLimit = 5
)

var (
	refusalPattern = regexp.MustCompile(`(?i)i don't know|cannot help|not available|contact support|unsure`)
	wordSplit      = regexp.MustCompile(`\W+`)

	defaultAllowList = []string{"clearpath", "project", "task", "team"}
)

// Result is the outcome of evaluating a response
type Result struct {
	Flagged bool
	Reasons models.Reasons
}

// Evaluator scores a response against the passages it was grounded on
type Evaluator interface {
	Evaluate(response string, chunks []models.Passage) Result
}

// Config tunes the lexical evaluator
type Config struct {
	NoContextFloor       float64
	SuspiciousWordLength int
	SuspiciousWordLimit  int
	AllowList            []string
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		NoContextFloor:       DefaultNoContextFloor,
		SuspiciousWordLength: DefaultSuspiciousWordLength,
		SuspiciousWordLimit:  DefaultSuspiciousWordLimit,
		AllowList:            defaultAllowList,
	}
}

// Lexical is the default Evaluator
type Lexical struct {
	cfg   Config
	allow map[string]struct{}
}

// New creates a lexical evaluator
func New(cfg Config) *Lexical {
	allow := make(map[string]struct{}, len(cfg.AllowList))
	for _, w := range cfg.AllowList {
		allow[strings.ToLower(w)] = struct{}{}
	}
	return &Lexical{cfg: cfg, allow: allow}
}

// NewDefault creates a lexical evaluator with DefaultConfig
func NewDefault() *Lexical {
	return New(DefaultConfig())
}

// Evaluate runs the three checks independently and ORs them into Flagged
func (e *Lexical) Evaluate(response string, chunks []models.Passage) Result {
	reasons := models.Reasons{
		NoContext:     e.NoContext(chunks),
		Refusal:       IsRefusal(response),
		Hallucination: e.Hallucination(response, chunks),
	}
	return Result{
		Flagged: reasons.NoContext || reasons.Refusal || reasons.Hallucination,
		Reasons: reasons,
	}
}

// NoContext is true with no chunks or when the first chunk scores below the floor.
// Chunks are expected in descending score order.
func (e *Lexical) NoContext(chunks []models.Passage) bool {
	if len(chunks) == 0 {
		return true
	}
	return chunks[0].Score < e.cfg.NoContextFloor
}

// IsRefusal reports whether the response declines to answer
func IsRefusal(response string) bool {
	return refusalPattern.MatchString(response)
}

// Hallucination counts long response words absent from the context
func (e *Lexical) Hallucination(response string, chunks []models.Passage) bool {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = strings.ToLower(c.Text)
	}
	context := strings.Join(texts, " ")

	suspicious := 0
	for _, word := range wordSplit.Split(strings.ToLower(response), -1) {
		if len(word) <= e.cfg.SuspiciousWordLength {
			continue
		}
		if strings.Contains(context, word) {
			continue
		}
		if _, ok := e.allow[word]; ok {
			continue
		}
		suspicious++
	}
	return suspicious > e.cfg.SuspiciousWordLimit
}
