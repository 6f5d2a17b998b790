package prompt

import (
	"regexp"
	"sort"
)

// InjectionType represents different kinds of prompt injection attempts
type InjectionType string

const (
	InjectionTypeSystemPromptLeak    InjectionType = "system_prompt_leak"
	InjectionTypeRoleManipulation    InjectionType = "role_manipulation"
	InjectionTypeInstructionOverride InjectionType = "instruction_override"
	InjectionTypeJailbreak           InjectionType = "jailbreak"
	InjectionTypeDelimiterAttack     InjectionType = "delimiter_attack"
)

// injectionThreshold is the minimum confidence that refuses a query
const injectionThreshold = 0.8

// InjectionDetection represents a detected injection attempt
type InjectionDetection struct {
	Type       InjectionType
	Pattern    string
	Confidence float64
	StartPos   int
	EndPos     int
}

type injectionCategory struct {
	kind       InjectionType
	confidence float64
	patterns   []*regexp.Regexp
}

// Queries reach the model verbatim inside the assembled prompt, so anything
// that tries to rewrite the assistant's instructions is refused up front.
var injectionCategories = []injectionCategory{
	{
		kind:       InjectionTypeSystemPromptLeak,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|all|above|prior)\s+(instructions?|prompts?|commands?)`),
			regexp.MustCompile(`(?i)(show|reveal|print|repeat)\s+(me\s+)?(your|the)\s+(system|original|initial|hidden)\s+(prompt|instructions?)`),
			regexp.MustCompile(`(?i)what\s+(is|are|was|were)\s+(your|the)\s+(system|original|initial)\s+(prompt|instructions?)`),
		},
	},
	{
		kind:       InjectionTypeRoleManipulation,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)assume\s+(the\s+)?(role|identity)\s+of`),
			regexp.MustCompile(`(?i)pretend\s+(to\s+)?be\s+(a|an)\b`),
			regexp.MustCompile(`(?i)from\s+now\s+on[,]?\s+(you|your)\s+(are|will)`),
			regexp.MustCompile(`(?i)new\s+(instructions?|personality)`),
		},
	},
	{
		kind:       InjectionTypeInstructionOverride,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|commands?)`),
			regexp.MustCompile(`(?i)override\s+(all|previous|system)\s+(instructions?|rules|settings?)`),
			regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous|what\s+you\s+learned)`),
		},
	},
	{
		kind:       InjectionTypeJailbreak,
		confidence: 0.95,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDAN\s+mode`),
			regexp.MustCompile(`(?i)developer\s+mode`),
			regexp.MustCompile(`(?i)jailbreak`),
			regexp.MustCompile(`(?i)without\s+(any|ethical|moral)\s+(restrictions?|limitations?|guidelines?)`),
		},
	},
	{
		kind:       InjectionTypeDelimiterAttack,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\[SYSTEM\]|\[/SYSTEM\]|\[ASSISTANT\]|\[/ASSISTANT\])`),
			regexp.MustCompile(`(?i)(<\|system\|>|<\|assistant\|>|<\|end\|>)`),
			regexp.MustCompile(`(?i)(###\s*(SYSTEM|ASSISTANT|INSTRUCTIONS?))`),
			regexp.MustCompile(`={8,}\s*\n?\s*(?i:instructions)`),
		},
	},
}

// DetectInjections returns every injection pattern found in text, ordered by position
func DetectInjections(text string) []InjectionDetection {
	var detections []InjectionDetection
	for _, cat := range injectionCategories {
		for _, pattern := range cat.patterns {
			for _, match := range pattern.FindAllStringIndex(text, -1) {
				detections = append(detections, InjectionDetection{
					Type:       cat.kind,
					Pattern:    pattern.String(),
					Confidence: cat.confidence,
					StartPos:   match[0],
					EndPos:     match[1],
				})
			}
		}
	}
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})
	return detections
}

// IsInjectionAttempt returns true if a high-confidence injection is detected
func IsInjectionAttempt(text string) bool {
	for _, d := range DetectInjections(text) {
		if d.Confidence >= injectionThreshold {
			return true
		}
	}
	return false
}
