// Package eval replays a fixed question set through the answer pipeline
// and reports which responses contain the expected text.
package eval

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cases.yaml
var defaultCasesYAML []byte

// Case is one evaluation question with its expectations. Matching is
// case-insensitive substring search on the final response.
type Case struct {
	Name           string   `yaml:"name"`
	Query          string   `yaml:"query"`
	MustInclude    []string `yaml:"must_include"`
	MustNotInclude []string `yaml:"must_not_include,omitempty"`
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// Passes reports whether any MustInclude term appears, or MustNotInclude
// is set and none of its terms appear
func (c Case) Passes(response string) bool {
	text := strings.ToLower(response)

	if containsAny(text, c.MustInclude) {
		return true
	}
	return len(c.MustNotInclude) > 0 && !containsAny(text, c.MustNotInclude)
}

// DefaultCases returns the built-in case set
func DefaultCases() []Case {
	cases, err := ParseCases(defaultCasesYAML)
	if err != nil {
		panic(fmt.Sprintf("eval: invalid built-in cases: %v", err))
	}
	return cases
}

// LoadCases reads a YAML case file. An empty path returns DefaultCases.
func LoadCases(path string) ([]Case, error) {
	if path == "" {
		return DefaultCases(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval cases: %w", err)
	}
	return ParseCases(data)
}

// ParseCases decodes and validates a YAML case document
func ParseCases(data []byte) ([]Case, error) {
	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse eval cases: %w", err)
	}

	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("eval case file contains no cases")
	}
	for i, c := range file.Cases {
		if strings.TrimSpace(c.Query) == "" {
			return nil, fmt.Errorf("eval case %d (%q) has no query", i, c.Name)
		}
		if len(c.MustInclude) == 0 && len(c.MustNotInclude) == 0 {
			return nil, fmt.Errorf("eval case %d (%q) has no expectations", i, c.Name)
		}
		if c.Name == "" {
			file.Cases[i].Name = fmt.Sprintf("case %d", i+1)
		}
	}

	return file.Cases, nil
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
