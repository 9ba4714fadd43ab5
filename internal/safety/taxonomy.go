package safety

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the data half of the safety filter: harmful-intent patterns
// checked locally and the moderation categories that reject content when
// flagged. It lives in a YAML file so the lists can be updated without
// touching control flow.
type Taxonomy struct {
	HarmfulPatterns      []string `yaml:"harmful_patterns"`
	DisallowedCategories []string `yaml:"disallowed_categories"`
}

// DefaultTaxonomy returns the built-in rule set, used when no taxonomy file
// is configured or the file cannot be read.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		HarmfulPatterns: []string{
			`(?i)how to (?:commit|perform|carry out) (?:illegal|crime|criminal)`,
			`(?i)how to (?:hack|break into|steal|cheat)`,
			`(?i)how to (?:harm|hurt|kill|attack)`,
			`(?i)how to (?:bypass|circumvent) (?:security|safety|protection)`,
			`(?i)ignore (?:previous|above) instructions`,
			`(?i)disregard (?:previous|above) instructions`,
			`(?i)output (?:confidential|secret|private) (?:data|information)`,
			`(?i)bypass (?:safety|security|moderation) (?:measures|checks)`,
			`(?i)generate (?:malicious|harmful|dangerous) (?:code|content)`,
			`(?i)create (?:malware|virus|exploit)`,
		},
		DisallowedCategories: []string{
			"hate", "hate/threatening",
			"harassment", "harassment/threatening",
			"self-harm", "self-harm/intent", "self-harm/instructions",
			"sexual", "sexual/minors",
			"violence", "violence/graphic",
			"illegal_activities", "harmful_instructions",
		},
	}
}

// LoadTaxonomy reads and validates a taxonomy file.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.HarmfulPatterns) == 0 && len(t.DisallowedCategories) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy %s defines no rules", path)
	}
	return t, nil
}

// ruleset is a compiled taxonomy, swapped atomically on reload.
type ruleset struct {
	patterns   []*regexp.Regexp
	categories map[string]bool
}

func compile(t Taxonomy) (*ruleset, error) {
	rs := &ruleset{categories: make(map[string]bool, len(t.DisallowedCategories))}
	for _, p := range t.HarmfulPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		rs.patterns = append(rs.patterns, re)
	}
	for _, c := range t.DisallowedCategories {
		rs.categories[c] = true
	}
	return rs, nil
}
