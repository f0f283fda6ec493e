package rules

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

type RuleCategory string

const (
	CategoryReliability     RuleCategory = "reliability"
	CategoryMaintainability RuleCategory = "maintainability"
	CategoryTests           RuleCategory = "tests"
)

type RuleSource string

const (
	SourceSonarQube RuleSource = "SonarQube"
	SourceCustom    RuleSource = "Custom"
)

// Rule is the catalog entry describing a rule: what it detects and how to fix
// it. The detection logic itself lives in the astcheck package under the
// same ID.
type Rule struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Category    RuleCategory `yaml:"category"`
	Languages   []string     `yaml:"languages,omitempty"`
	Level       string       `yaml:"level"`
	Message     string       `yaml:"message"`
	Explanation string       `yaml:"explanation,omitempty"`
	Remediation string       `yaml:"remediation,omitempty"`
	Source      RuleSource   `yaml:"source,omitempty"`
	Tags        []string     `yaml:"tags,omitempty"`
	CWE         []string     `yaml:"cwe,omitempty"`
	References  []string     `yaml:"references,omitempty"`
}

type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

var levels = map[string]bool{"error": true, "warning": true, "note": true}

func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	seen := make(map[string]bool)
	for i := range rf.Rules {
		r := &rf.Rules[i]
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %q (index %d): %w", r.ID, i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
	}

	return &rf, nil
}

func validateRule(r *Rule) error {
	if r.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if r.Name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if r.Level == "" {
		return fmt.Errorf("missing required field: level")
	}
	if !levels[r.Level] {
		return fmt.Errorf("level must be one of error, warning, note; got %q", r.Level)
	}
	if r.Message == "" {
		return fmt.Errorf("missing required field: message")
	}
	return nil
}

// ByCategory keeps the rules of one category, preserving order.
func ByCategory(rules []Rule, category RuleCategory) []Rule {
	var filtered []Rule
	for _, r := range rules {
		if r.Category == category {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Index returns the rules keyed by ID.
func Index(rules []Rule) map[string]Rule {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.ID] = r
	}
	return m
}

func sortByID(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
}
