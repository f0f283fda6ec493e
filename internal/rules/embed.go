package rules

import _ "embed"

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the built-in catalog, sorted by ID.
func DefaultRules() ([]Rule, error) {
	rf, err := ParseRuleFile(defaultRulesYAML)
	if err != nil {
		return nil, err
	}
	sortByID(rf.Rules)
	return rf.Rules, nil
}
