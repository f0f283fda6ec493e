package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tier is one layer of rule documentation stacked over the embedded catalog.
type tier struct {
	name string
	dir  string
}

// LoadRules returns the embedded catalog overlaid with the entries found in
// userDir and then projectDir, sorted by ID. An overlay entry replaces the
// entry with the same ID, inheriting its category when it names none. New
// entries without a source are Custom.
func LoadRules(userDir, projectDir string) ([]Rule, error) {
	defaults, err := DefaultRules()
	if err != nil {
		return nil, fmt.Errorf("loading default rules: %w", err)
	}
	merged := Index(defaults)

	for _, t := range []tier{{"user", userDir}, {"project", projectDir}} {
		overlay, err := loadTier(t)
		if err != nil {
			return nil, err
		}
		for _, r := range overlay {
			merged[r.ID] = overlayRule(merged[r.ID], r)
		}
	}

	result := make([]Rule, 0, len(merged))
	for _, r := range merged {
		result = append(result, r)
	}
	sortByID(result)
	return result, nil
}

func overlayRule(base, r Rule) Rule {
	if r.Category == "" {
		r.Category = base.Category
	}
	if r.Source == "" {
		r.Source = base.Source
	}
	if r.Source == "" {
		r.Source = SourceCustom
	}
	return r
}

// loadTier reads every .yaml or .yml file of a tier directory. A missing
// directory is an empty tier; an ID defined in two files of the same tier is
// an error.
func loadTier(t tier) ([]Rule, error) {
	if t.dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s rules from %s: %w", t.name, t.dir, err)
	}

	definedIn := make(map[string]string)
	var out []Rule
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml":
		default:
			continue
		}

		data, err := os.ReadFile(filepath.Join(t.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s rules %s: %w", t.name, name, err)
		}
		rf, err := ParseRuleFile(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s rules %s: %w", t.name, name, err)
		}
		for _, r := range rf.Rules {
			if prev, ok := definedIn[r.ID]; ok {
				return nil, fmt.Errorf("%s rules: %q is defined in both %s and %s", t.name, r.ID, prev, name)
			}
			definedIn[r.ID] = name
			out = append(out, r)
		}
	}
	return out, nil
}
