package sarif

import (
	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/rules"
)

const defaultLevel = "warning"

// Severities maps a rule key to the SARIF level it reports at. "none"
// suppresses the rule's results.
type Severities map[string]string

// FromIssues converts issues into SARIF results. The level of each result is
// taken from severities, then from the catalog entry, then defaults to
// warning. Secondary locations become relatedLocations numbered from 1.
func FromIssues(issues []report.Issue, catalog []rules.Rule, severities Severities) []Result {
	idx := rules.Index(catalog)
	results := make([]Result, 0, len(issues))
	for _, is := range issues {
		level := levelFor(is.RuleKey, idx, severities)
		if level == "none" {
			continue
		}
		r := Result{
			RuleID:    is.RuleKey,
			Level:     level,
			Message:   Message{Text: is.Message},
			Locations: []Location{location(is.Primary)},
		}
		for i, s := range is.Secondaries {
			loc := location(s.Location)
			loc.ID = i + 1
			if s.Message != "" {
				loc.Message = &Message{Text: s.Message}
			}
			r.RelatedLocations = append(r.RelatedLocations, loc)
		}
		if rule, ok := idx[is.RuleKey]; ok && rule.Category != "" {
			r.Properties = map[string]interface{}{"assay/category": string(rule.Category)}
		}
		r.PartialFingerprints = map[string]string{FingerprintKey: Fingerprint(r)}
		results = append(results, r)
	}
	return results
}

func levelFor(key string, idx map[string]rules.Rule, severities Severities) string {
	if lvl, ok := severities[key]; ok && lvl != "" {
		return lvl
	}
	if rule, ok := idx[key]; ok && rule.Level != "" {
		return rule.Level
	}
	return defaultLevel
}

func location(l report.Location) Location {
	return Location{
		PhysicalLocation: PhysicalLocation{
			ArtifactLocation: ArtifactLocation{URI: l.File},
			Region: Region{
				StartLine:   l.StartLine,
				StartColumn: l.StartColumn,
				EndLine:     l.EndLine,
				EndColumn:   l.EndColumn,
			},
		},
	}
}

// Descriptors turns catalog entries into driver rules.
func Descriptors(catalog []rules.Rule) []ReportingDescriptor {
	out := make([]ReportingDescriptor, 0, len(catalog))
	for _, r := range catalog {
		d := ReportingDescriptor{
			ID:               r.ID,
			Name:             r.Name,
			ShortDescription: Message{Text: r.Message},
			DefaultConfig:    &ReportingConfiguration{Level: r.Level},
		}
		if r.Explanation != "" {
			d.FullDescription = &Message{Text: r.Explanation}
		}
		if r.Remediation != "" {
			d.Help = &Message{Text: r.Remediation}
		}
		if len(r.References) > 0 {
			d.HelpURI = r.References[0]
		}
		props := map[string]interface{}{}
		if r.Category != "" {
			props["category"] = string(r.Category)
		}
		if len(r.Tags) > 0 {
			props["tags"] = r.Tags
		}
		if len(r.CWE) > 0 {
			props["cwe"] = r.CWE
		}
		if len(props) > 0 {
			d.Properties = props
		}
		out = append(out, d)
	}
	return out
}
