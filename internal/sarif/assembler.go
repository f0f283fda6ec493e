package sarif

import "sort"

// Assemble creates a SARIF log from results, dropping exact duplicates and
// ordering the rest by file, position and rule.
func Assemble(results []Result, rules []ReportingDescriptor, inputScope string) *Log {
	log := NewLog(ToolName, "")
	log.Runs[0].Tool.Driver.Rules = rules
	log.Runs[0].Results = dedup(results)
	if inputScope != "" {
		log.Runs[0].Properties = map[string]interface{}{
			"assay/inputScope": inputScope,
		}
	}
	return log
}

// dedup removes results with the same fingerprint, which happens when one
// file reaches the analyzer twice.
func dedup(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		fp := r.PartialFingerprints[FingerprintKey]
		if fp == "" {
			fp = Fingerprint(r)
		}
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b Result) bool {
	ra, rb := primary(a), primary(b)
	if ra.ArtifactLocation.URI != rb.ArtifactLocation.URI {
		return ra.ArtifactLocation.URI < rb.ArtifactLocation.URI
	}
	if ra.Region.StartLine != rb.Region.StartLine {
		return ra.Region.StartLine < rb.Region.StartLine
	}
	if ra.Region.StartColumn != rb.Region.StartColumn {
		return ra.Region.StartColumn < rb.Region.StartColumn
	}
	return a.RuleID < b.RuleID
}

func primary(r Result) PhysicalLocation {
	if len(r.Locations) == 0 {
		return PhysicalLocation{}
	}
	return r.Locations[0].PhysicalLocation
}
