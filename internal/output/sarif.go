package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chris-regnier/assay/internal/sarif"
)

// SARIFFormatter renders analysis output as a SARIF 2.1.0 JSON document
// enriched with GitHub Code Scanning properties (security-severity, precision,
// line hash fingerprints and the working directory).
type SARIFFormatter struct{}

// Format enriches the SARIF log in-place and serializes it as indented JSON
// with a trailing newline.
func (f *SARIFFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("sarif formatter: SARIF log is required")
	}

	log := result.SARIFLog
	for i := range log.Runs {
		enrichRun(&log.Runs[i])
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}

func enrichRun(run *sarif.Run) {
	run.Tool.Driver.InformationURI = projectURL

	wd, _ := os.Getwd()
	if len(run.Invocations) == 0 {
		run.Invocations = []sarif.Invocation{{ExecutionSuccessful: true}}
	}
	for i := range run.Invocations {
		run.Invocations[i].WorkingDirectory = &sarif.ArtifactLocation{URI: wd}
	}

	for j := range run.Results {
		enrichResult(&run.Results[j])
	}
}

// enrichResult adds the line hash fingerprint, security-severity and
// precision to a single result.
func enrichResult(r *sarif.Result) {
	if r.PartialFingerprints == nil {
		r.PartialFingerprints = make(map[string]string)
	}
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}

	uri := ""
	startLine := 0
	if len(r.Locations) > 0 {
		loc := r.Locations[0]
		uri = loc.PhysicalLocation.ArtifactLocation.URI
		startLine = loc.PhysicalLocation.Region.StartLine
	}

	fingerprintInput := fmt.Sprintf("%s|%s|%d|%s", r.RuleID, uri, startLine, r.Message.Text)
	hash := sha256.Sum256([]byte(fingerprintInput))
	r.PartialFingerprints["primaryLocationLineHash"] = fmt.Sprintf("%x", hash[:16])

	r.Properties["security-severity"] = securitySeverity(r.Level)
	r.Properties["precision"] = rulePrecision(r)
}

// securitySeverity maps SARIF levels to GitHub Code Scanning security-severity scores.
func securitySeverity(level string) float64 {
	switch level {
	case "error":
		return 8.0
	case "warning":
		return 5.0
	default:
		return 2.0
	}
}

// rulePrecision maps a result to a GitHub Code Scanning precision value.
// Structural rules measure exactly what they report; the rest depend on name
// resolution.
func rulePrecision(r *sarif.Result) string {
	if cat, _ := r.Properties["assay/category"].(string); cat == "maintainability" {
		return "very-high"
	}
	return "high"
}
