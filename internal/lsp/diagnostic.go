package lsp

import (
	"github.com/chris-regnier/assay/internal/sarif"
)

// DiagnosticSeverity maps to LSP severity levels
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// Position is 0-based in both line and character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

type DiagnosticRelatedInformation struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

type CodeDescription struct {
	Href string `json:"href"`
}

// DiagnosticData carries assay metadata clients may show on hover.
type DiagnosticData struct {
	Category    string `json:"category,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type Diagnostic struct {
	Range              Range                          `json:"range"`
	Severity           DiagnosticSeverity             `json:"severity"`
	Code               string                         `json:"code,omitempty"`
	CodeDescription    *CodeDescription               `json:"codeDescription,omitempty"`
	Source             string                         `json:"source,omitempty"`
	Message            string                         `json:"message"`
	RelatedInformation []DiagnosticRelatedInformation `json:"relatedInformation,omitempty"`
	Data               *DiagnosticData                `json:"data,omitempty"`
}

func levelToSeverity(level string) DiagnosticSeverity {
	switch level {
	case "error":
		return DiagnosticSeverityError
	case "warning":
		return DiagnosticSeverityWarning
	default:
		return DiagnosticSeverityInformation
	}
}

// regionToRange converts a 1-based SARIF region with an exclusive end column
// to a 0-based LSP range. A region without an end collapses to its start.
func regionToRange(r sarif.Region) Range {
	start := Position{Line: max(r.StartLine-1, 0), Character: max(r.StartColumn-1, 0)}
	if r.EndLine == 0 {
		return Range{Start: start, End: start}
	}
	return Range{
		Start: start,
		End:   Position{Line: max(r.EndLine-1, 0), Character: max(r.EndColumn-1, 0)},
	}
}

// SarifToDiagnostic converts a SARIF result to an LSP diagnostic. Related
// locations become relatedInformation; helpURIs maps rule IDs to
// documentation links and may be nil.
func SarifToDiagnostic(result sarif.Result, helpURIs map[string]string) Diagnostic {
	diag := Diagnostic{
		Severity: levelToSeverity(result.Level),
		Code:     result.RuleID,
		Source:   "assay",
		Message:  result.Message.Text,
	}
	if href := helpURIs[result.RuleID]; href != "" {
		diag.CodeDescription = &CodeDescription{Href: href}
	}
	if len(result.Locations) > 0 {
		diag.Range = regionToRange(result.Locations[0].PhysicalLocation.Region)
	}

	for _, rl := range result.RelatedLocations {
		msg := ""
		if rl.Message != nil {
			msg = rl.Message.Text
		}
		diag.RelatedInformation = append(diag.RelatedInformation, DiagnosticRelatedInformation{
			Location: Location{
				URI:   pathToURI(rl.PhysicalLocation.ArtifactLocation.URI),
				Range: regionToRange(rl.PhysicalLocation.Region),
			},
			Message: msg,
		})
	}

	data := &DiagnosticData{Fingerprint: result.PartialFingerprints[sarif.FingerprintKey]}
	if cat, ok := result.Properties["assay/category"].(string); ok {
		data.Category = cat
	}
	if data.Category != "" || data.Fingerprint != "" {
		diag.Data = data
	}
	return diag
}

// SarifResultsToDiagnostics converts multiple SARIF results to LSP diagnostics
func SarifResultsToDiagnostics(results []sarif.Result, helpURIs map[string]string) []Diagnostic {
	diagnostics := make([]Diagnostic, 0, len(results))
	for _, result := range results {
		diagnostics = append(diagnostics, SarifToDiagnostic(result, helpURIs))
	}
	return diagnostics
}
