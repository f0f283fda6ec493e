package lsp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chris-regnier/assay/internal/sarif"
)

func s5779Result(path string) sarif.Result {
	r := sarif.Result{
		RuleID:  "S5779",
		Level:   "warning",
		Message: sarif.Message{Text: "Don't use fail() inside a try-catch catching an AssertionError."},
		Locations: []sarif.Location{{PhysicalLocation: sarif.PhysicalLocation{
			ArtifactLocation: sarif.ArtifactLocation{URI: path},
			Region:           sarif.Region{StartLine: 5, StartColumn: 7, EndLine: 5, EndColumn: 11},
		}}},
		RelatedLocations: []sarif.Location{{
			ID: 1,
			PhysicalLocation: sarif.PhysicalLocation{
				ArtifactLocation: sarif.ArtifactLocation{URI: path},
				Region:           sarif.Region{StartLine: 6, StartColumn: 14, EndLine: 6, EndColumn: 28},
			},
			Message: &sarif.Message{Text: "catch"},
		}},
		Properties: map[string]interface{}{"assay/category": "tests"},
	}
	r.PartialFingerprints = map[string]string{sarif.FingerprintKey: sarif.Fingerprint(r)}
	return r
}

func TestSarifToDiagnostic(t *testing.T) {
	r := s5779Result("/work/src/test/java/ATest.java")
	d := SarifToDiagnostic(r, map[string]string{"S5779": "https://rules.sonarsource.com/java/RSPEC-5779"})

	if d.Severity != DiagnosticSeverityWarning || d.Code != "S5779" || d.Source != "assay" {
		t.Errorf("unexpected header fields %+v", d)
	}
	want := Range{Start: Position{Line: 4, Character: 6}, End: Position{Line: 4, Character: 10}}
	if d.Range != want {
		t.Errorf("expected range %+v, got %+v", want, d.Range)
	}
	if d.CodeDescription == nil || !strings.Contains(d.CodeDescription.Href, "RSPEC-5779") {
		t.Errorf("expected code description, got %+v", d.CodeDescription)
	}

	if len(d.RelatedInformation) != 1 {
		t.Fatalf("expected one related location, got %d", len(d.RelatedInformation))
	}
	rel := d.RelatedInformation[0]
	if rel.Location.URI != "file:///work/src/test/java/ATest.java" || rel.Message != "catch" {
		t.Errorf("unexpected related info %+v", rel)
	}
	if rel.Location.Range.Start != (Position{Line: 5, Character: 13}) {
		t.Errorf("unexpected related range %+v", rel.Location.Range)
	}

	if d.Data == nil || d.Data.Category != "tests" || len(d.Data.Fingerprint) != 64 {
		t.Errorf("unexpected data %+v", d.Data)
	}
}

func TestSarifToDiagnostic_Levels(t *testing.T) {
	tests := map[string]DiagnosticSeverity{
		"error":   DiagnosticSeverityError,
		"warning": DiagnosticSeverityWarning,
		"note":    DiagnosticSeverityInformation,
		"":        DiagnosticSeverityInformation,
	}
	for level, want := range tests {
		if got := SarifToDiagnostic(sarif.Result{Level: level}, nil).Severity; got != want {
			t.Errorf("level %q: expected %d, got %d", level, want, got)
		}
	}
}

func TestSarifToDiagnostic_Minimal(t *testing.T) {
	d := SarifToDiagnostic(sarif.Result{RuleID: "x", Message: sarif.Message{Text: "m"}}, nil)
	if d.Range != (Range{}) || d.Data != nil || d.CodeDescription != nil || d.RelatedInformation != nil {
		t.Errorf("expected a bare diagnostic, got %+v", d)
	}
}

func TestRegionToRange(t *testing.T) {
	tests := []struct {
		region sarif.Region
		want   Range
	}{
		{sarif.Region{StartLine: 1, StartColumn: 1, EndLine: 3, EndColumn: 2}, Range{Position{0, 0}, Position{2, 1}}},
		{sarif.Region{StartLine: 7, StartColumn: 3}, Range{Position{6, 2}, Position{6, 2}}},
		{sarif.Region{}, Range{}},
	}
	for _, tt := range tests {
		if got := regionToRange(tt.region); got != tt.want {
			t.Errorf("regionToRange(%+v) = %+v, want %+v", tt.region, got, tt.want)
		}
	}
}

func TestSarifResultsToDiagnostics(t *testing.T) {
	if d := SarifResultsToDiagnostics(nil, nil); d == nil || len(d) != 0 {
		t.Error("expected empty, non-nil slice")
	}
	d := SarifResultsToDiagnostics([]sarif.Result{s5779Result("/a/ATest.java"), {RuleID: "empty-catch"}}, nil)
	if len(d) != 2 || d[1].Code != "empty-catch" {
		t.Errorf("unexpected diagnostics %+v", d)
	}

	data, _ := json.Marshal(PublishDiagnosticsParams{URI: "file:///a/ATest.java", Diagnostics: []Diagnostic{}})
	if !strings.Contains(string(data), `"diagnostics":[]`) {
		t.Errorf("empty diagnostics must marshal as an array: %s", data)
	}
}
