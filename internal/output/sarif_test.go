package output

import (
	"encoding/json"
	"testing"

	"github.com/chris-regnier/assay/internal/sarif"
)

func formatSARIF(t *testing.T, out *AnalysisOutput) *sarif.Log {
	t.Helper()
	data, err := (&SARIFFormatter{}).Format(out)
	if err != nil {
		t.Fatalf("SARIFFormatter.Format() returned error: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Errorf("output does not end with trailing newline")
	}
	var log sarif.Log
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatalf("output is not valid SARIF JSON: %v", err)
	}
	return &log
}

func TestSARIFFormatter_ValidJSON(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	if log.Version != "2.1.0" {
		t.Errorf("version = %q, want %q", log.Version, "2.1.0")
	}
	if len(log.Runs[0].Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(log.Runs[0].Results))
	}
	if len(log.Runs[0].Tool.Driver.Rules) != 5 {
		t.Errorf("expected 5 driver rules, got %d", len(log.Runs[0].Tool.Driver.Rules))
	}
}

func TestSARIFFormatter_HasPartialFingerprints(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	for _, r := range log.Runs[0].Results {
		hash := r.PartialFingerprints["primaryLocationLineHash"]
		if len(hash) != 32 {
			t.Errorf("primaryLocationLineHash length = %d, want 32 hex chars; value = %q", len(hash), hash)
		}
		if r.PartialFingerprints[sarif.FingerprintKey] == "" {
			t.Errorf("%s lost its %s fingerprint", r.RuleID, sarif.FingerprintKey)
		}
	}
}

func TestSARIFFormatter_HasSecuritySeverity_AllLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected float64
	}{
		{"error", 8.0},
		{"warning", 5.0},
		{"note", 2.0},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			out := emptyOutput("review")
			out.SARIFLog.Runs[0].Results = []sarif.Result{{RuleID: "r", Level: tc.level, Message: sarif.Message{Text: "m"}}}
			log := formatSARIF(t, out)
			severity, ok := log.Runs[0].Results[0].Properties["security-severity"].(float64)
			if !ok {
				t.Fatalf("security-severity is not a number: %T", log.Runs[0].Results[0].Properties["security-severity"])
			}
			if severity != tc.expected {
				t.Errorf("security-severity = %v, want %v for level %q", severity, tc.expected, tc.level)
			}
		})
	}
}

func TestSARIFFormatter_HasPrecision(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	want := map[string]string{
		"S5779":         "high",
		"empty-catch":   "high",
		"method-length": "very-high",
		"broken":        "high",
	}
	for _, r := range log.Runs[0].Results {
		if got := r.Properties["precision"]; got != want[r.RuleID] {
			t.Errorf("%s precision = %v, want %q", r.RuleID, got, want[r.RuleID])
		}
	}
}

func TestSARIFFormatter_HasInformationURI(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	if uri := log.Runs[0].Tool.Driver.InformationURI; uri != "https://github.com/chris-regnier/assay" {
		t.Errorf("informationUri = %q", uri)
	}
}

func TestSARIFFormatter_HasInvocations(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	invs := log.Runs[0].Invocations
	if len(invs) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(invs))
	}
	if !invs[0].ExecutionSuccessful {
		t.Error("expected executionSuccessful true")
	}
	if invs[0].WorkingDirectory == nil || invs[0].WorkingDirectory.URI == "" {
		t.Error("expected working directory to be set")
	}

	// A log without invocations gets one.
	out := emptyOutput("merge")
	out.SARIFLog.Runs[0].Invocations = nil
	if got := formatSARIF(t, out).Runs[0].Invocations; len(got) != 1 {
		t.Errorf("expected an invocation to be added, got %d", len(got))
	}
}

func TestSARIFFormatter_KeepsRelatedLocations(t *testing.T) {
	log := formatSARIF(t, testOutput(t))
	first := log.Runs[0].Results[0]
	if len(first.RelatedLocations) != 1 || first.RelatedLocations[0].PhysicalLocation.Region.StartColumn != 14 {
		t.Errorf("unexpected related locations %+v", first.RelatedLocations)
	}
}

func TestSARIFFormatter_NilLog(t *testing.T) {
	if _, err := (&SARIFFormatter{}).Format(&AnalysisOutput{}); err == nil {
		t.Fatal("expected error for nil SARIF log")
	}
}
