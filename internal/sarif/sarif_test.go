package sarif

import (
	"encoding/json"
	"testing"
)

func TestSarifLog_MarshalJSON(t *testing.T) {
	log := NewLog("assay", "0.1.0")
	log.Runs[0].Results = append(log.Runs[0].Results, Result{
		RuleID:  "S5779",
		Level:   "warning",
		Message: Message{Text: "Don't use fail() inside a try-catch catching an AssertionError."},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: "src/test/java/FooTest.java"},
				Region:           Region{StartLine: 10, StartColumn: 7, EndLine: 10, EndColumn: 11},
			},
		}},
		RelatedLocations: []Location{{
			ID: 1,
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: "src/test/java/FooTest.java"},
				Region:           Region{StartLine: 11, StartColumn: 14, EndLine: 11, EndColumn: 28},
			},
			Message: &Message{Text: "This parameter will catch the AssertionError thrown by fail()."},
		}},
	})

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		t.Fatal(err)
	}

	var parsed Log
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}

	if len(parsed.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(parsed.Runs))
	}
	if len(parsed.Runs[0].Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed.Runs[0].Results))
	}
	r := parsed.Runs[0].Results[0]
	if r.RuleID != "S5779" {
		t.Errorf("expected ruleId 'S5779', got %q", r.RuleID)
	}
	if r.Locations[0].PhysicalLocation.Region.EndColumn != 11 {
		t.Errorf("expected end column preserved, got %+v", r.Locations[0].PhysicalLocation.Region)
	}
	if len(r.RelatedLocations) != 1 || r.RelatedLocations[0].ID != 1 || r.RelatedLocations[0].Message == nil {
		t.Errorf("expected related location preserved, got %+v", r.RelatedLocations)
	}
}

func TestFingerprint_IgnoresSecondaries(t *testing.T) {
	base := Result{
		RuleID:  "S5779",
		Message: Message{Text: "m"},
		Locations: []Location{{PhysicalLocation: PhysicalLocation{
			ArtifactLocation: ArtifactLocation{URI: "A.java"},
			Region:           Region{StartLine: 3, StartColumn: 5, EndLine: 3, EndColumn: 9},
		}}},
	}
	withRelated := base
	withRelated.RelatedLocations = []Location{{ID: 1}}
	if Fingerprint(base) != Fingerprint(withRelated) {
		t.Error("related locations should not change the fingerprint")
	}

	moved := base
	moved.Locations = []Location{{PhysicalLocation: PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: "A.java"},
		Region:           Region{StartLine: 4, StartColumn: 5, EndLine: 4, EndColumn: 9},
	}}}
	if Fingerprint(base) == Fingerprint(moved) {
		t.Error("a different region should change the fingerprint")
	}
}
