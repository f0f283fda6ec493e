package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chris-regnier/assay/internal/store"
)

func TestJSONFormatter_Format(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(testOutput(t))
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}

	var parsed struct {
		Verdict store.Verdict `json:"verdict"`
		Issues  []struct {
			RuleKey string `json:"ruleKey"`
			Primary struct {
				File        string `json:"file"`
				StartLine   int    `json:"startLine"`
				StartColumn int    `json:"startColumn"`
				EndColumn   int    `json:"endColumn"`
			} `json:"primary"`
			Message     string `json:"message"`
			Secondaries []struct {
				Message string `json:"message"`
			} `json:"secondaries"`
		} `json:"issues"`
		Stats map[string]interface{} `json:"stats"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}

	if parsed.Verdict.Decision != "reject" {
		t.Errorf("decision = %q, want reject", parsed.Verdict.Decision)
	}
	if len(parsed.Issues) != 5 {
		t.Fatalf("expected 5 issues, got %d", len(parsed.Issues))
	}
	first := parsed.Issues[0]
	if first.RuleKey != "S5779" || first.Primary.StartColumn != 24 || first.Primary.EndColumn != 28 {
		t.Errorf("unexpected first issue %+v", first)
	}
	if len(first.Secondaries) != 1 {
		t.Errorf("expected one secondary, got %d", len(first.Secondaries))
	}
	if parsed.Stats["files"] != float64(3) {
		t.Errorf("expected stats.files 3, got %v", parsed.Stats["files"])
	}
}

func TestJSONFormatter_NilVerdict(t *testing.T) {
	f := &JSONFormatter{}
	if _, err := f.Format(&AnalysisOutput{}); err == nil {
		t.Fatal("expected error for nil verdict")
	}
	if _, err := f.Format(nil); err == nil {
		t.Fatal("expected error for nil result")
	}
}

func TestJSONFormatter_TrailingNewline(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(emptyOutput("merge"))
	if err != nil {
		t.Fatal(err)
	}
	if out[len(out)-1] != '\n' {
		t.Errorf("expected trailing newline, last byte %q", out[len(out)-1])
	}
}

func TestJSONFormatter_EmptyIssuesIsArray(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(emptyOutput("merge"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `"issues": []`) {
		t.Errorf("expected empty issues array, got:\n%s", s)
	}
	if strings.Contains(s, `"stats"`) {
		t.Errorf("expected stats to be omitted, got:\n%s", s)
	}
}
