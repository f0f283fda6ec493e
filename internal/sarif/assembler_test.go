package sarif

import (
	"errors"
	"testing"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/rules"
	"github.com/chris-regnier/assay/internal/tree"
)

func loc(file string, line, sc, ec int) report.Location {
	return report.Location{File: file, StartLine: line, StartColumn: sc, EndLine: line, EndColumn: ec}
}

var testCatalog = []rules.Rule{
	{ID: "S5779", Name: "fail-in-try-catch", Category: rules.CategoryTests, Level: "warning", Message: "Assertion failures should not be swallowed",
		Explanation: "why", Remediation: "how", References: []string{"https://rules.sonarsource.com/java/RSPEC-5779"}},
	{ID: "method-length", Name: "method-length", Category: rules.CategoryMaintainability, Level: "note", Message: "Methods should not be too long"},
}

func TestFromIssues(t *testing.T) {
	issues := []report.Issue{
		{
			RuleKey: "S5779",
			Primary: loc("A.java", 5, 7, 11),
			Message: "Don't use fail() inside a try-catch catching an AssertionError.",
			Secondaries: []report.Secondary{
				{Location: loc("A.java", 6, 14, 28), Message: "This parameter will catch the AssertionError thrown by fail()."},
			},
		},
		{RuleKey: "method-length", Primary: loc("A.java", 2, 3, 9), Message: "too long"},
		{RuleKey: "unknown-rule", Primary: loc("A.java", 1, 1, 2), Message: "x"},
	}

	results := FromIssues(issues, testCatalog, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	r := results[0]
	if r.Level != "warning" {
		t.Errorf("expected catalog level warning, got %q", r.Level)
	}
	region := r.Locations[0].PhysicalLocation.Region
	if region != (Region{StartLine: 5, StartColumn: 7, EndLine: 5, EndColumn: 11}) {
		t.Errorf("unexpected region %+v", region)
	}
	if len(r.RelatedLocations) != 1 {
		t.Fatalf("expected 1 related location, got %d", len(r.RelatedLocations))
	}
	rel := r.RelatedLocations[0]
	if rel.ID != 1 || rel.Message == nil || rel.PhysicalLocation.Region.StartColumn != 14 {
		t.Errorf("unexpected related location %+v", rel)
	}
	if r.PartialFingerprints[FingerprintKey] == "" {
		t.Error("expected a partial fingerprint")
	}
	if r.Properties["assay/category"] != "tests" {
		t.Errorf("expected category property, got %v", r.Properties)
	}

	if results[1].Level != "note" {
		t.Errorf("expected note for method-length, got %q", results[1].Level)
	}
	if results[2].Level != "warning" || results[2].Properties != nil {
		t.Errorf("rule outside the catalog should default to warning without properties, got %+v", results[2])
	}
}

func TestFromIssues_Severities(t *testing.T) {
	issues := []report.Issue{
		{RuleKey: "S5779", Primary: loc("A.java", 5, 7, 11), Message: "m"},
		{RuleKey: "method-length", Primary: loc("A.java", 2, 3, 9), Message: "m"},
	}
	results := FromIssues(issues, testCatalog, Severities{"S5779": "error", "method-length": "none"})
	if len(results) != 1 {
		t.Fatalf("expected severity none to drop a result, got %d", len(results))
	}
	if results[0].Level != "error" {
		t.Errorf("expected configured severity error, got %q", results[0].Level)
	}
}

func TestDescriptors(t *testing.T) {
	ds := Descriptors(testCatalog)
	if len(ds) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(ds))
	}
	d := ds[0]
	if d.ID != "S5779" || d.Name != "fail-in-try-catch" {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if d.DefaultConfig == nil || d.DefaultConfig.Level != "warning" {
		t.Errorf("expected default level warning, got %+v", d.DefaultConfig)
	}
	if d.FullDescription == nil || d.Help == nil || d.HelpURI == "" {
		t.Errorf("expected description, help and helpUri, got %+v", d)
	}
	if ds[1].FullDescription != nil || ds[1].Help != nil {
		t.Error("empty explanation and remediation should be omitted")
	}
}

func TestAssemble(t *testing.T) {
	results := FromIssues([]report.Issue{
		{RuleKey: "S5779", Primary: loc("B.java", 3, 1, 2), Message: "b"},
		{RuleKey: "S5779", Primary: loc("A.java", 9, 1, 2), Message: "a2"},
		{RuleKey: "S5779", Primary: loc("A.java", 4, 1, 2), Message: "a1"},
	}, testCatalog, nil)

	log := Assemble(results, Descriptors(testCatalog), "files")

	if len(log.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(log.Runs))
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "assay" {
		t.Errorf("expected tool name 'assay', got %q", run.Tool.Driver.Name)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(run.Tool.Driver.Rules))
	}
	if run.Properties["assay/inputScope"] != "files" {
		t.Errorf("expected inputScope 'files', got %v", run.Properties["assay/inputScope"])
	}
	var order []string
	for _, r := range run.Results {
		order = append(order, r.Message.Text)
	}
	if len(order) != 3 || order[0] != "a1" || order[1] != "a2" || order[2] != "b" {
		t.Errorf("expected results sorted by file and line, got %v", order)
	}
}

func TestAssemble_Dedup(t *testing.T) {
	issue := report.Issue{RuleKey: "S5779", Primary: loc("A.java", 4, 1, 2), Message: "m"}
	results := FromIssues([]report.Issue{issue, issue}, nil, nil)

	log := Assemble(results, nil, "")
	if len(log.Runs[0].Results) != 1 {
		t.Errorf("expected dedup to 1 result, got %d", len(log.Runs[0].Results))
	}
	if log.Runs[0].Properties != nil {
		t.Error("empty scope should leave run properties unset")
	}

	other := issue
	other.Primary = loc("A.java", 4, 3, 4)
	results = FromIssues([]report.Issue{issue, other}, nil, nil)
	if got := len(Assemble(results, nil, "").Runs[0].Results); got != 2 {
		t.Errorf("distinct columns must both survive, got %d", got)
	}
}

func TestAssembler_RecordsFailures(t *testing.T) {
	failure := dispatch.Failure{
		RuleKey: "S5779",
		File:    "A.java",
		Kind:    tree.KindTryStatement,
		Range:   tree.Range{Start: tree.Position{Line: 3, Column: 5}, End: tree.Position{Line: 8, Column: 6}},
		Err:     errors.New("boom"),
	}

	log := NewAssembler("1.2.3").
		AddResults(FromIssues([]report.Issue{{RuleKey: "S5779", Primary: loc("A.java", 4, 1, 2), Message: "m"}}, testCatalog, nil)).
		AddRules(Descriptors(testCatalog)).
		AddFailures([]dispatch.Failure{failure}).
		WithInputScope("dir").
		Build()

	run := log.Runs[0]
	if run.Tool.Driver.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", run.Tool.Driver.Version)
	}
	if len(run.Invocations) != 1 || !run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("expected one successful invocation, got %+v", run.Invocations)
	}
	notes := run.Invocations[0].ToolExecutionNotifications
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].AssociatedRule == nil || notes[0].AssociatedRule.ID != "S5779" {
		t.Errorf("expected notification tied to S5779, got %+v", notes[0])
	}
	if notes[0].Locations[0].PhysicalLocation.Region.StartLine != 3 {
		t.Errorf("expected failure location line 3, got %+v", notes[0].Locations)
	}
	if len(run.Results) != 1 || run.Properties["assay/inputScope"] != "dir" {
		t.Errorf("unexpected run %+v", run)
	}
}
