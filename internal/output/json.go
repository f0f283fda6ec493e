package output

import (
	"encoding/json"
	"fmt"

	"github.com/chris-regnier/assay/internal/analyzer"
	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/store"
)

// JSONFormatter renders the verdict together with the issue records.
type JSONFormatter struct{}

type jsonReport struct {
	Verdict *store.Verdict  `json:"verdict"`
	Issues  []report.Issue  `json:"issues"`
	Stats   *analyzer.Stats `json:"stats,omitempty"`
}

// Format serializes the report as indented JSON with a trailing newline.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.Verdict == nil {
		return nil, fmt.Errorf("json formatter: verdict is required")
	}
	issues := result.Issues
	if issues == nil {
		issues = []report.Issue{}
	}
	data, err := json.MarshalIndent(jsonReport{
		Verdict: result.Verdict,
		Issues:  issues,
		Stats:   result.Stats,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
