// Package output provides formatters for rendering assay analysis results
// in different output formats (JSON, SARIF, Markdown, pretty terminal).
package output

import (
	"fmt"

	"github.com/chris-regnier/assay/internal/analyzer"
	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/sarif"
	"github.com/chris-regnier/assay/internal/store"
)

const projectURL = "https://github.com/chris-regnier/assay"

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds the complete results of an analysis run: the gate
// verdict, the SARIF log, the raw issues and optional run statistics.
type AnalysisOutput struct {
	Verdict  *store.Verdict
	SARIFLog *sarif.Log
	Issues   []report.Issue
	Stats    *analyzer.Stats // optional
}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "json" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "json"
}

// NewFormatter returns a Formatter for the given format name.
// Supported formats: "json", "sarif", "markdown", "pretty".
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: json, sarif, markdown, pretty)", format)
	}
}

// runResults returns the results of the first run, or nil.
func runResults(log *sarif.Log) []sarif.Result {
	if log == nil || len(log.Runs) == 0 {
		return nil
	}
	return log.Runs[0].Results
}

// driverHelp indexes the remediation text of the driver rules by ID.
func driverHelp(log *sarif.Log) map[string]string {
	help := map[string]string{}
	if log == nil || len(log.Runs) == 0 {
		return help
	}
	for _, d := range log.Runs[0].Tool.Driver.Rules {
		if d.Help != nil {
			help[d.ID] = d.Help.Text
		}
	}
	return help
}
