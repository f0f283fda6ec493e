package lsp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chris-regnier/assay/internal/analyzer"
	"github.com/chris-regnier/assay/internal/input"
	"github.com/chris-regnier/assay/internal/rules"
	"github.com/chris-regnier/assay/internal/sarif"
)

// FileAnalyzer runs the rule engine over a single open document and turns
// the issues into SARIF results.
type FileAnalyzer struct {
	analyzer   *analyzer.Analyzer
	catalog    []rules.Rule
	severities sarif.Severities
	logger     *slog.Logger
}

func NewFileAnalyzer(a *analyzer.Analyzer, catalog []rules.Rule, severities sarif.Severities, logger *slog.Logger) *FileAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileAnalyzer{analyzer: a, catalog: catalog, severities: severities, logger: logger}
}

// Analyze implements AnalyzeFunc.
func (f *FileAnalyzer) Analyze(ctx context.Context, path, content string) ([]sarif.Result, error) {
	res, err := f.analyzer.Analyze(ctx, []input.Artifact{{Path: path, Content: []byte(content)}})
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", path, err)
	}
	for _, fail := range res.Failures {
		f.logger.Warn("rule failed", "path", path, "failure", fail.Error())
	}
	return sarif.FromIssues(res.Issues, f.catalog, f.severities), nil
}

// Invalidate implements InvalidateFunc.
func (f *FileAnalyzer) Invalidate(ctx context.Context, path, content string) error {
	return f.analyzer.Invalidate(ctx, input.Artifact{Path: path, Content: []byte(content)})
}

// HelpURIs maps rule IDs to their first catalog reference.
func HelpURIs(catalog []rules.Rule) map[string]string {
	m := make(map[string]string, len(catalog))
	for _, r := range catalog {
		if len(r.References) > 0 {
			m[r.ID] = r.References[0]
		}
	}
	return m
}
