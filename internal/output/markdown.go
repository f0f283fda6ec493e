package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chris-regnier/assay/internal/sarif"
)

// MarkdownFormatter renders analysis output as GitHub-Flavored Markdown
// suitable for PR comments. Uses collapsible <details> sections for findings
// and severity emojis for quick visual scanning.
type MarkdownFormatter struct{}

// severityPriority returns a sort priority for SARIF severity levels.
// Lower values sort first: error (0) > warning (1) > note (2).
func severityPriority(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	case "note":
		return 2
	default:
		return 3
	}
}

// severityEmoji returns the GitHub emoji shortcode for a SARIF severity level.
func severityEmoji(level string) string {
	switch level {
	case "error":
		return ":red_circle:"
	case "warning":
		return ":warning:"
	case "note":
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

// decisionBanner returns the emoji + text for a verdict decision.
func decisionBanner(decision string) string {
	switch decision {
	case "merge":
		return ":white_check_mark: Merge"
	case "reject":
		return ":x: Reject"
	case "review":
		return ":warning: Review Required"
	default:
		return decision
	}
}

// resultFilePath extracts the file URI from the first location of a SARIF result.
func resultFilePath(r sarif.Result) string {
	if len(r.Locations) > 0 {
		return r.Locations[0].PhysicalLocation.ArtifactLocation.URI
	}
	return ""
}

func resultRegion(r sarif.Result) sarif.Region {
	if len(r.Locations) > 0 {
		return r.Locations[0].PhysicalLocation.Region
	}
	return sarif.Region{}
}

// position renders a region start as "line:col", or "line" without a column.
func position(region sarif.Region) string {
	if region.StartLine == 0 {
		return ""
	}
	if region.StartColumn == 0 {
		return fmt.Sprintf("%d", region.StartLine)
	}
	return fmt.Sprintf("%d:%d", region.StartLine, region.StartColumn)
}

// Format produces GFM Markdown output from the analysis results.
func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}
	if result.Verdict == nil {
		return nil, fmt.Errorf("markdown formatter: verdict is required")
	}

	var b strings.Builder

	results := runResults(result.SARIFLog)
	help := driverHelp(result.SARIFLog)

	fileSet := make(map[string]struct{})
	severityCounts := make(map[string]int)
	for _, r := range results {
		if fp := resultFilePath(r); fp != "" {
			fileSet[fp] = struct{}{}
		}
		severityCounts[r.Level]++
	}

	b.WriteString("## Assay Analysis Summary\n\n")
	b.WriteString(fmt.Sprintf("**Decision:** %s | **Findings:** %d | **Files:** %d\n",
		decisionBanner(result.Verdict.Decision),
		len(results),
		len(fileSet)))

	if len(results) == 0 {
		b.WriteString("\nNo findings detected.\n")
	} else {
		b.WriteString("\n### Findings by Severity\n")
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, level := range []string{"error", "warning", "note"} {
			if count := severityCounts[level]; count > 0 {
				b.WriteString(fmt.Sprintf("| %s | %d |\n", level, count))
			}
		}

		sorted := make([]sarif.Result, len(results))
		copy(sorted, results)
		sort.SliceStable(sorted, func(i, j int) bool {
			pi, pj := severityPriority(sorted[i].Level), severityPriority(sorted[j].Level)
			if pi != pj {
				return pi < pj
			}
			return resultFilePath(sorted[i]) < resultFilePath(sorted[j])
		})

		b.WriteString("\n### Findings\n\n")
		for _, r := range sorted {
			writeMarkdownFinding(&b, r, help[r.RuleID])
		}
	}

	if s := result.Stats; s != nil {
		b.WriteString(fmt.Sprintf("Analyzed %d files (%d skipped) in %s.\n\n", s.Files, s.Skipped, s.Duration.Round(time.Millisecond)))
	}
	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("*Generated by [Assay](%s)*\n", projectURL))

	return []byte(b.String()), nil
}

func writeMarkdownFinding(b *strings.Builder, r sarif.Result, remediation string) {
	fp := resultFilePath(r)
	pos := position(resultRegion(r))

	locationStr := ""
	if fp != "" && pos != "" {
		locationStr = fmt.Sprintf(" in <code>%s:%s</code>", fp, pos)
	} else if fp != "" {
		locationStr = fmt.Sprintf(" in <code>%s</code>", fp)
	}

	b.WriteString("<details>\n")
	b.WriteString(fmt.Sprintf("<summary>%s <strong>%s</strong> %s: %s%s</summary>\n\n",
		severityEmoji(r.Level), r.Level, r.RuleID, truncate(r.Message.Text, 80), locationStr))

	b.WriteString(fmt.Sprintf("**Rule:** %s\n", r.RuleID))
	if fp != "" {
		if pos != "" {
			b.WriteString(fmt.Sprintf("**File:** `%s` at %s\n", fp, pos))
		} else {
			b.WriteString(fmt.Sprintf("**File:** `%s`\n", fp))
		}
	}

	b.WriteString(fmt.Sprintf("\n> %s\n", r.Message.Text))

	if len(r.RelatedLocations) > 0 {
		b.WriteString("\n**Related:**\n")
		for _, rel := range r.RelatedLocations {
			msg := ""
			if rel.Message != nil {
				msg = " " + rel.Message.Text
			}
			b.WriteString(fmt.Sprintf("- `%s:%s`%s\n",
				rel.PhysicalLocation.ArtifactLocation.URI, position(rel.PhysicalLocation.Region), msg))
		}
	}

	if remediation != "" {
		b.WriteString(fmt.Sprintf("\n**Remediation:** %s\n", remediation))
	}

	b.WriteString("\n</details>\n\n")
}

// truncate shortens a string to maxLen characters, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
