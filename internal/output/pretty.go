package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/assay/internal/sarif"
)

var (
	fileHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	prettyErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	prettyWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true)

	prettyNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	relatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	decisionStyles = map[string]lipgloss.Style{
		"merge":  lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		"review": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"reject": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return prettyErrorStyle
	case "warning":
		return prettyWarningStyle
	default:
		return prettyNoteStyle
	}
}

// PrettyFormatter renders analysis output as colored, human-readable
// terminal output grouped by file.
type PrettyFormatter struct{}

// Format produces pretty terminal output. Colors are dropped automatically
// when the output is not a terminal.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.Verdict == nil {
		return nil, fmt.Errorf("pretty formatter: verdict is required")
	}

	var b strings.Builder
	results := runResults(result.SARIFLog)

	byFile := make(map[string][]sarif.Result)
	var files []string
	for _, r := range results {
		fp := resultFilePath(r)
		if _, ok := byFile[fp]; !ok {
			files = append(files, fp)
		}
		byFile[fp] = append(byFile[fp], r)
	}
	sort.Strings(files)

	for _, fp := range files {
		rs := byFile[fp]
		sort.SliceStable(rs, func(i, j int) bool {
			ri, rj := resultRegion(rs[i]), resultRegion(rs[j])
			if ri.StartLine != rj.StartLine {
				return ri.StartLine < rj.StartLine
			}
			return ri.StartColumn < rj.StartColumn
		})

		b.WriteString(fileHeaderStyle.Render(fp))
		b.WriteString("\n")
		for _, r := range rs {
			region := resultRegion(r)
			b.WriteString(fmt.Sprintf("  %-7s %s  %s  %s\n",
				position(region),
				levelStyle(r.Level).Render(fmt.Sprintf("%-7s", r.Level)),
				r.Message.Text,
				ruleStyle.Render(r.RuleID)))
			for _, rel := range r.RelatedLocations {
				msg := ""
				if rel.Message != nil {
					msg = rel.Message.Text
				}
				b.WriteString(relatedStyle.Render(fmt.Sprintf("          %s %s", position(rel.PhysicalLocation.Region), msg)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if len(results) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		b.WriteString(summaryLine(results, len(files)))
		b.WriteString("\n")
	}

	decision := result.Verdict.Decision
	style, ok := decisionStyles[decision]
	if !ok {
		style = lipgloss.NewStyle().Bold(true)
	}
	b.WriteString(fmt.Sprintf("Decision: %s\n", style.Render(decision)))
	if result.Verdict.Reason != "" {
		b.WriteString(ruleStyle.Render(result.Verdict.Reason))
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// summaryLine renders e.g. "1 error, 3 warnings, 1 note in 2 files".
func summaryLine(results []sarif.Result, files int) string {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Level]++
	}
	var parts []string
	for _, level := range []string{"error", "warning", "note"} {
		if n := counts[level]; n > 0 {
			parts = append(parts, plural(n, level))
		}
	}
	return fmt.Sprintf("%s in %s", strings.Join(parts, ", "), plural(files, "file"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
