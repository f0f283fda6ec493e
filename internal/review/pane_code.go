package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/assay/internal/sarif"
)

var (
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)

	highlightedLineStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236"))

	relatedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))
)

// contextLines is how many lines are shown on each side of the finding.
const contextLines = 5

// renderCodePane shows the source around the current finding.
func (m Model) renderCodePane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Code"))
	b.WriteString("\n\n")

	finding, ok := m.selected()
	switch {
	case !ok:
		b.WriteString(dimStyle.Render("No findings to display"))
	case resultURI(finding) == "":
		b.WriteString(dimStyle.Render("No location information"))
	default:
		uri, line := resultURI(finding), resultLine(finding)
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s:%d", filepath.Base(uri), line)))
		b.WriteString("\n\n")
		b.WriteString(m.readCodeWithContext(uri, line, relatedLines(finding, uri)))
	}

	return m.framePane(PaneCode, b.String(), width, height)
}

// relatedLines returns the lines of secondary locations in the same file.
func relatedLines(r sarif.Result, uri string) map[int]bool {
	lines := make(map[int]bool)
	for _, rl := range r.RelatedLocations {
		if rl.PhysicalLocation.ArtifactLocation.URI == uri {
			lines[rl.PhysicalLocation.Region.StartLine] = true
		}
	}
	return lines
}

func (m Model) sourcePath(uri string) string {
	if filepath.IsAbs(uri) || m.opts.Root == "" {
		return uri
	}
	return filepath.Join(m.opts.Root, filepath.FromSlash(uri))
}

// readCodeWithContext returns the highlighted lines around targetLine.
// Lines holding secondary locations get a gutter mark.
func (m Model) readCodeWithContext(uri string, targetLine int, related map[int]bool) string {
	data, err := os.ReadFile(m.sourcePath(uri))
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	lexer := lexers.Match(uri)
	if lexer == nil {
		lexer = lexers.Get("java")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	start := max(targetLine-contextLines, 1)
	end := min(targetLine+contextLines, len(lines))

	var b strings.Builder
	for i := start; i <= end; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%d", i))
		content, err := highlightLine(lines[i-1], lexer)
		if err != nil {
			content = lines[i-1]
		}

		mark := " "
		if related[i] {
			mark = relatedMarkStyle.Render("●")
		}
		if i == targetLine {
			num = highlightedLineStyle.Render(num)
			content = highlightedLineStyle.Render(content)
		}
		fmt.Fprintf(&b, "%s%s│ %s\n", num, mark, content)
	}
	return b.String()
}

// highlightLine applies syntax highlighting to a single line of code
func highlightLine(line string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
