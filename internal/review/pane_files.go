package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	activeBorder = lipgloss.Color("170")

	paneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	fileItemStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	selectedFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// framePane draws the shared border, highlighted when p is active.
func (m Model) framePane(p Pane, content string, width, height int) string {
	style := paneStyle
	if m.activePane == p {
		style = style.BorderForeground(activeBorder)
	}
	return style.Width(max(width-2, 1)).Height(max(height-2, 1)).Render(content)
}

// renderFilesPane lists files with visible findings and their counts.
func (m Model) renderFilesPane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Files"))
	b.WriteString("\n\n")

	files := m.fileList()
	if len(files) == 0 {
		b.WriteString(dimStyle.Render("No findings"))
	}

	current := ""
	if f, ok := m.selected(); ok {
		current = resultURI(f)
	}
	filtered := m.filteredFiles()
	for _, file := range files {
		count := dimStyle.Render(fmt.Sprintf("(%d)", len(filtered[file])))
		if file == current {
			b.WriteString(selectedFileStyle.Render("▸ " + file + " " + count))
		} else {
			b.WriteString(fileItemStyle.Render(" " + file + " " + count))
		}
		b.WriteString("\n")
	}

	return m.framePane(PaneFiles, b.String(), width, height)
}
