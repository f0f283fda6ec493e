package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.summaryLine()))
	b.WriteString("\n")

	if m.width > 0 && m.height > 0 {
		helpView := m.help.View(m.keys)
		paneHeight := max(m.height-2-lipgloss.Height(helpView), 6)
		filesWidth := m.width / 4
		codeWidth := m.width / 2
		detailsWidth := m.width - filesWidth - codeWidth

		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderFilesPane(filesWidth, paneHeight),
			m.renderCodePane(codeWidth, paneHeight),
			m.renderDetailsPane(detailsWidth, paneHeight),
		))
		b.WriteString("\n")
		b.WriteString(helpView)
	}
	return b.String()
}

func (m Model) summaryLine() string {
	files, findings := len(m.fileList()), len(m.visible())
	accepted, rejected := m.Counts()

	position := "0/0"
	if findings > 0 {
		position = fmt.Sprintf("%d/%d", m.current+1, findings)
	}
	return fmt.Sprintf("Assay Review: %s, %s [%s] filter: %s | %d accepted, %d rejected",
		plural(files, "file"), plural(findings, "finding"), position, m.filter, accepted, rejected)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
