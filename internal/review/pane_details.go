package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/assay/internal/sarif"
)

var (
	severityStyles = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}

	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderDetailsPane shows the message, rule documentation and triage of the
// current finding.
func (m Model) renderDetailsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Details"))
	b.WriteString("  ")

	finding, ok := m.selected()
	if !ok {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("No findings to display"))
		return m.framePane(PaneDetails, b.String(), width, height)
	}

	b.WriteString(severityStyles[finding.Level].Render(strings.ToUpper(finding.Level)))
	switch m.status[findingID(finding)] {
	case StatusAccepted:
		b.WriteString("  " + acceptedStyle.Render("✓ Accepted"))
	case StatusRejected:
		b.WriteString("  " + rejectedStyle.Render("✗ Rejected"))
	}
	b.WriteString("\n")

	md := m.findingMarkdown(finding)
	rendered, err := renderMarkdown(md, max(width-6, 20))
	if err != nil {
		rendered = md
	}
	b.WriteString(rendered)

	return m.framePane(PaneDetails, b.String(), width, height)
}

// findingMarkdown describes a finding as markdown for glamour.
func (m Model) findingMarkdown(r sarif.Result) string {
	var b strings.Builder
	rule, known := m.opts.Rules[r.RuleID]

	if known && rule.Name != "" {
		fmt.Fprintf(&b, "### %s: %s\n\n", r.RuleID, rule.Name)
	} else {
		fmt.Fprintf(&b, "### %s\n\n", r.RuleID)
	}
	if r.Message.Text != "" {
		b.WriteString(r.Message.Text)
		b.WriteString("\n\n")
	}
	if uri := resultURI(r); uri != "" {
		region := r.Locations[0].PhysicalLocation.Region
		fmt.Fprintf(&b, "**Location:** `%s:%d:%d`\n\n", uri, region.StartLine, region.StartColumn)
	}
	for _, rl := range r.RelatedLocations {
		msg := ""
		if rl.Message != nil {
			msg = " " + rl.Message.Text
		}
		fmt.Fprintf(&b, "- related `%s:%d`%s\n", rl.PhysicalLocation.ArtifactLocation.URI, rl.PhysicalLocation.Region.StartLine, msg)
	}
	if len(r.RelatedLocations) > 0 {
		b.WriteString("\n")
	}

	if known {
		if rule.Explanation != "" {
			b.WriteString("**Why:** ")
			b.WriteString(strings.TrimSpace(rule.Explanation))
			b.WriteString("\n\n")
		}
		if rule.Remediation != "" {
			b.WriteString("**Fix:** ")
			b.WriteString(strings.TrimSpace(rule.Remediation))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// renderMarkdown renders markdown text using glamour
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
