// Package review is an interactive terminal browser for stored analysis
// results. Findings can be triaged as accepted or rejected; the triage is
// persisted next to the results so a later session picks it up.
package review

import (
	"github.com/charmbracelet/bubbles/help"

	"github.com/chris-regnier/assay/internal/rules"
	"github.com/chris-regnier/assay/internal/sarif"
)

// Pane represents which pane is currently active
type Pane int

const (
	PaneFiles Pane = iota
	PaneCode
	PaneDetails
)

// Filter represents the severity filter
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
)

func (f Filter) String() string {
	switch f {
	case FilterErrors:
		return "errors"
	case FilterWarnings:
		return "warnings+"
	default:
		return "all"
	}
}

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Options struct {
	// Root is the directory result URIs are relative to.
	Root string
	// Rules supplies explanation and remediation text for the details pane.
	Rules map[string]rules.Rule
	// StatePath is where triage is saved on quit. Empty disables saving.
	StatePath string
	ResultID  string
	Reviewer  string
}

// Model is the bubbletea model for the review TUI
type Model struct {
	opts     Options
	findings []sarif.Result
	files    map[string][]sarif.Result

	// current indexes the filtered findings.
	current    int
	activePane Pane
	filter     Filter

	status map[string]Status

	keys     keyMap
	help     help.Model
	saveErr  error
	width    int
	height   int
	quitting bool
}

// NewModel creates a Model over the results of the first run in log.
func NewModel(log *sarif.Log, opts Options) *Model {
	m := &Model{
		opts:       opts,
		findings:   []sarif.Result{},
		files:      make(map[string][]sarif.Result),
		activePane: PaneFiles,
		filter:     FilterAll,
		status:     make(map[string]Status),
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	if m.opts.Rules == nil {
		m.opts.Rules = map[string]rules.Rule{}
	}

	if log == nil || len(log.Runs) == 0 {
		return m
	}
	for _, result := range log.Runs[0].Results {
		m.findings = append(m.findings, result)
		if uri := resultURI(result); uri != "" {
			m.files[uri] = append(m.files[uri], result)
		}
	}
	return m
}

// Restore applies previously saved triage. Entries for findings that no
// longer exist are ignored.
func (m *Model) Restore(state *ReviewState) {
	if state == nil {
		return
	}
	known := make(map[string]bool, len(m.findings))
	for _, f := range m.findings {
		known[findingID(f)] = true
	}
	for id, fr := range state.Findings {
		if known[id] && (fr.Status == StatusAccepted || fr.Status == StatusRejected) {
			m.status[id] = fr.Status
		}
	}
}

// Counts returns how many findings are accepted and rejected.
func (m *Model) Counts() (accepted, rejected int) {
	for _, s := range m.status {
		switch s {
		case StatusAccepted:
			accepted++
		case StatusRejected:
			rejected++
		}
	}
	return accepted, rejected
}

// SaveErr reports the error from the last save on quit, if any.
func (m *Model) SaveErr() error { return m.saveErr }

// findingID is the stable identity triage is keyed by.
func findingID(r sarif.Result) string {
	if fp := r.PartialFingerprints[sarif.FingerprintKey]; fp != "" {
		return fp
	}
	return sarif.Fingerprint(r)
}

func resultURI(r sarif.Result) string {
	if len(r.Locations) == 0 {
		return ""
	}
	return r.Locations[0].PhysicalLocation.ArtifactLocation.URI
}

func resultLine(r sarif.Result) int {
	if len(r.Locations) == 0 {
		return 0
	}
	return r.Locations[0].PhysicalLocation.Region.StartLine
}
