package review

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if err := m.save(); err != nil {
				// quitting still wins over a failed save
				slog.Warn("failed to save review state", "path", m.opts.StatePath, "err", err)
				m.saveErr = err
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			if n := len(m.visible()); n > 0 {
				m.current = (m.current + 1) % n
			}

		case key.Matches(msg, m.keys.Prev):
			if n := len(m.visible()); n > 0 {
				m.current = (m.current - 1 + n) % n
			}

		case key.Matches(msg, m.keys.NextFile):
			m.jumpFile(1)

		case key.Matches(msg, m.keys.PrevFile):
			m.jumpFile(-1)

		case key.Matches(msg, m.keys.Accept):
			m.mark(StatusAccepted)

		case key.Matches(msg, m.keys.Reject):
			m.mark(StatusRejected)

		case key.Matches(msg, m.keys.Clear):
			if f, ok := m.selected(); ok {
				delete(m.status, findingID(f))
			}

		case key.Matches(msg, m.keys.Pane):
			m.activePane = (m.activePane + 1) % 3

		case key.Matches(msg, m.keys.Errors):
			m.setFilter(FilterErrors)

		case key.Matches(msg, m.keys.Warnings):
			m.setFilter(FilterWarnings)

		case key.Matches(msg, m.keys.All):
			m.setFilter(FilterAll)

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *Model) mark(s Status) {
	if f, ok := m.selected(); ok {
		m.status[findingID(f)] = s
	}
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.current = 0
}

// jumpFile moves to the first finding of the next (dir > 0) or previous
// file, wrapping around.
func (m *Model) jumpFile(dir int) {
	files := m.fileList()
	if len(files) == 0 {
		return
	}
	idx := 0
	if f, ok := m.selected(); ok {
		for i, file := range files {
			if file == resultURI(f) {
				idx = i
				break
			}
		}
	}
	target := files[(idx+dir+len(files))%len(files)]
	for i, f := range m.visible() {
		if resultURI(f) == target {
			m.current = i
			return
		}
	}
}

func (m *Model) save() error {
	if m.opts.StatePath == "" {
		return nil
	}
	return SaveReviewState(m.State(), m.opts.StatePath)
}
