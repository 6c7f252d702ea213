package tui

import tea "github.com/charmbracelet/bubbletea"

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case FileDiagnosedMsg:
		res := msg.Result
		if res.RelPath == "" {
			return m, nil
		}
		k := m.track(res.Format, res.RelPath)
		_, seen := m.files[k]
		m.files[k] = res
		if !seen {
			m.completed++
			m.markFinishedIfComplete()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
