package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/fmtcell/internal/engine"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/tui/components"
)

// FileDiagnosedMsg reports that a file has been diagnosed.
type FileDiagnosedMsg struct {
	Result model.FileResult
}

type tickMsg struct{}

type entry struct {
	key    string
	format string
	path   string
}

// Model contains the Bubbletea state for a diagnosis run.
type Model struct {
	operation      string
	order          []entry
	files          map[string]model.FileResult
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a TUI model tracking every job of plan.
func NewModel(operation string, plan *engine.ExecutionPlan, nonInteractive bool) Model {
	m := Model{
		operation:      operation,
		files:          make(map[string]model.FileResult),
		nonInteractive: nonInteractive,
	}

	if plan != nil {
		for _, level := range plan.Levels {
			for _, job := range level.Jobs {
				m.track(job.Format, job.RelPath)
			}
		}
	}

	return m
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalFiles returns the number of files tracked by the model.
func (m Model) TotalFiles() int {
	return m.total
}

// CompletedFiles returns the number of diagnosed files.
func (m Model) CompletedFiles() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// IsCancelled reports whether the user interrupted the run.
func (m Model) IsCancelled() bool {
	return m.cancelled
}

// Tally counts diagnosed files per outcome.
func (m Model) Tally() components.Tally {
	var t components.Tally
	for _, e := range m.order {
		res, ok := m.files[e.key]
		if !ok {
			continue
		}
		switch res.Status() {
		case model.StatusClean:
			t.Clean++
		case model.StatusConverged:
			t.Converged++
		case model.StatusCycle:
			t.Cycle++
		case model.StatusDiverged:
			t.Diverged++
		case model.StatusFailed:
			t.Failed++
		}
	}
	return t
}

func key(format, relPath string) string {
	return format + ":" + relPath
}

func (m *Model) track(format, relPath string) string {
	k := key(format, relPath)
	for _, e := range m.order {
		if e.key == k {
			return k
		}
	}
	m.order = append(m.order, entry{key: k, format: format, path: relPath})
	m.total++
	return k
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}
