package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
	"github.com/alexisbeaulieu97/fmtcell/internal/tui/components"
)

// View renders the current state of the model. Clean files are counted but
// not listed.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("fmtcell • %s", m.title())))

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	if lines := m.fileLines(); len(lines) > 0 {
		sections = append(sections, sectionStyle.Render("Files"), strings.Join(lines, "\n"))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Tally:     m.Tally(),
		Finished:  m.finished,
		Cancelled: m.cancelled,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) fileLines() []string {
	var lines []string
	for _, e := range m.order {
		res, ok := m.files[e.key]
		if !ok || res.Status() == model.StatusClean {
			continue
		}
		line := fmt.Sprintf(" %s %s [%s] %s", StatusIcon(res.Status()), e.path, e.format, detail(res))
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return lines
}

func detail(res model.FileResult) string {
	if res.Error != nil {
		return res.Error.Error()
	}
	switch res.Result.Kind() {
	case paddedcell.Converged:
		return fmt.Sprintf("needs formatting, stable after %d iterations", res.Result.Iterations())
	case paddedcell.Cycle:
		return fmt.Sprintf("cycles between %d states", len(res.Result.Members()))
	case paddedcell.Diverged:
		if res.Result.Reason() == paddedcell.ReasonStepFailed {
			return fmt.Sprintf("diverged, step failed: %v", res.Result.Err())
		}
		return fmt.Sprintf("diverged after %d iterations", res.Result.Iterations())
	default:
		return res.Result.String()
	}
}

func (m Model) title() string {
	if strings.TrimSpace(m.operation) != "" {
		return m.operation
	}
	return "diagnose"
}

// StatusIcon returns the glyph representing a file status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusClean:
		return cleanStyle.Render("✓")
	case model.StatusConverged:
		return fixableStyle.Render("✱")
	case model.StatusCycle:
		return unstableStyle.Render("↻")
	case model.StatusDiverged:
		return unstableStyle.Render("⚠")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	default:
		return pendingStyle.Render("…")
	}
}
