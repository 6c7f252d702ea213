package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 30

// Progress renders how many files have been diagnosed so far.
type Progress struct {
	bar   progress.Model
	total int
}

// NewProgress creates a progress component for total files.
func NewProgress(total int) Progress {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = defaultBarWidth
	return Progress{bar: bar, total: total}
}

// Ratio is the completed fraction, capped at one.
func (p Progress) Ratio(done int) float64 {
	if p.total <= 0 {
		return 0
	}
	return math.Min(1.0, float64(done)/float64(p.total))
}

// View renders "<done>/<total> files" followed by the bar.
func (p Progress) View(done int) string {
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d files", done, p.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(p.Ratio(done)))
}
