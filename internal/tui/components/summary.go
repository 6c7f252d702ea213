package components

import (
	"fmt"
	"strings"
)

// Tally counts diagnosed files per outcome.
type Tally struct {
	Clean     int
	Converged int
	Cycle     int
	Diverged  int
	Failed    int
}

// Total sums every outcome.
func (t Tally) Total() int {
	return t.Clean + t.Converged + t.Cycle + t.Diverged + t.Failed
}

// SummaryData aggregates counts for rendering summaries.
type SummaryData struct {
	Total     int
	Tally     Tally
	Finished  bool
	Cancelled bool
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary. Outcomes with no files are left out.
func (s Summary) View() string {
	if s.data.Total == 0 && !s.data.Finished && !s.data.Cancelled {
		return ""
	}

	t := s.data.Tally
	var counts []string
	for _, c := range []struct {
		n     int
		label string
	}{
		{t.Clean, "clean"},
		{t.Converged, "need formatting"},
		{t.Cycle, "cycling"},
		{t.Diverged, "diverging"},
		{t.Failed, "failed"},
	} {
		if c.n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}

	var lines []string
	if len(counts) > 0 {
		lines = append(lines, "Files: "+strings.Join(counts, ", "))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Finished && t.Cycle+t.Diverged+t.Failed > 0:
		lines = append(lines, "Finished: the formatter chain is unstable or failed on some files")
	case s.data.Finished && t.Converged > 0:
		lines = append(lines, "Finished: some files need formatting")
	case s.data.Finished:
		lines = append(lines, "Finished: every file is clean")
	}

	return strings.Join(lines, "\n")
}
