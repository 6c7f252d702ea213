package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// DefaultContext is the number of unchanged lines shown around a change.
	DefaultContext = 3

	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
	noNewlineMarker = `\ No newline at end of file`
)

// GenerateUnifiedDiff generates a unified diff comparing expected and actual
// content with DefaultContext lines of context.
// Returns empty string if content is identical.
func GenerateUnifiedDiff(expected, actual []byte, expectedLabel, actualLabel string) string {
	return Unified(string(expected), string(actual), expectedLabel, actualLabel, DefaultContext)
}

// Unified renders a line based unified diff. Carriage returns are shown as
// "\r" so that changes which only touch line endings stay visible. Diffs over
// 10,000 lines are truncated with a marker.
func Unified(before, after, beforeLabel, afterLabel string, context int) string {
	if before == after {
		return ""
	}
	if context < 0 {
		context = 0
	}

	ops := lineOps(before, after)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", beforeLabel)
	fmt.Fprintf(&b, "+++ %s\n", afterLabel)

	for _, h := range hunks(ops, context) {
		writeHunk(&b, ops[h.start:h.end])
	}

	result := b.String()
	lines := strings.Split(result, "\n")
	if len(lines) > maxDiffLines {
		return strings.Join(lines[:maxDiffLines], "\n") + "\n" + truncateMessage + "\n"
	}
	return result
}

type lineOp struct {
	kind byte
	text string
	// positions of this line in the old and new text, zero based; only
	// meaningful for the side(s) the line belongs to.
	oldPos, newPos int
}

func lineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var ops []lineOp
	oldPos, newPos := 0, 0
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			op := lineOp{text: line, oldPos: oldPos, newPos: newPos}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.kind = ' '
				oldPos++
				newPos++
			case diffmatchpatch.DiffDelete:
				op.kind = '-'
				oldPos++
			case diffmatchpatch.DiffInsert:
				op.kind = '+'
				newPos++
			}
			ops = append(ops, op)
		}
	}
	return ops
}

// splitLines splits s after every "\n", keeping the separator.
func splitLines(s string) []string {
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

type hunk struct{ start, end int }

func hunks(ops []lineOp, context int) []hunk {
	var out []hunk
	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].kind == ' ' {
			i++
		}
		if i == len(ops) {
			break
		}

		last := i
		for j := i; j < len(ops); j++ {
			if ops[j].kind != ' ' {
				last = j
				continue
			}
			if j-last > 2*context {
				break
			}
		}

		start := max(i-context, 0)
		if len(out) > 0 && start < out[len(out)-1].end {
			start = out[len(out)-1].end
		}
		end := min(last+context+1, len(ops))
		out = append(out, hunk{start: start, end: end})
		i = end
	}
	return out
}

func writeHunk(b *strings.Builder, ops []lineOp) {
	oldCount, newCount := 0, 0
	oldStart, newStart := -1, -1
	for _, op := range ops {
		if op.kind != '+' {
			if oldStart < 0 {
				oldStart = op.oldPos
			}
			oldCount++
		}
		if op.kind != '-' {
			if newStart < 0 {
				newStart = op.newPos
			}
			newCount++
		}
	}
	if oldStart < 0 {
		oldStart = ops[0].oldPos - 1
	}
	if newStart < 0 {
		newStart = ops[0].newPos - 1
	}

	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldStart+1, oldCount, newStart+1, newCount)
	for _, op := range ops {
		b.WriteByte(op.kind)
		b.WriteString(visible(op.text))
		b.WriteByte('\n')
		if !strings.HasSuffix(op.text, "\n") {
			b.WriteString(noNewlineMarker)
			b.WriteByte('\n')
		}
	}
}

func visible(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.ReplaceAll(line, "\r", `\r`)
}
