package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87afd7")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	softStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	brokenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d75f5f"))
)

const (
	// rollCellDenom sets the piano-roll column resolution: one column per
	// 1/16 of a whole note.
	rollCellDenom = 16
	maxRollCols   = 64
	maxRollRows   = 16
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("patterngridgo inspector"))
	out.WriteString("\n\n")

	if len(m.ids) == 0 {
		out.WriteString(dimStyle.Render("graph is empty"))
		out.WriteString("\n")
	}

	for i, id := range m.ids {
		line := m.nodeLine(id)
		if i == m.cursor {
			out.WriteString(selectedStyle.Render("▸ " + line))
		} else if m.patterns[id] == nil {
			out.WriteString(brokenStyle.Render("  " + line))
		} else {
			out.WriteString("  " + line)
		}
		out.WriteString("\n")
	}

	if node, p := m.selected(); node != nil {
		out.WriteString("\n")
		out.WriteString(rollView(p))
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("j/k:select  g/G:first/last  r:refresh  q:quit"))
	out.WriteString("\n")
	return out.String()
}

// nodeLine is one row of the node list: id, kind or modifier type, and the
// evaluation status.
func (m Model) nodeLine(id string) string {
	node, ok := m.snapshot.Node(id)
	if !ok {
		return id
	}

	kind := "source"
	if node.Kind == graph.KindModifier {
		kind = node.ModifierType
	}

	status := "unevaluated"
	if p := m.patterns[id]; p != nil {
		status = fmt.Sprintf("%d events  dur %s", len(p.Events), p.EffectiveDuration())
	}
	return fmt.Sprintf("%-16s %-14s %s", id, kind, status)
}

// rollView draws the selected pattern as a pitch-by-time rune grid, one
// column per 1/16 note, loud notes brighter than quiet ones.
func rollView(p *pattern.Pattern) string {
	if p == nil {
		return brokenStyle.Render("pattern unavailable: missing inputs, failed handler, or cycle")
	}
	if len(p.Events) == 0 || p.Bounds == nil {
		return dimStyle.Render("empty pattern")
	}

	bounds := *p.Bounds
	top := bounds.MaxPitch
	bottom := bounds.MinPitch
	if top-bottom+1 > maxRollRows {
		bottom = top - maxRollRows + 1
	}

	// The roll starts at zero unless the pattern reaches into negative
	// time, which view offsets legitimately produce.
	origin := rational.Min(rational.Rational{}, bounds.MinTime)
	span := rational.Max(p.EffectiveDuration(), bounds.MaxTime).Sub(origin)
	cell := rational.New(1, rollCellDenom)
	cols := columnCeil(span, cell)
	if cols < 1 {
		cols = 1
	}
	if cols > maxRollCols {
		cols = maxRollCols
	}

	velocities := make([][]int, top-bottom+1)
	for i := range velocities {
		velocities[i] = make([]int, cols)
		for j := range velocities[i] {
			velocities[i][j] = -1
		}
	}
	for _, e := range p.Events {
		if e.Pitch < bottom || e.Pitch > top {
			continue
		}
		row := top - e.Pitch
		from := columnFloor(e.Start.Sub(origin), cell)
		to := columnCeil(e.End().Sub(origin), cell)
		if to <= from {
			to = from + 1 // zero-length notes still occupy their onset cell
		}
		for c := from; c < to && c < cols; c++ {
			if c < 0 {
				continue
			}
			if e.Velocity > velocities[row][c] {
				velocities[row][c] = e.Velocity
			}
		}
	}

	var out strings.Builder
	for row := range velocities {
		pitch := top - row
		out.WriteString(softStyle.Render(fmt.Sprintf("%4s ", noteName(pitch))))
		for _, vel := range velocities[row] {
			switch {
			case vel < 0:
				out.WriteString(dimStyle.Render("·"))
			case vel < 64:
				out.WriteString(softStyle.Render("█"))
			default:
				out.WriteString(activeStyle.Render("█"))
			}
		}
		out.WriteString("\n")
	}
	if bottom > bounds.MinPitch {
		out.WriteString(dimStyle.Render(fmt.Sprintf("     … %d lower pitches not shown", bottom-bounds.MinPitch)))
		out.WriteString("\n")
	}
	return out.String()
}

// columnFloor maps a time position to the column containing it.
func columnFloor(t, cell rational.Rational) int {
	q, err := t.Div(cell)
	if err != nil {
		return 0
	}
	return int(math.Floor(q.Float64()))
}

// columnCeil maps a time position to the first column at or after it.
func columnCeil(t, cell rational.Rational) int {
	q, err := t.Div(cell)
	if err != nil {
		return 0
	}
	return int(math.Ceil(q.Float64()))
}

// noteName converts a pitch number to a readable name, middle C = C4.
func noteName(pitch int) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := pitch/12 - 1
	return fmt.Sprintf("%s%d", names[((pitch%12)+12)%12], octave)
}
