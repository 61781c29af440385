package render

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Fixed columns excluded from width partitioning.
const (
	SelectionColumnWidth = 3
	ActionColumnWidth    = 2
)

// Fractions returns widthLevel / Σ widthLevel for each column. Levels below
// 1 count as the default level 2.
func Fractions(levels []int) []float64 {
	out := make([]float64, len(levels))
	sum := 0
	for _, l := range levels {
		sum += normLevel(l)
	}
	if sum == 0 {
		return out
	}
	for i, l := range levels {
		out[i] = float64(normLevel(l)) / float64(sum)
	}
	return out
}

// ColumnWidths splits available cells by Fractions, distributing the
// rounding remainder to the largest fractional parts so the widths sum to
// available exactly.
func ColumnWidths(levels []int, available int) []int {
	out := make([]int, len(levels))
	if available <= 0 || len(levels) == 0 {
		return out
	}
	fr := Fractions(levels)
	type rem struct {
		i    int
		frac float64
	}
	used := 0
	rems := make([]rem, len(levels))
	for i, f := range fr {
		exact := f * float64(available)
		out[i] = int(exact)
		used += out[i]
		rems[i] = rem{i, exact - float64(out[i])}
	}
	// stable: earlier columns win ties
	for left := available - used; left > 0; left-- {
		best := -1
		for j, r := range rems {
			if best < 0 || r.frac > rems[best].frac {
				best = j
			}
		}
		out[rems[best].i]++
		rems[best].frac = -1
	}
	return out
}

func normLevel(l int) int {
	if l < 1 {
		return 2
	}
	return l
}

// Truncate shortens plain text to width display cells with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Fit truncates plain text and pads it to exactly width cells.
func Fit(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// singleLine collapses newlines so a value stays on one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// padRight pads a styled string to width (ANSI-aware).
func padRight(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// clipANSI trims a styled string to width display cells.
func clipANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "")
}

// fitANSI clips and pads a styled string to exactly width.
func fitANSI(s string, width int) string {
	return padRight(clipANSI(s, width), width)
}
