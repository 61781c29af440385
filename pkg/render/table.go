package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/table"
)

// Frame is the space and cursor a view renders with.
type Frame struct {
	Width  int
	Height int
	// Cursor indexes the current page window.
	Cursor int
	Locale string
}

// Checkbox glyphs.
const (
	BoxEmpty         = "☐"
	BoxChecked       = "☑"
	BoxIndeterminate = "▣"
	MenuMarker       = "⋮"
)

// SelectAllBox returns the tri-state header checkbox.
func SelectAllBox(c *table.Controller) string {
	switch {
	case c.IsAllSelected():
		return BoxChecked
	case c.IsIndeterminate():
		return BoxIndeterminate
	default:
		return BoxEmpty
	}
}

func rowBox(c *table.Controller, row model.Row) string {
	if c.IsSelected(row.ID()) {
		return BoxChecked
	}
	return BoxEmpty
}

// Rows renders the current page in the controller's view mode.
func Rows(c *table.Controller, s Styles, f Frame) string {
	if c.Hidden() {
		return NoAccess(c, s, f)
	}
	if c.ViewMode() == table.ViewCard {
		return Cards(c, s, f)
	}
	return Table(c, s, f)
}

// NoAccess is shown instead of the table when the viewer may not see it.
func NoAccess(c *table.Controller, s Styles, f Frame) string {
	msg := s.Dim.Render(fmt.Sprintf("You do not have access to %s.", c.Title()))
	return lipgloss.Place(max(1, f.Width), max(1, f.Height), lipgloss.Center, lipgloss.Center, msg)
}

func emptyBody(c *table.Controller, s Styles) string {
	if c.Loading() {
		return s.Dim.Render("Loading…")
	}
	return s.Dim.Render("No records found")
}

// Table renders the header and the rows of the current page.
func Table(c *table.Controller, s Styles, f Frame) string {
	visible := c.VisibleColumns()
	rows := c.Window()
	sp := SpacingFor(c.Density())
	hasMenu := c.HasRowMenu()

	avail := f.Width - SelectionColumnWidth
	if hasMenu {
		avail -= ActionColumnWidth
	}
	levels := make([]int, len(visible))
	for i, v := range visible {
		levels[i] = v.WidthLevel
	}
	widths := ColumnWidths(levels, max(0, avail))

	var b strings.Builder
	b.WriteString(tableHeader(c, s, widths, sp.CellPad, hasMenu))

	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(emptyBody(c, s))
		return b.String()
	}

	perRow := 1 + sp.RowGap
	capacity := len(rows)
	if f.Height > 1 {
		capacity = max(1, (f.Height-1)/perRow)
	}
	start, end := viewport(len(rows), f.Cursor, capacity)
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(tableRow(c, s, rows[i], widths, sp.CellPad, hasMenu, i == f.Cursor, f))
		for g := 0; g < sp.RowGap && i < end-1; g++ {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func tableHeader(c *table.Controller, s Styles, widths []int, pad int, hasMenu bool) string {
	var b strings.Builder
	b.WriteString(Fit(SelectAllBox(c), SelectionColumnWidth))
	for i, col := range c.VisibleColumns() {
		w := widths[i]
		inner := max(0, w-2*pad)
		label := col.Title()
		if ind, pos := model.SortIndicator(c.Sorts(), col.Key); ind != "" {
			if len(c.Sorts()) > 1 {
				label = fmt.Sprintf("%s %s%d", label, ind, pos)
			} else {
				label = label + " " + ind
			}
		}
		cell := strings.Repeat(" ", min(pad, w)) + Fit(label, inner) + strings.Repeat(" ", max(0, min(pad, w-pad-inner)))
		b.WriteString(cell)
	}
	if hasMenu {
		b.WriteString(strings.Repeat(" ", ActionColumnWidth))
	}
	return s.Header.Render(b.String())
}

func tableRow(c *table.Controller, s Styles, row model.Row, widths []int, pad int, hasMenu, cursor bool, f Frame) string {
	selected := c.IsSelected(row.ID())
	highlighted := cursor || selected

	var b strings.Builder
	b.WriteString(Fit(rowBox(c, row), SelectionColumnWidth))
	for i, col := range c.VisibleColumns() {
		w := widths[i]
		inner := max(0, w-2*pad)
		b.WriteString(strings.Repeat(" ", min(pad, w)))
		b.WriteString(FormatCell(s, col.Column, row, f.Locale, inner, highlighted))
		b.WriteString(strings.Repeat(" ", max(0, min(pad, w-pad-inner))))
	}
	if hasMenu {
		b.WriteString(Fit(" "+MenuMarker, ActionColumnWidth))
	}
	line := b.String()
	switch {
	case cursor:
		return s.Cursor.Render(line)
	case selected:
		return s.Selected.Render(line)
	}
	return line
}

// viewport keeps cursor inside a window of capacity items.
func viewport(total, cursor, capacity int) (start, end int) {
	if capacity >= total {
		return 0, total
	}
	cursor = max(0, min(cursor, total-1))
	start = cursor - capacity/2
	start = max(0, min(start, total-capacity))
	return start, start + capacity
}

// Cards renders the current page as a card list: the first visible column
// is the card title and the rest are labelled lines.
func Cards(c *table.Controller, s Styles, f Frame) string {
	visible := c.VisibleColumns()
	rows := c.Window()
	if len(rows) == 0 || len(visible) == 0 {
		return emptyBody(c, s)
	}
	sp := SpacingFor(c.Density())
	inner := max(4, f.Width-4)

	cards := make([]string, len(rows))
	for i, row := range rows {
		cards[i] = card(c, s, row, inner, i == f.Cursor, f.Locale)
	}

	// walk back from the cursor while cards still fit
	cursor := max(0, min(f.Cursor, len(rows)-1))
	start, used := cursor, 0
	if f.Height > 0 {
		for j := cursor; j >= 0; j-- {
			h := lipgloss.Height(cards[j]) + sp.CardGap
			if used+h > f.Height && j != cursor {
				break
			}
			used += h
			start = j
		}
	} else {
		start = 0
	}

	var out []string
	used = 0
	for j := start; j < len(cards); j++ {
		h := lipgloss.Height(cards[j]) + sp.CardGap
		if f.Height > 0 && used+h > f.Height && j > cursor {
			break
		}
		used += h
		out = append(out, cards[j])
	}
	gap := "\n" + strings.Repeat("\n", sp.CardGap)
	return strings.Join(out, gap)
}

func card(c *table.Controller, s Styles, row model.Row, width int, focused bool, locale string) string {
	visible := c.VisibleColumns()
	primary, secondary := visible[0], visible[1:]

	title := Truncate(CellText(primary.Column, row, locale), width-4)
	head := rowBox(c, row) + " " + s.Primary.Render(title)
	if c.HasRowMenu() {
		head = padRight(head, width-1) + MenuMarker
	}
	lines := []string{head}

	labelWidth := 0
	for _, col := range secondary {
		labelWidth = max(labelWidth, lipgloss.Width(col.Title()))
	}
	labelWidth = min(labelWidth, width/2)
	for _, col := range secondary {
		label := s.Label.Render(Fit(col.Title(), labelWidth) + ": ")
		value := FormatCell(s, col.Column, row, locale, max(1, width-labelWidth-2), false)
		lines = append(lines, label+strings.TrimRight(value, " "))
	}

	style := s.Card
	if focused {
		style = s.CardFocus
	}
	if c.IsSelected(row.ID()) {
		style = style.BorderForeground(s.Palette.Accent)
	}
	return style.Width(width + 2).Render(strings.Join(lines, "\n"))
}
