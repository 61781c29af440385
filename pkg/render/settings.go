package render

import (
	"fmt"
	"strings"

	"github.com/darksworm/backoffice/pkg/settings"
	"github.com/darksworm/backoffice/pkg/table"
)

// SettingsPanel renders the column settings: order, visibility and width
// level of every column, plus the density.
func SettingsPanel(c *table.Controller, s Styles, cursor, width int) string {
	st := c.Settings()
	labels := make(map[string]string, len(c.Columns()))
	for _, col := range c.Columns() {
		labels[col.Key] = col.Title()
	}

	lines := []string{s.Header.Render("Columns · " + c.Title()), ""}
	inner := max(10, width-4)
	for i, cs := range st.Columns() {
		box := "[ ]"
		if cs.Visible {
			box = "[x]"
		}
		bar := strings.Repeat("█", cs.WidthLevel) + strings.Repeat("░", settings.MaxWidthLevel-cs.WidthLevel)
		line := fmt.Sprintf("%s %s %s", box, Fit(labels[cs.Key], max(1, inner-12)), bar)
		if i == cursor {
			lines = append(lines, s.Cursor.Render("▸ "+line))
		} else if !cs.Visible {
			lines = append(lines, s.Dim.Render("  "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	lines = append(lines,
		"",
		s.Label.Render("Density: ")+string(c.Density()),
		s.Dim.Render("space toggle · w width · K/J move · d density · esc close"),
	)
	return s.Modal.Width(max(24, width)).Render(strings.Join(lines, "\n"))
}

// PreviewModal wraps a row preview for display, keeping at most height lines
// starting at offset.
func PreviewModal(s Styles, title, body string, width, height, offset int) string {
	all := strings.Split(body, "\n")
	offset = max(0, min(offset, len(all)-1))
	end := len(all)
	if height > 0 {
		end = min(len(all), offset+height)
	}
	inner := max(10, width-4)
	lines := []string{s.Header.Render(title), ""}
	for _, l := range all[offset:end] {
		lines = append(lines, Truncate(l, inner))
	}
	lines = append(lines, "", s.Dim.Render(fmt.Sprintf("lines %d–%d of %d · esc close", offset+1, end, len(all))))
	return s.Modal.Width(max(24, width)).Render(strings.Join(lines, "\n"))
}
