package render

import (
	"strings"

	"github.com/darksworm/backoffice/pkg/table"
)

// Menu renders the open row menu with cursor on the highlighted entry.
func Menu(c *table.Controller, s Styles, cursor int) string {
	items := c.MenuItems()
	if len(items) == 0 {
		return ""
	}
	width := 0
	for _, it := range items {
		width = max(width, len([]rune(it.Label)))
	}
	lines := make([]string, len(items))
	for i, it := range items {
		label := Fit(it.Label, width)
		style := s.Primary.UnsetBold()
		switch {
		case it.Disabled:
			style = s.Disabled
		case it.Kind == table.MenuDelete && c.RowDeleteArmed():
			style = s.Armed
		case it.Danger:
			style = s.Danger
		}
		prefix := "  "
		if i == cursor {
			prefix = "▸ "
			if !it.Disabled && !(it.Kind == table.MenuDelete && c.RowDeleteArmed()) {
				style = style.Reverse(true)
			}
		}
		lines[i] = prefix + style.Render(label)
	}
	return s.Modal.Render(strings.Join(lines, "\n"))
}
