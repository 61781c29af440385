package main

import (
	"fmt"
	"strings"

	"github.com/darksworm/backoffice/pkg/autocomplete"
	"github.com/darksworm/backoffice/pkg/render"
)

var helpKeys = [][2]string{
	{"j/k ↑/↓", "move; past the edge turns the page"},
	{"gg / G", "first / last row of the page"},
	{"h/l ←/→", "previous / next page"},
	{"home/end", "first / last page"},
	{"space", "select row"},
	{"*", "select all filtered rows"},
	{"1-9", "run a bulk action on the selection"},
	{"D", "delete selection (press twice)"},
	{"enter", "open the row"},
	{"m", "row menu"},
	{"d", "delete row (press twice)"},
	{"a", "add a record"},
	{"P / y", "preview / copy the row as JSON"},
	{"/", "search all columns"},
	{":", "command bar"},
	{"v", "table or cards"},
	{"c", "column settings"},
	{"t", "cycle density"},
	{"r", "reload"},
	{"esc", "cancel delete, clear selection, clear search"},
	{"q", "quit"},
}

// helpLines lists the key bindings and the commands
func helpLines(engine *autocomplete.AutocompleteEngine) []string {
	lines := []string{"KEYS"}
	for _, k := range helpKeys {
		lines = append(lines, fmt.Sprintf("  %-10s %s", k[0], k[1]))
	}
	lines = append(lines, "", "COMMANDS")
	for _, c := range engine.GetAllCommands() {
		name := ":" + c.Command
		if len(c.Aliases) > 1 {
			var others []string
			for _, a := range c.Aliases {
				if a != c.Command {
					others = append(others, a)
				}
			}
			name += " (" + strings.Join(others, ", ") + ")"
		}
		lines = append(lines, "  "+name, "      "+c.Description)
	}
	return lines
}

func (m *Model) renderHelp() string {
	lines := helpLines(m.autocompleteEngine)
	return render.PreviewModal(m.styles, "Help", strings.Join(lines, "\n"), m.modalWidth(), m.modalHeight(), m.pane.ScrollOffset())
}
