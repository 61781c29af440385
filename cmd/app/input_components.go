package main

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/darksworm/backoffice/pkg/autocomplete"
	"github.com/darksworm/backoffice/pkg/model"
)

// InputComponentState manages interactive input components
type InputComponentState struct {
	searchInput  textinput.Model
	commandInput textinput.Model
	// fieldInput edits one form field at a time
	fieldInput textinput.Model
}

// NewInputComponents creates a new input component state
func NewInputComponents() *InputComponentState {
	searchInput := textinput.New()
	searchInput.Prompt = ""
	searchInput.Placeholder = "Search all columns..."
	searchInput.CharLimit = 200
	searchInput.SetWidth(50)

	commandInput := textinput.New()
	commandInput.Prompt = ""
	commandInput.Placeholder = "Enter command..."
	commandInput.CharLimit = 200
	commandInput.SetWidth(50)

	fieldInput := textinput.New()
	fieldInput.Prompt = ""
	fieldInput.CharLimit = 2000
	fieldInput.SetWidth(40)

	return &InputComponentState{
		searchInput:  searchInput,
		commandInput: commandInput,
		fieldInput:   fieldInput,
	}
}

// SetWidth sizes the inputs for a terminal width
func (ic *InputComponentState) SetWidth(cols int) {
	w := max(5, cols-12)
	ic.searchInput.SetWidth(w)
	ic.commandInput.SetWidth(w)
	ic.fieldInput.SetWidth(max(5, min(cols, 72)-8))
}

// UpdateSearchInput updates the search textinput component
func (ic *InputComponentState) UpdateSearchInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	ic.searchInput, cmd = ic.searchInput.Update(msg)
	return cmd
}

// UpdateCommandInput updates the command textinput component
func (ic *InputComponentState) UpdateCommandInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	ic.commandInput, cmd = ic.commandInput.Update(msg)
	return cmd
}

// UpdateFieldInput updates the form field editor
func (ic *InputComponentState) UpdateFieldInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	ic.fieldInput, cmd = ic.fieldInput.Update(msg)
	return cmd
}

// FocusSearchInput focuses the search input
func (ic *InputComponentState) FocusSearchInput() tea.Cmd {
	ic.searchInput.CursorEnd()
	return ic.searchInput.Focus()
}

// FocusCommandInput focuses the command input
func (ic *InputComponentState) FocusCommandInput() tea.Cmd {
	return ic.commandInput.Focus()
}

// EditField loads value into the field editor and focuses it
func (ic *InputComponentState) EditField(value string) tea.Cmd {
	ic.fieldInput.SetValue(value)
	ic.fieldInput.CursorEnd()
	return ic.fieldInput.Focus()
}

// BlurInputs removes focus from all inputs
func (ic *InputComponentState) BlurInputs() {
	ic.searchInput.Blur()
	ic.commandInput.Blur()
	ic.fieldInput.Blur()
}

// GetSearchValue returns current search input value
func (ic *InputComponentState) GetSearchValue() string {
	return ic.searchInput.Value()
}

// GetCommandValue returns current command input value
func (ic *InputComponentState) GetCommandValue() string {
	return ic.commandInput.Value()
}

// GetFieldValue returns the text being edited
func (ic *InputComponentState) GetFieldValue() string {
	return ic.fieldInput.Value()
}

// SetSearchValue sets the search input value
func (ic *InputComponentState) SetSearchValue(value string) {
	ic.searchInput.SetValue(value)
}

// SetCommandValue sets the command input value
func (ic *InputComponentState) SetCommandValue(value string) {
	ic.commandInput.SetValue(value)
	ic.commandInput.CursorEnd()
}

// ClearSearchInput clears the search input
func (ic *InputComponentState) ClearSearchInput() {
	ic.searchInput.SetValue("")
}

// ClearCommandInput clears the command input
func (ic *InputComponentState) ClearCommandInput() {
	ic.commandInput.SetValue("")
}

// completionContext is what the command bar completes against
func (m *Model) completionContext() *autocomplete.Context {
	ctx := &autocomplete.Context{}
	if m.deps.Catalog != nil {
		ctx.Entities = m.deps.Catalog.Names()
	}
	if m.current != nil {
		c := m.current.table
		ctx.Columns = c.Columns()
		ctx.Values = func(field string) []string { return c.Index().Values(field) }
	}
	return ctx
}

// suggestion returns the first completion of the command bar without its
// leading colon
func (m *Model) suggestion() string {
	query := ":" + strings.TrimPrefix(m.inputComponents.GetCommandValue(), ":")
	suggestions := m.autocompleteEngine.GetCommandAutocomplete(query, m.completionContext())
	if len(suggestions) == 0 {
		return ""
	}
	return strings.TrimPrefix(suggestions[0], ":")
}

// renderSearchBar renders the search input
func (m *Model) renderSearchBar(width int) string {
	label := m.styles.Header.Render("Search")
	return clip(label+" "+m.inputComponents.searchInput.View(), width)
}

// renderCommandBar renders the command input with a dim completion suffix.
// A known command's argument is coloured by whether it is a valid choice.
func (m *Model) renderCommandBar(width int) string {
	current := m.inputComponents.GetCommandValue()
	text := m.inputComponents.commandInput.View()

	parts := strings.Fields(current)
	if len(parts) >= 2 {
		if info := m.autocompleteEngine.GetCommandInfo(parts[0]); info != nil && info.TakesArg && closedArgument(info.ArgType) {
			all := m.autocompleteEngine.GetArgumentSuggestions(info.Command, []string{""}, m.completionContext())
			valid := false
			for _, s := range all {
				if strings.EqualFold(strings.TrimPrefix(s, ":"+info.Command+" "), parts[1]) {
					valid = true
					break
				}
			}
			argStyle := m.styles.Error
			if valid {
				argStyle = lipgloss.NewStyle().Foreground(m.styles.Palette.Accent)
			}
			text = parts[0] + " " + argStyle.Render(strings.Join(parts[1:], " "))
		}
	}

	ghost := ""
	if first := m.suggestion(); len(first) > len(current) && strings.HasPrefix(strings.ToLower(first), strings.ToLower(current)) {
		ghost = m.styles.Dim.Render(first[len(current):])
	}
	m.state.UI.Suggestion = ghost
	prompt := m.styles.Label.Render(": ")
	return clip(prompt+text+ghost, width)
}

// closedArgument reports whether an argument type has a fixed set of values
func closedArgument(argType string) bool {
	switch argType {
	case "entity", "theme", "density", "view":
		return true
	}
	return false
}

// handleSearchModeKeys handles input when in search mode. Every keystroke
// updates the query; filtering is debounced by the table.
func (m *Model) handleSearchModeKeys(msg tea.KeyPressMsg) tea.Cmd {
	c := m.current.table
	switch msg.String() {
	case "esc", "ctrl+c":
		m.inputComponents.BlurInputs()
		m.inputComponents.ClearSearchInput()
		c.SetQuery("")
		c.FlushQuery()
		m.state.Mode = model.ModeNormal
		m.syncNavigators()
		return nil
	case "enter":
		m.inputComponents.BlurInputs()
		c.FlushQuery()
		m.state.Mode = model.ModeNormal
		m.rows.Reset()
		m.syncNavigators()
		return nil
	case "up":
		m.rows.MoveUp()
		return nil
	case "down":
		m.rows.MoveDown()
		return nil
	}
	cmd := m.inputComponents.UpdateSearchInput(msg)
	c.SetQuery(m.inputComponents.GetSearchValue())
	return cmd
}

// handleCommandModeKeys handles input when in command mode
func (m *Model) handleCommandModeKeys(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.leaveCommandMode()
		return nil
	case "tab":
		if applied := m.suggestion(); applied != "" {
			m.inputComponents.SetCommandValue(applied)
			m.state.UI.Command = applied
		}
		return nil
	case "enter":
		raw := strings.TrimSpace(m.inputComponents.GetCommandValue())
		m.leaveCommandMode()
		if raw == "" {
			return nil
		}
		return m.executeCommand(raw)
	}
	cmd := m.inputComponents.UpdateCommandInput(msg)
	m.state.UI.Command = m.inputComponents.GetCommandValue()
	return cmd
}

// enterSearchMode switches to search mode, keeping the current query
func (m *Model) enterSearchMode() tea.Cmd {
	m.state.Mode = model.ModeSearch
	m.inputComponents.SetSearchValue(m.current.table.Input())
	return m.inputComponents.FocusSearchInput()
}

// enterCommandMode switches to command mode and activates the input
func (m *Model) enterCommandMode() tea.Cmd {
	m.state.Mode = model.ModeCommand
	m.state.UI.Command = ""
	m.inputComponents.ClearCommandInput()
	return m.inputComponents.FocusCommandInput()
}

func (m *Model) leaveCommandMode() {
	m.inputComponents.BlurInputs()
	m.inputComponents.ClearCommandInput()
	m.state.Mode = model.ModeNormal
	m.state.UI.Command = ""
	m.state.UI.Suggestion = ""
}
