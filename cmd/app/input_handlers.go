package main

import (
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/render"
	"github.com/darksworm/backoffice/pkg/table"
)

// chordWindow is how quickly the second "g" of "gg" must follow the first
const chordWindow = 500 * time.Millisecond

// handleKeyMsg routes a key press to the handler of the current mode
func (m *Model) handleKeyMsg(msg tea.KeyPressMsg) tea.Cmd {
	if m.state.Mode == model.ModeFatal {
		switch msg.String() {
		case "q", "esc", "ctrl+c", "enter":
			return tea.Quit
		}
		return nil
	}
	if m.current == nil {
		switch m.state.Mode {
		case model.ModeCommand:
			return m.handleCommandModeKeys(msg)
		case model.ModeHelp:
			return m.handlePaneKeys(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return tea.Quit
		case ":":
			return m.enterCommandMode()
		case "?":
			m.openHelp()
		}
		return nil
	}

	switch m.state.Mode {
	case model.ModeSearch:
		return m.handleSearchModeKeys(msg)
	case model.ModeCommand:
		return m.handleCommandModeKeys(msg)
	case model.ModeMenu:
		return m.handleMenuKeys(msg)
	case model.ModeForm:
		return m.handleFormKeys(msg)
	case model.ModeSettings:
		return m.handleSettingsKeys(msg)
	case model.ModePreview, model.ModeHelp:
		return m.handlePaneKeys(msg)
	}
	return m.handleNormalKeys(msg)
}

// handleNormalKeys drives the table
func (m *Model) handleNormalKeys(msg tea.KeyPressMsg) tea.Cmd {
	c := m.current.table
	key := msg.String()

	if key != "g" {
		m.state.Navigation.LastGPressed = 0
	}

	switch key {
	case "q", "ctrl+c":
		return func() tea.Msg { return model.QuitMsg{} }

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g":
		now := time.Now().UnixMilli()
		if last := m.state.Navigation.LastGPressed; last > 0 && now-last < chordWindow.Milliseconds() {
			m.rows.GoToTop()
			m.state.Navigation.LastGPressed = 0
		} else {
			m.state.Navigation.LastGPressed = now
		}
	case "G":
		m.rows.GoToBottom()

	case "right", "l", "pgdown":
		c.NextPage()
		m.rows.Reset()
		m.syncNavigators()
	case "left", "h", "pgup":
		c.PrevPage()
		m.rows.Reset()
		m.syncNavigators()
	case "home":
		c.FirstPage()
		m.rows.Reset()
		m.syncNavigators()
	case "end":
		c.LastPage()
		m.rows.Reset()
		m.syncNavigators()

	case "space":
		if row, ok := m.currentRow(); ok {
			c.ToggleOne(row.ID())
		}
	case "*":
		c.ToggleAll()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i, _ := strconv.Atoi(key)
		if !c.RunBulkAction(i - 1) {
			if c.SelectionCount() == 0 {
				m.statusService.Warn("Select rows first (space)")
			}
		}

	case "enter":
		row, ok := m.currentRow()
		if !ok {
			return nil
		}
		if c.ActivateRow(row) {
			m.enterForm()
		} else if c.CanPreview() {
			m.openPreview(row)
		}
	case "m", ".":
		if row, ok := m.currentRow(); ok {
			m.openMenu(row)
		}
	case "d", "delete":
		row, ok := m.currentRow()
		if !ok {
			return nil
		}
		if !c.CanDelete() {
			m.statusService.Warn("Deleting is not allowed for " + c.Title())
			return nil
		}
		m.openMenu(row)
		c.DeleteFromMenu()
		m.pointMenuAtDelete()
	case "D":
		if c.SelectionCount() == 0 {
			m.statusService.Warn("Select rows first (space)")
			return nil
		}
		if !c.CanBulkDelete() {
			m.statusService.Warn("Deleting is not allowed for " + c.Title())
			return nil
		}
		n := c.SelectionCount()
		if c.BulkDelete() {
			m.statusService.Info("Deleting " + pluralize(n, "record") + "…")
		} else if c.BulkDeleteArmed() {
			m.statusService.Warn("Press D again to delete " + pluralize(n, "record"))
		}

	case "v":
		c.ToggleViewMode()
		m.syncNavigators()
	case "c":
		m.openSettings()
	case "t":
		if err := c.CycleDensity(); err != nil {
			m.statusService.Report(err)
		}
		m.syncNavigators()
	case "P":
		if row, ok := m.currentRow(); ok && c.CanPreview() {
			m.openPreview(row)
		}
	case "y":
		row, ok := m.currentRow()
		if !ok || !c.CanPreview() {
			return nil
		}
		body, err := c.Preview(row)
		if err != nil {
			m.statusService.Report(err)
			return nil
		}
		return m.copier.Cmd("record "+model.KeyOf(row.ID()), body)

	case "a":
		return m.openAdd()
	case "/":
		return m.enterSearchMode()
	case ":":
		return m.enterCommandMode()
	case "r":
		m.reloadView(m.current)
	case "?":
		m.openHelp()

	case "esc":
		switch {
		case c.BulkDeleteArmed():
			c.CancelBulkDelete()
		case c.SelectionCount() > 0:
			c.ClearSelection()
		case c.Input() != "":
			c.SetQuery("")
			c.FlushQuery()
			m.inputComponents.ClearSearchInput()
			m.syncNavigators()
		}
	}
	return nil
}

// moveCursor moves within the page and spills onto the neighbouring page
// at either edge
func (m *Model) moveCursor(delta int) {
	if m.rows.Move(delta) {
		return
	}
	c := m.current.table
	st := c.Pagination()
	switch {
	case delta > 0 && st.Page < c.TotalPages():
		c.NextPage()
		m.syncNavigators()
		m.rows.GoToTop()
	case delta < 0 && st.Page > 1:
		c.PrevPage()
		m.syncNavigators()
		m.rows.GoToBottom()
	}
}

// currentRow is the row under the cursor
func (m *Model) currentRow() (model.Row, bool) {
	window := m.current.table.Window()
	i := m.rows.Cursor()
	if i < 0 || i >= len(window) {
		return nil, false
	}
	return window[i], true
}

func (m *Model) openMenu(row model.Row) {
	c := m.current.table
	if !c.HasRowMenu() {
		return
	}
	c.OpenMenu(row)
	m.menu.SetItemCount(len(c.MenuItems()))
	m.menu.Reset()
	m.state.Mode = model.ModeMenu
}

// pointMenuAtDelete moves the menu cursor onto the delete entry
func (m *Model) pointMenuAtDelete() {
	for i, it := range m.current.table.MenuItems() {
		if it.Kind == table.MenuDelete {
			m.menu.SetCursor(i)
			return
		}
	}
}

// handleMenuKeys drives the open row menu
func (m *Model) handleMenuKeys(msg tea.KeyPressMsg) tea.Cmd {
	c := m.current.table
	items := c.MenuItems()
	m.menu.SetItemCount(len(items))

	switch msg.String() {
	case "j", "down", "tab":
		m.menu.MoveDown()
	case "k", "up", "shift+tab":
		m.menu.MoveUp()
	case "enter", "space":
		if i := m.menu.Cursor(); i < len(items) {
			c.SelectMenuItem(items[i])
		}
		m.afterMenu()
	case "d":
		c.DeleteFromMenu()
		m.pointMenuAtDelete()
		m.afterMenu()
	case "esc", "q", "m", ".":
		c.CloseMenu()
		m.state.Mode = model.ModeNormal
	case "ctrl+c":
		return func() tea.Msg { return model.QuitMsg{} }
	}
	return nil
}

// afterMenu leaves menu mode once the menu has closed, following into the
// dialog or overlay the menu entry opened
func (m *Model) afterMenu() {
	c := m.current.table
	if _, open := c.MenuRow(); open {
		m.menu.SetItemCount(len(c.MenuItems()))
		return
	}
	if m.state.Mode != model.ModeMenu {
		return
	}
	if c.Form().IsOpen() {
		m.enterForm()
		return
	}
	m.state.Mode = model.ModeNormal
}

// openAdd opens the add dialog
func (m *Model) openAdd() tea.Cmd {
	c := m.current.table
	if !c.CanAdd() {
		m.statusService.Warn("Adding is not allowed for " + c.Title())
		return nil
	}
	if c.OpenAdd() {
		m.enterForm()
	}
	return nil
}

func (m *Model) enterForm() {
	m.state.Mode = model.ModeForm
	m.state.Modals.FormEditing = false
	m.focus.SetItemCount(len(m.current.table.Form().Schema()) + 2)
	m.focus.Reset()
}

// leaveForm returns to the table once the dialog has closed
func (m *Model) leaveForm() {
	m.inputComponents.BlurInputs()
	m.state.Modals.FormEditing = false
	m.state.Mode = model.ModeNormal
}

// handleFormKeys drives the add, edit or view dialog
func (m *Model) handleFormKeys(msg tea.KeyPressMsg) tea.Cmd {
	o := m.current.table.Form()
	if !o.IsOpen() {
		m.leaveForm()
		return nil
	}
	key := msg.String()

	if o.ConfirmingDiscard() {
		switch key {
		case "y", "Y":
			o.ConfirmDiscard()
			m.leaveForm()
		case "n", "N", "esc":
			o.CancelDiscard()
		}
		return nil
	}

	schema := o.Schema()
	if m.state.Modals.FormEditing {
		switch key {
		case "enter":
			if i := m.focus.Cursor(); i < len(schema) {
				o.SetField(schema[i].Key, parseFieldInput(schema[i], m.inputComponents.GetFieldValue()))
			}
			m.inputComponents.BlurInputs()
			m.state.Modals.FormEditing = false
			return nil
		case "esc":
			m.inputComponents.BlurInputs()
			m.state.Modals.FormEditing = false
			return nil
		}
		return m.inputComponents.UpdateFieldInput(msg)
	}

	switch key {
	case "tab", "down", "j":
		m.focus.MoveDown()
	case "shift+tab", "up", "k":
		m.focus.MoveUp()
	case "ctrl+s":
		return m.submitForm()
	case "esc", "q":
		m.dismissForm()
	case "left", "h":
		if i := m.focus.Cursor(); i < len(schema) && !o.FieldDisabled(schema[i]) {
			cycleOption(o, schema[i], -1)
		}
	case "right", "l":
		if i := m.focus.Cursor(); i < len(schema) && !o.FieldDisabled(schema[i]) {
			cycleOption(o, schema[i], 1)
		}
	case "enter", "space":
		return m.activateFormFocus()
	}
	return nil
}

// activateFormFocus presses the focused button or edits the focused field
func (m *Model) activateFormFocus() tea.Cmd {
	o := m.current.table.Form()
	schema := o.Schema()
	i := m.focus.Cursor()
	switch {
	case i == len(schema):
		if o.ModalMode() == form.ModalView {
			m.dismissForm()
			return nil
		}
		return m.submitForm()
	case i == len(schema)+1:
		m.dismissForm()
		return nil
	case i < 0 || i > len(schema):
		return nil
	}

	f := schema[i]
	if o.FieldDisabled(f) {
		return nil
	}
	switch f.InputType {
	case model.InputBoolean:
		b, _ := o.Value(f.Key).(bool)
		o.SetField(f.Key, !b)
		return nil
	case model.InputSelect:
		cycleOption(o, f, 1)
		return nil
	}
	m.state.Modals.FormEditing = true
	return m.inputComponents.EditField(editableText(f, o.Value(f.Key)))
}

func (m *Model) dismissForm() {
	if m.current.table.Form().RequestDismiss() == form.DismissClosed {
		m.leaveForm()
	}
}

// cycleOption steps a select field through its options
func cycleOption(o *form.Orchestrator, f model.FormField, step int) {
	if f.InputType != model.InputSelect || len(f.Options) == 0 {
		return
	}
	cur := -1
	v := o.Value(f.Key)
	for i, opt := range f.Options {
		if model.KeyOf(opt.Value) == model.KeyOf(v) {
			cur = i
			break
		}
	}
	n := len(f.Options)
	next := (cur + step + n) % n
	if cur < 0 && step < 0 {
		next = n - 1
	}
	o.SetField(f.Key, f.Options[next].Value)
}

// editableText is the text placed in the editor for a stored value
func editableText(f model.FormField, v any) string {
	if f.IsMulti() {
		return render.FieldValue(f, v)
	}
	return engine.Stringify(v)
}

// parseFieldInput turns edited text back into a form value. Multiselect
// text is a comma separated list of option labels or values. Numbers stay
// text; the data source validates and coerces them.
func parseFieldInput(f model.FormField, text string) any {
	if !f.IsMulti() {
		return text
	}
	out := []any{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, optionValue(f, part))
	}
	return out
}

func optionValue(f model.FormField, text string) any {
	for _, o := range f.Options {
		if strings.EqualFold(o.Label, text) || strings.EqualFold(model.KeyOf(o.Value), text) {
			return o.Value
		}
	}
	return text
}

func (m *Model) openSettings() {
	m.settings.SetItemCount(len(m.current.table.Settings().Columns()))
	m.settings.Reset()
	m.state.Mode = model.ModeSettings
}

// handleSettingsKeys drives the column settings panel
func (m *Model) handleSettingsKeys(msg tea.KeyPressMsg) tea.Cmd {
	c := m.current.table
	cols := c.Settings().Columns()
	m.settings.SetItemCount(len(cols))
	i := m.settings.Cursor()

	var err error
	switch msg.String() {
	case "j", "down":
		m.settings.MoveDown()
	case "k", "up":
		m.settings.MoveUp()
	case "space", "enter":
		if i < len(cols) {
			err = c.ToggleColumn(cols[i].Key)
		}
	case "w":
		if i < len(cols) {
			err = c.CycleColumnWidth(cols[i].Key)
		}
	case "K":
		if c.MoveColumnUp(i) {
			m.settings.MoveUp()
		}
	case "J":
		if c.MoveColumnDown(i) {
			m.settings.MoveDown()
		}
	case "d", "t":
		err = c.CycleDensity()
	case "esc", "q", "c":
		m.state.Mode = model.ModeNormal
	case "ctrl+c":
		return func() tea.Msg { return model.QuitMsg{} }
	}
	if err != nil {
		m.statusService.Report(err)
	}
	m.syncNavigators()
	return nil
}

func (m *Model) openHelp() {
	m.pane.SetItemCount(len(helpLines(m.autocompleteEngine)))
	m.pane.SetViewportHeight(m.modalHeight())
	m.pane.Reset()
	m.state.Mode = model.ModeHelp
}

// handlePaneKeys scrolls the preview and help overlays
func (m *Model) handlePaneKeys(msg tea.KeyPressMsg) tea.Cmd {
	page := max(1, m.modalHeight()-1)
	switch msg.String() {
	case "j", "down":
		m.pane.Scroll(1)
	case "k", "up":
		m.pane.Scroll(-1)
	case "pgdown", "space":
		m.pane.Scroll(page)
	case "pgup":
		m.pane.Scroll(-page)
	case "g", "home":
		m.pane.Reset()
	case "G", "end":
		m.pane.Scroll(m.pane.ItemCount())
	case "y":
		if m.state.Mode == model.ModePreview {
			return m.copier.Cmd(m.state.Modals.PreviewTitle, m.state.Modals.PreviewBody)
		}
	case "esc", "q", "?", "enter":
		m.state.Mode = model.ModeNormal
		m.state.ResetModals()
	case "ctrl+c":
		return func() tea.Msg { return model.QuitMsg{} }
	}
	return nil
}
