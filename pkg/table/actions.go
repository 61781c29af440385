package table

import (
	"github.com/darksworm/backoffice/pkg/access"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
)

// ---- capabilities ----

// Capabilities returns the evaluated access descriptor.
func (c *Controller) Capabilities() access.Capabilities { return c.caps }

// SetAccess re-evaluates permissions, e.g. after the signed-in role changed.
func (c *Controller) SetAccess(d access.Descriptor) {
	c.cfg.Access = d
	c.caps = c.cfg.Evaluate(d)
	c.form.SetPermissions(c.caps.Edit, c.cfg.DisableEdit)
}

// Hidden reports whether the table must show the no-access message.
func (c *Controller) Hidden() bool { return !c.caps.View }

// CanAdd reports whether the add button is offered.
func (c *Controller) CanAdd() bool { return c.cfg.OnAdd != nil && c.caps.Create }

// CanEditRows reports whether opened rows are editable rather than view-only.
func (c *Controller) CanEditRows() bool { return c.caps.Edit && !c.cfg.DisableEdit }

// RowClickable reports whether activating a row opens its dialog.
func (c *Controller) RowClickable() bool { return c.caps.VisualizeItem && !c.cfg.DisableView }

// CanDelete reports whether the row menu delete entry is enabled.
func (c *Controller) CanDelete() bool {
	return c.cfg.OnDelete != nil && c.caps.Delete && !c.cfg.DisableDelete
}

// CanBulkDelete reports whether the bulk delete button is offered.
func (c *Controller) CanBulkDelete() bool {
	return c.cfg.OnBulkDelete != nil && c.caps.Delete
}

// CanPreview reports whether row previews are allowed.
func (c *Controller) CanPreview() bool { return c.caps.Preview }

// CanDownload reports whether exports are allowed.
func (c *Controller) CanDownload() bool { return c.caps.Download }

// ---- dialogs ----

// Form exposes the dialog orchestrator for field edits and submission.
func (c *Controller) Form() *form.Orchestrator { return c.form }

// Dialog returns the dialog state.
func (c *Controller) Dialog() form.DialogState { return c.form.State() }

// OpenAdd opens an empty add dialog when creation is allowed.
func (c *Controller) OpenAdd() bool {
	if !c.CanAdd() || c.closed {
		return false
	}
	c.form.OpenAdd()
	return true
}

// OpenEdit opens the edit or view dialog for row.
func (c *Controller) OpenEdit(row model.Row) bool {
	if row == nil || !c.RowClickable() || c.closed {
		return false
	}
	c.form.OpenEdit(row)
	return true
}

// ActivateRow handles a click or enter on a row.
func (c *Controller) ActivateRow(row model.Row) bool {
	return c.OpenEdit(row)
}

func (c *Controller) onDialogOpen() {
	c.CloseMenu()
	if c.cfg.OnDialogOpen != nil {
		c.cfg.OnDialogOpen()
	}
}

// ---- row menu ----

// MenuKind tells the host what a menu entry does.
type MenuKind int

const (
	MenuCustom MenuKind = iota
	MenuEdit
	MenuDelete
)

// MenuItem is one rendered entry of the row menu.
type MenuItem struct {
	Kind     MenuKind
	Label    string
	Disabled bool
	Danger   bool
	// Action indexes Config.RowActions for MenuCustom entries.
	Action int
}

// OpenMenu opens the action menu for row. A pending delete confirmation of
// a previously opened menu is cancelled.
func (c *Controller) OpenMenu(row model.Row) {
	c.rowArm.Cancel()
	c.menuRow = row
}

// CloseMenu closes the row menu and disarms its delete.
func (c *Controller) CloseMenu() {
	c.rowArm.Cancel()
	c.menuRow = nil
}

// MenuRow returns the row whose menu is open.
func (c *Controller) MenuRow() (model.Row, bool) {
	return c.menuRow, c.menuRow != nil
}

// HasRowMenu reports whether rows get an overflow menu at all.
func (c *Controller) HasRowMenu() bool {
	return len(c.cfg.RowActions) > 0 || c.cfg.OnEdit != nil || c.cfg.OnDelete != nil
}

// MenuItems lists the entries of the open menu.
func (c *Controller) MenuItems() []MenuItem {
	row := c.menuRow
	if row == nil {
		return nil
	}
	var items []MenuItem
	for i, a := range c.cfg.RowActions {
		if a.Hidden != nil && a.Hidden(row) {
			continue
		}
		items = append(items, MenuItem{Kind: MenuCustom, Label: a.Label, Disabled: a.Disabled, Action: i})
	}
	if c.cfg.OnEdit != nil {
		label := "View"
		if c.CanEditRows() {
			label = "Edit"
		}
		items = append(items, MenuItem{Kind: MenuEdit, Label: label, Disabled: !c.RowClickable()})
	}
	if c.cfg.OnDelete != nil {
		label := "Delete"
		if c.rowArm.IsArmed() {
			label = "Confirm delete"
		}
		items = append(items, MenuItem{Kind: MenuDelete, Label: label, Disabled: !c.CanDelete(), Danger: true})
	}
	return items
}

// SelectMenuItem runs a MenuItems entry. Returns true if something ran or
// changed state.
func (c *Controller) SelectMenuItem(item MenuItem) bool {
	if item.Disabled {
		return false
	}
	switch item.Kind {
	case MenuEdit:
		row := c.menuRow
		c.CloseMenu()
		return c.OpenEdit(row)
	case MenuDelete:
		c.DeleteFromMenu()
		return true
	default:
		return c.RunRowAction(item.Action)
	}
}

// RunRowAction runs a custom row action on the menu row and closes the menu.
func (c *Controller) RunRowAction(i int) bool {
	row := c.menuRow
	if row == nil || i < 0 || i >= len(c.cfg.RowActions) {
		return false
	}
	a := c.cfg.RowActions[i]
	if a.Disabled || (a.Hidden != nil && a.Hidden(row)) {
		return false
	}
	c.CloseMenu()
	if a.Run != nil {
		a.Run(row)
	}
	return true
}

// DeleteFromMenu arms the row delete, or deletes the menu row when already
// armed. Returns true if OnDelete ran.
func (c *Controller) DeleteFromMenu() bool {
	row := c.menuRow
	if row == nil || !c.CanDelete() {
		return false
	}
	id := row.ID()
	return c.rowArm.Activate(func() {
		c.cfg.OnDelete(id)
		c.CloseMenu()
	})
}

// RowDeleteArmed reports whether the next delete from the menu executes.
func (c *Controller) RowDeleteArmed() bool { return c.rowArm.IsArmed() }

// ---- bulk ----

// BulkDelete arms, or deletes the live selection when already armed. The
// selection is cleared afterwards.
func (c *Controller) BulkDelete() bool {
	if !c.CanBulkDelete() {
		return false
	}
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		c.bulkArm.Cancel()
		return false
	}
	return c.bulkArm.Activate(func() {
		c.cfg.OnBulkDelete(ids)
		c.sel.Clear()
	})
}

// BulkDeleteArmed reports whether the next BulkDelete executes.
func (c *Controller) BulkDeleteArmed() bool { return c.bulkArm.IsArmed() }

// CancelBulkDelete disarms the bulk delete.
func (c *Controller) CancelBulkDelete() { c.bulkArm.Cancel() }

// BulkActions returns the custom bulk actions.
func (c *Controller) BulkActions() []BulkAction { return c.cfg.BulkActions }

// RunBulkAction runs a custom bulk action with the live selection.
func (c *Controller) RunBulkAction(i int) bool {
	if i < 0 || i >= len(c.cfg.BulkActions) {
		return false
	}
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return false
	}
	if run := c.cfg.BulkActions[i].Run; run != nil {
		run(ids)
	}
	return true
}
