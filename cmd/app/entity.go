package main

import (
	"bytes"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/api"
	"github.com/darksworm/backoffice/pkg/datasource"
	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/pagination"
	"github.com/darksworm/backoffice/pkg/schema"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/table"
)

// entityView is one open entity: its controller and where its rows live
type entityView struct {
	def   schema.Entity
	table *table.Controller

	// exactly one of local and remote is set
	local  *datasource.Local
	remote *datasource.Remote
	writer datasource.Writer

	nav      *store.Query
	fetchSeq uint64
}

// saveCompletedMsg carries the verdict of an add or edit back to the dialog
type saveCompletedMsg struct {
	entity  string
	sub     form.Submission
	verdict form.Verdict
}

// OpenInitialEntity opens name, or the first catalog entity when empty
func (m *Model) OpenInitialEntity(name string) error {
	if m.deps.Catalog == nil || len(m.deps.Catalog.Entities) == 0 {
		return apperrors.New(apperrors.ErrorCatalog, "CATALOG_EMPTY", "No entities to show")
	}
	if name == "" {
		name = m.deps.Catalog.Entities[0].Name
	}
	if err := m.switchEntity(name); err != nil {
		if first := m.deps.Catalog.Entities[0].Name; first != name {
			m.statusService.Report(err)
			return m.switchEntity(first)
		}
		return err
	}
	return nil
}

// switchEntity shows the named entity, building it on first use
func (m *Model) switchEntity(name string) error {
	if m.deps.Catalog == nil {
		return apperrors.New(apperrors.ErrorCatalog, "CATALOG_EMPTY", "No entities to show")
	}
	def, ok := m.deps.Catalog.Lookup(name)
	if !ok {
		return apperrors.New(apperrors.ErrorNotFound, "UNKNOWN_ENTITY", fmt.Sprintf("Unknown entity %q", name)).
			WithUserAction("Available: " + strings.Join(m.deps.Catalog.Names(), ", "))
	}
	if m.current != nil && m.current.def.Name == def.Name {
		return nil
	}

	ev, ok := m.views[def.Name]
	if !ok {
		var err error
		ev, err = m.buildEntityView(def)
		if err != nil {
			return err
		}
		m.views[def.Name] = ev
		m.startWatch(ev)
	}

	if m.current != nil {
		m.current.table.CloseMenu()
		m.current.table.CancelBulkDelete()
		m.state.Navigation.Cursor = m.rows.Cursor()
		m.state.SaveNavigationState()
	}
	m.current = ev
	m.state.RestoreNavigationState(def.Name)
	m.state.Mode = model.ModeNormal
	m.state.ResetModals()
	m.inputComponents.SetSearchValue(ev.table.Input())
	m.syncNavigators()
	m.rows.SetCursor(m.state.Navigation.Cursor)
	cblog.With("component", "app").Info("Opened entity", "entity", def.Name, "remote", ev.table.IsRemote())
	return nil
}

// buildEntityView wires a table controller to the entity's data source
func (m *Model) buildEntityView(def schema.Entity) (*entityView, error) {
	fields := def.FieldSchema()
	ev := &entityView{def: def}

	switch def.Source.Kind {
	case schema.SourceRemote:
		if m.deps.Client == nil {
			return nil, apperrors.ConfigError("API_NOT_CONFIGURED", fmt.Sprintf("%s is served by the API, but no API is configured", def.DisplayTitle())).
				WithContext("entity", def.Name).
				WithUserAction("Set api.base_url in config.toml")
		}
		ev.remote = datasource.NewRemote(api.NewCollection(m.deps.Client, def.Source.Endpoint), fields)
		ev.writer = ev.remote
	case schema.SourceFile:
		local, err := datasource.OpenLocal(m.deps.Catalog.ResolvePath(def.Source.Path), fields)
		if err != nil {
			return nil, err
		}
		ev.local, ev.writer = local, local
	default:
		rows := make([]model.Row, len(def.Source.Rows))
		for i, r := range def.Source.Rows {
			rows[i] = model.Row(r)
		}
		ev.local = datasource.NewMemory(rows, fields)
		ev.writer = ev.local
	}

	ev.nav = store.NewQuery(store.WithPrefix(m.deps.Settings, "nav-"+def.Name+"-"), pagination.ParamPage, pagination.ParamSize)

	cfg := m.deps.Config
	pageSize := def.PageSize
	if pageSize <= 0 {
		pageSize = cfg.Table.PageSize
	}
	viewMode := def.ViewMode
	if viewMode == "" {
		viewMode = cfg.Appearance.ViewMode
	}

	tc := table.Config{
		Title:      def.DisplayTitle(),
		Entity:     def.Label,
		Columns:    def.Columns,
		FormFields: def.Fields,

		OnAdd:  ev.writer.Add,
		OnEdit: ev.writer.Edit,
		OnDelete: func(id any) {
			m.enqueue(m.deleteCmd(ev, id))
		},
		OnBulkDelete: func(ids []any) {
			m.enqueue(m.bulkDeleteCmd(ev, ids))
		},

		RowActions:  m.rowActions(ev),
		BulkActions: m.bulkActions(ev),

		Access:        def.Access,
		DisableEdit:   def.DisableEdit,
		DisableDelete: def.DisableDelete,
		DisableView:   def.DisableView,

		Settings: m.deps.Settings,
		Nav:      ev.nav,

		Scheduler:     m.scheduler,
		ArmDuration:   cfg.ArmDuration(),
		DebounceDelay: cfg.Debounce(),

		Locale:   cfg.Appearance.Locale,
		PageSize: pageSize,
		ViewMode: table.ParseViewMode(viewMode),
		OnChange: m.syncNavigators,
	}
	if ev.remote != nil {
		tc.Fetch = func(p model.FetchParams) {
			m.enqueue(m.fetchCmd(ev, p))
		}
	} else {
		tc.Rows = ev.local.Rows()
	}
	ev.table = table.New(tc)
	return ev, nil
}

// rowActions are the custom row menu entries every entity gets
func (m *Model) rowActions(ev *entityView) []table.RowAction {
	return []table.RowAction{
		{
			Label:  "Preview",
			Hidden: func(model.Row) bool { return !ev.table.CanPreview() },
			Run:    func(row model.Row) { m.openPreview(row) },
		},
		{
			Label:  "Copy as JSON",
			Hidden: func(model.Row) bool { return !ev.table.CanPreview() },
			Run: func(row model.Row) {
				body, err := ev.table.Preview(row)
				if err != nil {
					m.statusService.Report(err)
					return
				}
				m.enqueue(m.copier.Cmd("record "+model.KeyOf(row.ID()), body))
			},
		},
	}
}

// bulkActions are the custom bulk bar entries every entity gets
func (m *Model) bulkActions(ev *entityView) []table.BulkAction {
	return []table.BulkAction{
		{
			Label: "Copy ids",
			Run: func(ids []any) {
				keys := make([]string, len(ids))
				for i, id := range ids {
					keys[i] = model.KeyOf(id)
				}
				m.enqueue(m.copier.Cmd(pluralize(len(ids), "id"), strings.Join(keys, "\n")))
			},
		},
	}
}

// startWatch follows outside changes to the entity's data
func (m *Model) startWatch(ev *entityView) {
	var watcher datasource.Watcher
	if ev.remote != nil {
		watcher = ev.remote
	} else if ev.local.Path() != "" {
		watcher = ev.local
	} else {
		return
	}
	name := ev.def.Name
	go func() {
		err := watcher.Watch(m.ctx, func() {
			m.emit(model.DataChangedMsg{Entity: name})
		})
		if err != nil && m.ctx.Err() == nil {
			m.emit(model.WatchStoppedMsg{Entity: name, Err: err})
		}
	}()
}

// fetchCmd requests one remote page. Only the answer to the latest
// request is applied.
func (m *Model) fetchCmd(ev *entityView, p model.FetchParams) tea.Cmd {
	ev.fetchSeq++
	seq, name, remote, ctx := ev.fetchSeq, ev.def.Name, ev.remote, m.ctx
	return func() tea.Msg {
		page, err := remote.Fetch(ctx, p)
		return model.RowsLoadedMsg{Entity: name, Seq: seq, Rows: page.Rows, Total: page.Total, Err: err}
	}
}

func (m *Model) applyRows(msg model.RowsLoadedMsg) {
	ev, ok := m.views[msg.Entity]
	if !ok || msg.Seq != ev.fetchSeq {
		return
	}
	if msg.Err != nil {
		ev.table.SetLoading(false)
		m.statusService.Report(msg.Err)
		return
	}
	ev.table.SetResult(msg.Rows, msg.Total)
	if ev == m.current {
		m.syncNavigators()
	}
}

// reloadView re-reads local rows or re-fetches the remote page
func (m *Model) reloadView(ev *entityView) {
	if ev.remote != nil {
		ev.table.Refresh()
		return
	}
	ev.table.SetRows(ev.local.Rows())
	if ev == m.current {
		m.syncNavigators()
	}
}

// submitForm runs the open dialog's callback off the UI goroutine
func (m *Model) submitForm() tea.Cmd {
	ev := m.current
	if ev == nil {
		return nil
	}
	sub, ok := ev.table.Form().Begin()
	if !ok {
		return nil
	}
	name, ctx := ev.def.Name, m.ctx
	return func() tea.Msg {
		return saveCompletedMsg{entity: name, sub: sub, verdict: sub.Run(ctx)}
	}
}

func (m *Model) applySave(msg saveCompletedMsg) tea.Cmd {
	ev, ok := m.views[msg.entity]
	if !ok {
		return nil
	}
	closed := ev.table.Form().Complete(msg.sub, msg.verdict)
	if msg.verdict.Reject {
		if msg.verdict.Message != "" {
			m.statusService.Warn(msg.verdict.Message)
		}
		return nil
	}
	verb := "added"
	if msg.sub.Mode() == form.ModeEdit {
		verb = "saved"
	}
	m.statusService.Success(fmt.Sprintf("%s %s", ev.table.Entity(), verb))
	m.reloadView(ev)
	if closed && ev == m.current && m.state.Mode == model.ModeForm {
		m.state.Mode = model.ModeNormal
		m.state.Modals.FormEditing = false
	}
	return nil
}

func (m *Model) deleteCmd(ev *entityView, id any) tea.Cmd {
	name, writer, ctx := ev.def.Name, ev.writer, m.ctx
	return func() tea.Msg {
		err := writer.Delete(ctx, id)
		return model.MutationCompletedMsg{Entity: name, Kind: model.MutationDelete, Count: 1, Err: err}
	}
}

func (m *Model) bulkDeleteCmd(ev *entityView, ids []any) tea.Cmd {
	name, writer, ctx := ev.def.Name, ev.writer, m.ctx
	return func() tea.Msg {
		err := writer.DeleteMany(ctx, ids)
		return model.MutationCompletedMsg{Entity: name, Kind: model.MutationBulkDelete, Count: len(ids), Err: err}
	}
}

func (m *Model) applyMutation(msg model.MutationCompletedMsg) {
	ev, ok := m.views[msg.Entity]
	if !ok {
		return
	}
	// a partial bulk delete still changed the data
	m.reloadView(ev)
	if msg.Err != nil {
		m.statusService.Report(msg.Err)
		return
	}
	m.statusService.Success(pluralize(msg.Count, "record") + " deleted")
}

// exportCmd encodes the filtered rows now and writes them in the background
func (m *Model) exportCmd(path string) tea.Cmd {
	c := m.current.table
	var buf bytes.Buffer
	n, err := c.Export(&buf, table.FormatForPath(path))
	if err != nil {
		m.statusService.Report(err)
		return nil
	}
	data := buf.Bytes()
	return func() tea.Msg {
		if err := store.WriteAtomic(path, data); err != nil {
			return model.ExportCompletedMsg{Path: path, Err: apperrors.StorageError("EXPORT_WRITE_FAILED", "Failed to write export").
				WithCause(err).
				WithContext("path", path)}
		}
		return model.ExportCompletedMsg{Path: path, Count: n}
	}
}

// openPreview shows a row as JSON
func (m *Model) openPreview(row model.Row) {
	body, err := m.current.table.Preview(row)
	if err != nil {
		m.statusService.Report(err)
		return
	}
	m.state.Modals.PreviewTitle = fmt.Sprintf("%s %s", m.current.table.Entity(), model.KeyOf(row.ID()))
	m.state.Modals.PreviewBody = body
	m.pane.SetItemCount(strings.Count(body, "\n") + 1)
	m.pane.SetViewportHeight(m.modalHeight())
	m.pane.Reset()
	m.state.Mode = model.ModePreview
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
