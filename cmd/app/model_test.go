package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/darksworm/backoffice/pkg/api"
	"github.com/darksworm/backoffice/pkg/config"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/schema"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/timer"
)

const testCatalog = `
entities:
  - name: products
    title: Products
    entity: product
    source:
      rows:
        - {id: 1, name: Apple, price: 3, status: active}
        - {id: 2, name: Banana, price: 1, status: active}
        - {id: 3, name: Cherry, price: 7, status: inactive}
        - {id: 4, name: Date, price: 5, status: active}
        - {id: 5, name: Elderberry, price: 9, status: inactive}
    columns:
      - {key: name, label: Name}
      - {key: price, label: Price, dataType: number}
      - {key: status, label: Status, dataType: status}
    fields:
      - {key: name, label: Name, required: true}
      - {key: price, label: Price, inputType: number}
      - key: status
        label: Status
        inputType: select
        options:
          - {label: Active, value: active}
          - {label: Inactive, value: inactive}
  - name: tenants
    title: Tenants
    access: read-only
    source:
      rows:
        - {id: t1, name: Acme}
        - {id: t2, name: Globex}
    columns:
      - {key: name, label: Name}
`

func newTestModel(t *testing.T) (*Model, *timer.Manual) {
	t.Helper()
	t.Setenv("BACKOFFICE_COPY_COMMAND", "true")
	cat, err := schema.Parse([]byte(testCatalog), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	clock := timer.NewManual()
	m := NewModel(Dependencies{
		Config:    config.GetDefaultConfig(),
		Catalog:   cat,
		Settings:  store.NewMemory(),
		Scheduler: clock,
	})
	t.Cleanup(m.Shutdown)
	if err := m.OpenInitialEntity(""); err != nil {
		t.Fatalf("OpenInitialEntity: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m, clock
}

func keyMsg(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "ctrl+s":
		return tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
	}
	r := []rune(k)[0]
	return tea.KeyPressMsg{Code: r, Text: k}
}

// press sends keys in order and returns the command of the last one
func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// run executes cmd and feeds the messages that arrive promptly back into
// the model. Commands that block (ticks, the event pump) are abandoned.
func run(m *Model, cmd tea.Cmd) {
	for _, msg := range collect(cmd, 50*time.Millisecond) {
		_, next := m.Update(msg)
		for _, follow := range collect(next, 50*time.Millisecond) {
			m.Update(follow)
		}
	}
}

func collect(cmd tea.Cmd, wait time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c, wait)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(wait):
		return nil
	}
}

func names(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestOpenInitialEntity(t *testing.T) {
	m, _ := newTestModel(t)
	if m.current == nil || m.current.def.Name != "products" {
		t.Fatalf("current = %v, want products", m.current)
	}
	if got := len(m.current.table.Rows()); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
}

func TestOpenInitialEntity_UnknownFallsBackToFirst(t *testing.T) {
	cat, _ := schema.Parse([]byte(testCatalog), "")
	m := NewModel(Dependencies{Catalog: cat, Scheduler: timer.NewManual()})
	defer m.Shutdown()
	if err := m.OpenInitialEntity("nope"); err != nil {
		t.Fatalf("OpenInitialEntity: %v", err)
	}
	if m.current.def.Name != "products" {
		t.Errorf("current = %s, want products", m.current.def.Name)
	}
	if msg, ok := m.statusService.Current(); !ok || !strings.Contains(msg.Message, "nope") {
		t.Errorf("status = %+v, want unknown entity message", msg)
	}
}

func TestRemoteEntityWithoutAPIFails(t *testing.T) {
	cat, err := schema.Parse([]byte(`
entities:
  - name: orders
    source: {kind: remote, endpoint: /orders}
    columns: [{key: total}]
`), "")
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(Dependencies{Catalog: cat, Scheduler: timer.NewManual()})
	defer m.Shutdown()
	if err := m.OpenInitialEntity(""); err == nil {
		t.Fatal("expected an error without an API client")
	}
}

func TestNavigation_SpillsOntoNextPage(t *testing.T) {
	m, _ := newTestModel(t)
	c := m.current.table
	m.executeCommand("size 2")

	press(m, "j")
	if m.rows.Cursor() != 1 || c.Pagination().Page != 1 {
		t.Fatalf("cursor %d page %d, want 1/1", m.rows.Cursor(), c.Pagination().Page)
	}
	press(m, "j")
	if m.rows.Cursor() != 0 || c.Pagination().Page != 2 {
		t.Fatalf("cursor %d page %d, want 0/2", m.rows.Cursor(), c.Pagination().Page)
	}
	press(m, "k")
	if m.rows.Cursor() != 1 || c.Pagination().Page != 1 {
		t.Fatalf("cursor %d page %d, want 1/1 after moving back", m.rows.Cursor(), c.Pagination().Page)
	}
}

func TestNavigation_GG(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "G")
	if m.rows.Cursor() != 4 {
		t.Fatalf("G cursor = %d, want 4", m.rows.Cursor())
	}
	press(m, "g", "g")
	if m.rows.Cursor() != 0 {
		t.Errorf("gg cursor = %d, want 0", m.rows.Cursor())
	}
}

func TestSearch_FiltersAfterDebounce(t *testing.T) {
	m, clock := newTestModel(t)
	c := m.current.table

	press(m, "/")
	if m.state.Mode != model.ModeSearch {
		t.Fatalf("mode = %s, want search", m.state.Mode)
	}
	typeText(m, "berry")
	if len(c.Filtered()) != 5 {
		t.Fatalf("filtered before debounce = %d, want 5", len(c.Filtered()))
	}
	clock.Advance(m.deps.Config.Debounce())
	if got := names(c.Filtered()); len(got) != 1 || got[0] != "Elderberry" {
		t.Fatalf("filtered = %v, want [Elderberry]", got)
	}

	press(m, "enter")
	if m.state.Mode != model.ModeNormal || c.Query() != "berry" {
		t.Errorf("after enter: mode %s query %q", m.state.Mode, c.Query())
	}
	press(m, "esc")
	if c.Query() != "" || len(c.Filtered()) != 5 {
		t.Errorf("esc should clear the query, got %q", c.Query())
	}
}

func TestCommands_FilterAndSort(t *testing.T) {
	m, _ := newTestModel(t)
	c := m.current.table

	m.executeCommand("filter price > 4")
	if got := len(c.Filtered()); got != 3 {
		t.Fatalf("filtered = %d, want 3", got)
	}
	m.executeCommand("sort price desc")
	if got := names(c.Filtered()); got[0] != "Elderberry" || got[2] != "Date" {
		t.Errorf("sorted = %v", got)
	}
	m.executeCommand("or")
	m.executeCommand("filter name = Apple")
	if got := len(c.Filtered()); got != 4 {
		t.Errorf("OR filtered = %d, want 4", got)
	}
	m.executeCommand("unfilter 2")
	if got := len(c.Filters().Rules); got != 1 {
		t.Errorf("rules after unfilter = %d, want 1", got)
	}
	m.executeCommand("clear")
	if !c.Filters().IsEmpty() || len(c.Sorts()) != 0 {
		t.Errorf("clear left filters %v sorts %v", c.Filters(), c.Sorts())
	}
}

func TestCommands_Unknown(t *testing.T) {
	m, _ := newTestModel(t)
	m.executeCommand("frobnicate")
	if msg, ok := m.statusService.Current(); !ok || !strings.Contains(msg.Message, "Unknown command") {
		t.Errorf("status = %+v", msg)
	}
}

func TestCommands_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	for _, line := range []string{"q", "quit", "wq"} {
		cmd := m.executeCommand(line)
		if cmd == nil {
			t.Fatalf("%s: no command", line)
		}
		if _, ok := cmd().(model.QuitMsg); !ok {
			t.Errorf("%s: want QuitMsg", line)
		}
	}
}

func TestCommandBar_TabCompletes(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, ":")
	typeText(m, "uns")
	press(m, "tab")
	if got := m.inputComponents.GetCommandValue(); got != "unsort" {
		t.Fatalf("completed = %q, want unsort", got)
	}
	press(m, "esc")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("mode = %s", m.state.Mode)
	}
}

func TestCommandBar_SwitchesEntity(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, ":")
	typeText(m, "entity Tenants")
	press(m, "enter")
	if m.current.def.Name != "tenants" {
		t.Fatalf("current = %s, want tenants", m.current.def.Name)
	}
	if got := len(m.current.table.Rows()); got != 2 {
		t.Errorf("tenant rows = %d", got)
	}
}

func TestEntitySwitch_RestoresCursor(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "j", "j")
	if err := m.switchEntity("tenants"); err != nil {
		t.Fatal(err)
	}
	if m.rows.Cursor() != 0 {
		t.Errorf("tenants cursor = %d, want 0", m.rows.Cursor())
	}
	if err := m.switchEntity("products"); err != nil {
		t.Fatal(err)
	}
	if m.rows.Cursor() != 2 {
		t.Errorf("products cursor = %d, want 2", m.rows.Cursor())
	}
}

func TestRowDelete_NeedsTwoPresses(t *testing.T) {
	m, _ := newTestModel(t)
	ev := m.current

	press(m, "d")
	if m.state.Mode != model.ModeMenu || !ev.table.RowDeleteArmed() {
		t.Fatalf("after d: mode %s armed %v", m.state.Mode, ev.table.RowDeleteArmed())
	}
	if got := len(ev.local.Rows()); got != 5 {
		t.Fatalf("deleted on first press: %d rows", got)
	}

	cmd := press(m, "d")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("menu should close after delete, mode %s", m.state.Mode)
	}
	run(m, cmd)
	if got := names(ev.table.Rows()); len(got) != 4 || got[0] != "Banana" {
		t.Errorf("rows after delete = %v", got)
	}
}

func TestRowDelete_ArmExpires(t *testing.T) {
	m, clock := newTestModel(t)
	press(m, "d")
	clock.Advance(m.deps.Config.ArmDuration())
	if m.current.table.RowDeleteArmed() {
		t.Fatal("arm should expire")
	}
	press(m, "esc")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("mode = %s", m.state.Mode)
	}
	if got := len(m.current.local.Rows()); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
}

func TestBulkDelete(t *testing.T) {
	m, _ := newTestModel(t)
	ev := m.current

	press(m, "space", "j", "space")
	if ev.table.SelectionCount() != 2 {
		t.Fatalf("selected = %d, want 2", ev.table.SelectionCount())
	}
	press(m, "D")
	if !ev.table.BulkDeleteArmed() {
		t.Fatal("first D should arm")
	}
	run(m, press(m, "D"))
	if got := names(ev.table.Rows()); len(got) != 3 || got[0] != "Cherry" {
		t.Errorf("rows after bulk delete = %v", got)
	}
	if ev.table.SelectionCount() != 0 {
		t.Error("selection should clear after bulk delete")
	}
}

func TestEscape_CancelsInOrder(t *testing.T) {
	m, _ := newTestModel(t)
	c := m.current.table
	press(m, "*", "D")
	if !c.BulkDeleteArmed() {
		t.Fatal("expected armed bulk delete")
	}
	press(m, "esc")
	if c.BulkDeleteArmed() || c.SelectionCount() != 5 {
		t.Fatalf("first esc: armed %v selected %d", c.BulkDeleteArmed(), c.SelectionCount())
	}
	press(m, "esc")
	if c.SelectionCount() != 0 {
		t.Errorf("second esc should clear selection")
	}
}

func TestAddForm_SavesRecord(t *testing.T) {
	m, _ := newTestModel(t)
	ev := m.current

	press(m, "a")
	if m.state.Mode != model.ModeForm {
		t.Fatalf("mode = %s, want form", m.state.Mode)
	}
	press(m, "enter")
	if !m.state.Modals.FormEditing {
		t.Fatal("enter on a text field should start editing")
	}
	typeText(m, "Fig")
	press(m, "enter")
	if got := ev.table.Form().Value("name"); got != "Fig" {
		t.Fatalf("name = %v", got)
	}

	// status is a select: space cycles it
	press(m, "tab", "tab", "space")
	if got := ev.table.Form().Value("status"); got != "active" {
		t.Errorf("status = %v, want active", got)
	}

	run(m, press(m, "ctrl+s"))
	if ev.table.Form().IsOpen() || m.state.Mode != model.ModeNormal {
		t.Fatalf("form should close after saving, mode %s", m.state.Mode)
	}
	if got := len(ev.table.Rows()); got != 6 {
		t.Errorf("rows = %d, want 6", got)
	}
}

func TestAddForm_RejectsMissingRequired(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "a")
	run(m, press(m, "ctrl+s"))
	o := m.current.table.Form()
	if !o.IsOpen() || o.FieldError("name") == "" {
		t.Fatalf("want the form open with a name error, got open=%v err=%q", o.IsOpen(), o.FieldError("name"))
	}
}

func TestForm_DiscardPrompt(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "a", "enter")
	typeText(m, "x")
	press(m, "enter", "esc")
	o := m.current.table.Form()
	if !o.ConfirmingDiscard() {
		t.Fatal("dirty form should ask before closing")
	}
	press(m, "n")
	if !o.IsOpen() || o.ConfirmingDiscard() {
		t.Fatal("n should keep editing")
	}
	press(m, "esc", "y")
	if o.IsOpen() || m.state.Mode != model.ModeNormal {
		t.Errorf("y should discard, open=%v mode=%s", o.IsOpen(), m.state.Mode)
	}
}

func TestMenu_EditOpensForm(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "m")
	items := m.current.table.MenuItems()
	idx := -1
	for i, it := range items {
		if it.Label == "Edit" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("no Edit entry in %v", items)
	}
	for i := 0; i < idx; i++ {
		press(m, "j")
	}
	press(m, "enter")
	if m.state.Mode != model.ModeForm {
		t.Fatalf("mode = %s, want form", m.state.Mode)
	}
	if got := m.current.table.Form().Value("name"); got != "Apple" {
		t.Errorf("name = %v, want Apple", got)
	}
}

func TestMenu_PreviewAction(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "m", "enter")
	if m.state.Mode != model.ModePreview {
		t.Fatalf("mode = %s, want preview", m.state.Mode)
	}
	if !strings.Contains(m.state.Modals.PreviewBody, `"Apple"`) {
		t.Errorf("preview body = %s", m.state.Modals.PreviewBody)
	}
	press(m, "esc")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("mode = %s", m.state.Mode)
	}
}

func TestReadOnlyEntity_BlocksMutations(t *testing.T) {
	m, _ := newTestModel(t)
	if err := m.switchEntity("tenants"); err != nil {
		t.Fatal(err)
	}
	press(m, "a")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("add on read-only entity opened %s", m.state.Mode)
	}
	press(m, "d")
	if m.current.table.RowDeleteArmed() {
		t.Error("delete armed on read-only entity")
	}
}

func TestSettingsPanel(t *testing.T) {
	m, _ := newTestModel(t)
	c := m.current.table
	press(m, "c")
	if m.state.Mode != model.ModeSettings {
		t.Fatalf("mode = %s", m.state.Mode)
	}
	press(m, "space")
	if got := len(c.VisibleColumns()); got != 2 {
		t.Errorf("visible columns = %d, want 2", got)
	}
	press(m, "J")
	if cols := c.Settings().Columns(); cols[1].Key != "name" {
		t.Errorf("order after J = %v", cols)
	}
	press(m, "esc")
	if m.state.Mode != model.ModeNormal {
		t.Errorf("mode = %s", m.state.Mode)
	}
}

func TestRemoteRows_StaleResponsesIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cat, err := schema.Parse([]byte(`
entities:
  - name: orders
    source: {kind: remote, endpoint: /orders}
    columns: [{key: total, dataType: number}]
`), "")
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(Dependencies{
		Catalog:   cat,
		Client:    api.NewClient(api.Options{BaseURL: srv.URL}),
		Scheduler: timer.NewManual(),
	})
	defer m.Shutdown()
	if err := m.OpenInitialEntity(""); err != nil {
		t.Fatal(err)
	}
	ev := m.current
	seq := ev.fetchSeq
	if seq == 0 {
		t.Fatal("remote entity should fetch on open")
	}

	m.Update(model.RowsLoadedMsg{Entity: "orders", Seq: seq, Rows: []model.Row{{"id": 1, "total": 10}}, Total: 40})
	if ev.table.Total() != 40 || len(ev.table.Rows()) != 1 {
		t.Fatalf("total %d rows %d", ev.table.Total(), len(ev.table.Rows()))
	}

	m.Update(model.RowsLoadedMsg{Entity: "orders", Seq: seq - 1, Rows: nil, Total: 0})
	if ev.table.Total() != 40 {
		t.Error("stale response replaced the page")
	}

	m.Update(model.RowsLoadedMsg{Entity: "orders", Seq: seq, Err: errors.New("boom")})
	if ev.table.Loading() {
		t.Error("failed fetch should stop loading")
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.renderMain()
	for _, want := range []string{"Products", "Tenants", "Apple", "of 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_Fatal(t *testing.T) {
	m := NewModel(Dependencies{StartupError: errors.New("catalog missing"), Scheduler: timer.NewManual()})
	defer m.Shutdown()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if m.state.Mode != model.ModeFatal {
		t.Fatalf("mode = %s, want fatal", m.state.Mode)
	}
	out := m.renderFatal()
	if !strings.Contains(out, "Cannot start") || !strings.Contains(out, "catalog missing") {
		t.Errorf("fatal view = %q", out)
	}
	if cmd := press(m, "q"); cmd == nil {
		t.Error("q should quit from the fatal screen")
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "record"); got != "1 record" {
		t.Errorf("got %q", got)
	}
	if got := pluralize(3, "id"); got != "3 ids" {
		t.Errorf("got %q", got)
	}
}
