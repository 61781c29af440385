package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/table"
	"github.com/darksworm/backoffice/pkg/theme"
	"github.com/darksworm/backoffice/pkg/timer"
)

func newController(t *testing.T, mutate func(*table.Config)) *table.Controller {
	t.Helper()
	cfg := table.Config{
		Title:  "People",
		Entity: "person",
		Columns: []model.Column{
			{Key: "name", Label: "Name"},
			{Key: "age", Label: "Age", DataType: model.DataNumber},
		},
		Rows: []model.Row{
			{"id": 1, "name": "Ana", "age": 30},
			{"id": 2, "name": "Bo"},
		},
		Settings:  store.NewMemory(),
		Nav:       store.NewMemory(),
		Scheduler: timer.NewManual(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c := table.New(cfg)
	t.Cleanup(c.Close)
	return c
}

func TestColumnWidths(t *testing.T) {
	tests := []struct {
		levels    []int
		available int
		want      []int
	}{
		{[]int{1, 2, 3}, 60, []int{10, 20, 30}},
		{[]int{2, 2, 2}, 10, []int{4, 3, 3}},
		{[]int{0, 2}, 9, []int{5, 4}},
		{[]int{1, 1}, 0, []int{0, 0}},
	}
	for _, tt := range tests {
		got := ColumnWidths(tt.levels, tt.available)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ColumnWidths(%v, %d) = %v, want %v", tt.levels, tt.available, got, tt.want)
		}
		sum := 0
		for _, w := range got {
			sum += w
		}
		if tt.available > 0 && sum != tt.available {
			t.Errorf("widths %v sum to %d, want %d", got, sum, tt.available)
		}
	}
}

func TestFractions(t *testing.T) {
	got := Fractions([]int{1, 3})
	if got[0] != 0.25 || got[1] != 0.75 {
		t.Errorf("Fractions([1 3]) = %v", got)
	}
}

func TestDateLayout(t *testing.T) {
	cases := map[string]string{
		"pt-BR": "02/01/2006",
		"en-US": "01/02/2006",
		"en-GB": "02/01/2006",
		"de-DE": "02.01.2006",
		"ja-JP": "2006/01/02",
		"sv-SE": "2006-01-02",
		"!!":    "2006-01-02",
	}
	for locale, want := range cases {
		if got := DateLayout(locale); got != want {
			t.Errorf("DateLayout(%q) = %q, want %q", locale, got, want)
		}
	}
}

func TestCellText(t *testing.T) {
	row := model.Row{"when": "2024-03-05", "tags": []any{"a", "b"}, "note": ""}
	date := model.Column{Key: "when", DataType: model.DataDate}
	if got := CellText(date, row, "pt-BR"); got != "05/03/2024" {
		t.Errorf("date = %q", got)
	}
	if got := CellText(model.Column{Key: "tags"}, row, "en-US"); got != "a, b" {
		t.Errorf("list = %q", got)
	}
	if got := CellText(model.Column{Key: "note"}, row, "en-US"); got != Placeholder {
		t.Errorf("empty = %q, want placeholder", got)
	}
	custom := model.Column{Key: "note", Render: func(any, model.Row) string { return "custom\nvalue" }}
	if got := CellText(custom, row, "en-US"); got != "custom value" {
		t.Errorf("render = %q", got)
	}
}

func TestSelectAllBox(t *testing.T) {
	c := newController(t, nil)
	if got := SelectAllBox(c); got != BoxEmpty {
		t.Errorf("none selected: %q", got)
	}
	c.ToggleOne(1)
	if got := SelectAllBox(c); got != BoxIndeterminate {
		t.Errorf("some selected: %q", got)
	}
	c.ToggleAll()
	if got := SelectAllBox(c); got != BoxChecked {
		t.Errorf("all selected: %q", got)
	}
}

func TestTableRendersHeaderRowsAndPlaceholder(t *testing.T) {
	c := newController(t, nil)
	out := ansi.Strip(Table(c, NewStyles(theme.Default()), Frame{Width: 40, Height: 10, Locale: "en-US"}))
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Name") || !strings.Contains(lines[0], "Age") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], Placeholder) {
		t.Errorf("missing age should show placeholder: %q", lines[2])
	}
	if strings.Contains(out, MenuMarker) {
		t.Error("no row menu configured, marker should be absent")
	}
}

func TestTableSortIndicator(t *testing.T) {
	c := newController(t, nil)
	c.ToggleSort("age")
	out := ansi.Strip(Table(c, NewStyles(theme.Default()), Frame{Width: 40}))
	if !strings.Contains(strings.Split(out, "\n")[0], "Age ▲") {
		t.Errorf("header lacks ascending indicator:\n%s", out)
	}
}

func TestEmptyTable(t *testing.T) {
	c := newController(t, func(cfg *table.Config) { cfg.Rows = nil })
	out := ansi.Strip(Rows(c, NewStyles(theme.Default()), Frame{Width: 40}))
	if !strings.Contains(out, "No records found") {
		t.Errorf("got:\n%s", out)
	}
}

func TestCardsShowLabelledLines(t *testing.T) {
	c := newController(t, nil)
	c.SetViewMode(table.ViewCard)
	out := ansi.Strip(Rows(c, NewStyles(theme.Default()), Frame{Width: 30}))
	if !strings.Contains(out, "Ana") || !strings.Contains(out, "Age: 30") {
		t.Errorf("card output:\n%s", out)
	}
}

func TestMenuLabels(t *testing.T) {
	c := newController(t, func(cfg *table.Config) {
		cfg.OnDelete = func(any) {}
		cfg.RowActions = []table.RowAction{{Label: "Archive"}}
	})
	s := NewStyles(theme.Default())
	c.OpenMenu(c.Rows()[0])
	out := ansi.Strip(Menu(c, s, 0))
	for _, want := range []string{"Archive", "Delete"} {
		if !strings.Contains(out, want) {
			t.Errorf("menu lacks %q:\n%s", want, out)
		}
	}
	c.DeleteFromMenu()
	if out := ansi.Strip(Menu(c, s, 0)); !strings.Contains(out, "Confirm delete") {
		t.Errorf("armed menu:\n%s", out)
	}
}

func TestBulkBarAndFooter(t *testing.T) {
	c := newController(t, func(cfg *table.Config) { cfg.OnBulkDelete = func([]any) {} })
	s := NewStyles(theme.Default())
	if got := BulkBar(c, s, 80); got != "" {
		t.Errorf("bulk bar without selection = %q", got)
	}
	c.ToggleOne(2)
	bar := ansi.Strip(BulkBar(c, s, 80))
	if !strings.Contains(bar, "1 selected") || !strings.Contains(bar, "Delete") {
		t.Errorf("bulk bar = %q", bar)
	}
	footer := ansi.Strip(Footer(c, s, 80))
	if !strings.Contains(footer, "Showing 1–2 of 2") || !strings.Contains(footer, "Page 1/1") {
		t.Errorf("footer = %q", footer)
	}
}

func TestFieldValue(t *testing.T) {
	status := model.FormField{
		Column:    model.Column{Key: "status"},
		InputType: model.InputSelect,
		Options:   []model.Option{{Label: "Active", Value: "A"}, {Label: "Blocked", Value: "B"}},
	}
	if got := FieldValue(status, "B"); got != "Blocked" {
		t.Errorf("select = %q", got)
	}
	multi := status
	multi.InputType = model.InputMultiSelect
	if got := FieldValue(multi, []any{"A", "X"}); got != "Active, X" {
		t.Errorf("multiselect = %q", got)
	}
	flag := model.FormField{InputType: model.InputBoolean}
	if FieldValue(flag, true) != "[x]" || FieldValue(flag, nil) != "[ ]" {
		t.Error("boolean rendering")
	}
	secret := model.FormField{InputType: model.InputPassword}
	if got := FieldValue(secret, "abc"); got != "•••" {
		t.Errorf("password = %q", got)
	}
}

func TestFormTitleAndButtons(t *testing.T) {
	c := newController(t, func(cfg *table.Config) {
		cfg.DisableEdit = true
	})
	c.OpenEdit(c.Rows()[0])
	out := ansi.Strip(Form(c, NewStyles(theme.Default()), FormFrame{Width: 40}))
	if !strings.Contains(out, "View person") || !strings.Contains(out, "Close") || strings.Contains(out, "Save") {
		t.Errorf("view dialog:\n%s", out)
	}
}
