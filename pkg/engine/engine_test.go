package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/darksworm/backoffice/pkg/model"
)

func people() []model.Row {
	return []model.Row{
		{"id": 1, "name": "Ana", "age": 30},
		{"id": 2, "name": "Bo", "age": 25},
	}
}

var nameColumn = []model.Column{{Key: "name", Label: "Name"}}

func ids(rows []model.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func TestCompute_SortByAgeAscending(t *testing.T) {
	got := Compute(people(), "", model.FilterSet{}, []model.SortRule{{Field: "age", Order: model.SortAsc}}, Options{Columns: nameColumn})
	if want := []any{2, 1}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Compute() ids = %v, want %v", ids(got), want)
	}
}

func TestCompute_QueryIsCaseInsensitiveSubstring(t *testing.T) {
	got := Compute(people(), "an", model.FilterSet{}, nil, Options{Columns: nameColumn})
	if want := []any{1}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Compute() ids = %v, want %v", ids(got), want)
	}

	got = Compute(people(), "AN", model.FilterSet{}, nil, Options{Columns: nameColumn})
	if len(got) != 1 || got[0]["name"] != "Ana" {
		t.Errorf("upper-case query kept %v", ids(got))
	}
}

func TestCompute_QueryIgnoresHiddenColumns(t *testing.T) {
	rows := []model.Row{{"id": 1, "name": "Ana", "secret": "bo"}}
	got := Compute(rows, "bo", model.FilterSet{}, nil, Options{Columns: nameColumn})
	if len(got) != 0 {
		t.Errorf("query matched a column that is not visible: %v", got)
	}
}

func TestCompute_GreaterThanRule(t *testing.T) {
	filters := model.FilterSet{
		Conjunction: model.ConjunctionAnd,
		Rules:       []model.FilterRule{{Field: "age", Operator: model.OpGreaterThan, Value: 26}},
	}
	got := Compute(people(), "", filters, nil, Options{})
	if want := []any{1}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Compute() ids = %v, want %v", ids(got), want)
	}
}

func TestCompute_RemoteModeReturnsRowsUnchanged(t *testing.T) {
	rows := people()
	filters := model.FilterSet{Rules: []model.FilterRule{{Field: "age", Operator: model.OpGreaterThan, Value: 100}}}
	got := Compute(rows, "zzz", filters, []model.SortRule{{Field: "age"}}, Options{Remote: true})
	if !reflect.DeepEqual(ids(got), ids(rows)) {
		t.Errorf("remote Compute() ids = %v, want %v", ids(got), ids(rows))
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	rows := people()
	_ = Compute(rows, "", model.FilterSet{}, []model.SortRule{{Field: "age", Order: model.SortAsc}}, Options{})
	if rows[0]["name"] != "Ana" {
		t.Errorf("input reordered: %v", ids(rows))
	}
}

func TestCompute_Idempotent(t *testing.T) {
	rows := []model.Row{
		{"id": 1, "name": "Ana", "age": 30, "city": "Recife"},
		{"id": 2, "name": "Bruno", "age": 41, "city": "Natal"},
		{"id": 3, "name": "Carla", "age": 19, "city": "Recife"},
		{"id": 4, "name": "Dani", "age": nil, "city": "Olinda"},
	}
	cols := []model.Column{{Key: "name"}, {Key: "city"}}
	filters := model.FilterSet{
		Conjunction: model.ConjunctionOr,
		Rules: []model.FilterRule{
			{Field: "city", Operator: model.OpEquals, Value: "Recife"},
			{Field: "age", Operator: model.OpIsEmpty},
		},
	}
	sorts := []model.SortRule{{Field: "age", Order: model.SortDesc}}
	once := Compute(rows, "a", filters, sorts, Options{Columns: cols})
	twice := Compute(once, "a", filters, sorts, Options{Columns: cols})
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("second pass changed result: %v vs %v", ids(once), ids(twice))
	}
	if want := []any{1, 3, 4}; !reflect.DeepEqual(ids(once), want) {
		t.Errorf("Compute() ids = %v, want %v", ids(once), want)
	}
}

func TestSortRows_Stable(t *testing.T) {
	rows := []model.Row{
		{"id": "a", "group": "x"},
		{"id": "b", "group": "y"},
		{"id": "c", "group": "x"},
		{"id": "d", "group": "y"},
		{"id": "e", "group": "x"},
	}
	SortRows(rows, []model.SortRule{{Field: "group", Order: model.SortAsc}}, Options{})
	if want := []any{"a", "c", "e", "b", "d"}; !reflect.DeepEqual(ids(rows), want) {
		t.Errorf("SortRows() ids = %v, want %v", ids(rows), want)
	}
}

func TestSortRows_NilLastInBothDirections(t *testing.T) {
	for _, order := range []model.SortOrder{model.SortAsc, model.SortDesc} {
		rows := []model.Row{
			{"id": 1, "age": nil},
			{"id": 2, "age": 10},
			{"id": 3, "age": 20},
		}
		SortRows(rows, []model.SortRule{{Field: "age", Order: order}}, Options{})
		if last := rows[len(rows)-1].ID(); last != 1 {
			t.Errorf("order %s: last id = %v, want 1", order, last)
		}
	}
}

func TestSortRows_TieBreakChain(t *testing.T) {
	rows := []model.Row{
		{"id": 1, "city": "Recife", "age": 30},
		{"id": 2, "city": "Natal", "age": 30},
		{"id": 3, "city": "Natal", "age": 22},
	}
	SortRows(rows, []model.SortRule{
		{Field: "age", Order: model.SortDesc},
		{Field: "city", Order: model.SortAsc},
	}, Options{})
	if want := []any{2, 1, 3}; !reflect.DeepEqual(ids(rows), want) {
		t.Errorf("SortRows() ids = %v, want %v", ids(rows), want)
	}
}

func TestSortRows_NumbersAreNumeric(t *testing.T) {
	rows := []model.Row{{"id": 1, "n": 10.0}, {"id": 2, "n": 9.0}, {"id": 3, "n": 100.0}}
	SortRows(rows, []model.SortRule{{Field: "n", Order: model.SortAsc}}, Options{})
	if want := []any{2, 1, 3}; !reflect.DeepEqual(ids(rows), want) {
		t.Errorf("SortRows() ids = %v, want %v", ids(rows), want)
	}
}

func TestSortRows_DateColumnsByTimestamp(t *testing.T) {
	rows := []model.Row{
		{"id": 1, "at": "2024-03-01T10:00:00Z"},
		{"id": 2, "at": "2024-02-29"},
		{"id": 3, "at": time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)},
	}
	schema := []model.Column{{Key: "at", DataType: model.DataDate}}
	SortRows(rows, []model.SortRule{{Field: "at", Order: model.SortAsc}}, Options{Schema: schema})
	if want := []any{3, 2, 1}; !reflect.DeepEqual(ids(rows), want) {
		t.Errorf("SortRows() ids = %v, want %v", ids(rows), want)
	}
}

func TestSortRows_LocaleCollation(t *testing.T) {
	rows := []model.Row{{"id": 1, "name": "Zeca"}, {"id": 2, "name": "Ávila"}, {"id": 3, "name": "bruno"}}
	SortRows(rows, []model.SortRule{{Field: "name", Order: model.SortAsc}}, Options{Locale: "pt-BR"})
	if want := []any{2, 3, 1}; !reflect.DeepEqual(ids(rows), want) {
		t.Errorf("SortRows() ids = %v, want %v", ids(rows), want)
	}
}

func TestMatch_Operators(t *testing.T) {
	row := model.Row{
		"id":      1,
		"name":    "Contrato Alfa",
		"value":   1500.0,
		"tags":    []any{"vip", "novo"},
		"status":  "ativo",
		"empty":   "",
		"signed":  "2024-05-10",
		"qty":     3,
		"missing": nil,
	}

	tests := []struct {
		name string
		rule model.FilterRule
		want bool
	}{
		{"equals string", model.FilterRule{Field: "status", Operator: model.OpEquals, Value: "ativo"}, true},
		{"equals stringifies numbers", model.FilterRule{Field: "qty", Operator: model.OpEquals, Value: "3"}, true},
		{"not_equals", model.FilterRule{Field: "status", Operator: model.OpNotEquals, Value: "ativo"}, false},
		{"equals blank on absent key", model.FilterRule{Field: "nope", Operator: model.OpEquals, Value: ""}, false},
		{"equals blank on nil", model.FilterRule{Field: "missing", Operator: model.OpEquals, Value: ""}, false},
		{"equals blank on empty string", model.FilterRule{Field: "empty", Operator: model.OpEquals, Value: ""}, true},
		{"not_equals blank on absent key", model.FilterRule{Field: "nope", Operator: model.OpNotEquals, Value: ""}, true},
		{"contains scalar", model.FilterRule{Field: "name", Operator: model.OpContains, Value: "ALFA"}, true},
		{"contains list vs list", model.FilterRule{Field: "tags", Operator: model.OpContains, Value: []any{"x", "vip"}}, true},
		{"contains list vs list miss", model.FilterRule{Field: "tags", Operator: model.OpContains, Value: []any{"x"}}, false},
		{"contains list vs scalar", model.FilterRule{Field: "name", Operator: model.OpContains, Value: []any{"zzz", "alf"}}, true},
		{"not_contains list vs list", model.FilterRule{Field: "tags", Operator: model.OpNotContains, Value: []any{"x"}}, true},
		{"not_contains scalar", model.FilterRule{Field: "name", Operator: model.OpNotContains, Value: "alfa"}, false},
		{"starts_with", model.FilterRule{Field: "name", Operator: model.OpStartsWith, Value: "contrato"}, true},
		{"ends_with", model.FilterRule{Field: "name", Operator: model.OpEndsWith, Value: "ALFA"}, true},
		{"greater_than", model.FilterRule{Field: "value", Operator: model.OpGreaterThan, Value: "1000"}, true},
		{"less_than", model.FilterRule{Field: "value", Operator: model.OpLessThan, Value: 1000}, false},
		{"less_than nil row", model.FilterRule{Field: "missing", Operator: model.OpLessThan, Value: 1000}, false},
		{"is_empty empty string", model.FilterRule{Field: "empty", Operator: model.OpIsEmpty}, true},
		{"is_empty nil", model.FilterRule{Field: "missing", Operator: model.OpIsEmpty}, true},
		{"is_empty absent key", model.FilterRule{Field: "nope", Operator: model.OpIsEmpty}, true},
		{"is_not_empty list", model.FilterRule{Field: "tags", Operator: model.OpIsNotEmpty}, true},
		{"before", model.FilterRule{Field: "signed", Operator: model.OpBefore, Value: "2024-06-01"}, true},
		{"after", model.FilterRule{Field: "signed", Operator: model.OpAfter, Value: "2024-06-01"}, false},
		{"from same day", model.FilterRule{Field: "signed", Operator: model.OpFrom, Value: "2024-05-10"}, true},
		{"until same day", model.FilterRule{Field: "signed", Operator: model.OpUntil, Value: "2024-05-10"}, true},
		{"before fails closed on missing row", model.FilterRule{Field: "missing", Operator: model.OpBefore, Value: "2030-01-01"}, false},
		{"after fails closed on missing filter", model.FilterRule{Field: "signed", Operator: model.OpAfter, Value: ""}, false},
		{"after fails closed on garbage", model.FilterRule{Field: "name", Operator: model.OpAfter, Value: "2020-01-01"}, false},
		{"is list exact", model.FilterRule{Field: "tags", Operator: model.OpIs, Value: []any{"novo", "vip"}}, true},
		{"is list different length", model.FilterRule{Field: "tags", Operator: model.OpIs, Value: []any{"vip"}}, false},
		{"is list vs scalar row", model.FilterRule{Field: "status", Operator: model.OpIs, Value: []any{"ativo"}}, false},
		{"is scalar membership", model.FilterRule{Field: "tags", Operator: model.OpIs, Value: "vip"}, true},
		{"is scalar loose number", model.FilterRule{Field: "qty", Operator: model.OpIs, Value: "3"}, true},
		{"is_not list vs scalar row", model.FilterRule{Field: "status", Operator: model.OpIsNot, Value: []any{"ativo"}}, true},
		{"is_not list exact", model.FilterRule{Field: "tags", Operator: model.OpIsNot, Value: []any{"vip", "novo"}}, false},
		{"is_not scalar membership", model.FilterRule{Field: "tags", Operator: model.OpIsNot, Value: "vip"}, false},
		{"is_not scalar", model.FilterRule{Field: "status", Operator: model.OpIsNot, Value: "inativo"}, true},
		{"unknown operator passes", model.FilterRule{Field: "status", Operator: "matches_regex", Value: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(row, tt.rule); got != tt.want {
				t.Errorf("Match(%+v) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestMatchAll_Conjunctions(t *testing.T) {
	row := model.Row{"id": 1, "age": 30, "city": "Recife"}
	rules := []model.FilterRule{
		{Field: "age", Operator: model.OpGreaterThan, Value: 40},
		{Field: "city", Operator: model.OpEquals, Value: "Recife"},
	}
	if MatchAll(row, model.FilterSet{Conjunction: model.ConjunctionAnd, Rules: rules}) {
		t.Error("AND should fail when one rule fails")
	}
	if !MatchAll(row, model.FilterSet{Conjunction: model.ConjunctionOr, Rules: rules}) {
		t.Error("OR should pass when one rule passes")
	}
	if !MatchAll(row, model.FilterSet{Conjunction: model.ConjunctionOr}) {
		t.Error("empty rule set should match")
	}
}

func TestOperatorsForType(t *testing.T) {
	tests := []struct {
		in    model.InputType
		first model.Operator
		count int
	}{
		{model.InputNumber, model.OpEquals, 6},
		{model.InputDate, model.OpEquals, 7},
		{model.InputMultiSelect, model.OpContains, 6},
		{model.InputSelect, model.OpIs, 4},
		{model.InputBoolean, model.OpIs, 4},
		{model.InputText, model.OpContains, 8},
		{"", model.OpContains, 8},
	}
	for _, tt := range tests {
		ops := OperatorsForType(tt.in)
		if len(ops) != tt.count || ops[0].Value != tt.first {
			t.Errorf("OperatorsForType(%q) = %d ops starting %s, want %d starting %s", tt.in, len(ops), ops[0].Value, tt.count, tt.first)
		}
		for _, op := range ops {
			if !IsKnownOperator(op.Value) {
				t.Errorf("OperatorsForType(%q) offers unknown operator %s", tt.in, op.Value)
			}
		}
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1, "1", true},
		{1.0, 1, true},
		{"a", "a", true},
		{"a", "b", false},
		{true, "true", true},
		{nil, nil, true},
		{nil, "", false},
		{2, "two", false},
	}
	for _, tt := range tests {
		if got := LooseEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("LooseEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
