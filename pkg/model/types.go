package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Row is one record in a collection. Rows carry a unique "id" that may be a
// string or a number.
type Row map[string]any

// IDField is the key that identifies a row.
const IDField = "id"

// ID returns the raw identifier of the row.
func (r Row) ID() any {
	return r[IDField]
}

// Key returns the canonical set key of the row identifier.
func (r Row) Key() string {
	return KeyOf(r.ID())
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// KeyOf renders an identifier as a canonical string so ids decoded from JSON
// (float64) and ids built in Go (int, string) land on the same key.
func KeyOf(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	case float32:
		return formatNumber(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DataType drives default cell formatting and comparison.
type DataType string

const (
	DataText   DataType = "text"
	DataNumber DataType = "number"
	DataDate   DataType = "date"
	DataStatus DataType = "status"
)

// RenderFunc formats a cell value for display.
type RenderFunc func(value any, row Row) string

// Column describes one field of a row.
type Column struct {
	Key           string     `yaml:"key" json:"key"`
	Label         string     `yaml:"label" json:"label"`
	DataType      DataType   `yaml:"dataType,omitempty" json:"dataType,omitempty"`
	DefaultHidden bool       `yaml:"defaultHidden,omitempty" json:"defaultHidden,omitempty"`
	Render        RenderFunc `yaml:"-" json:"-"`
}

// Title returns the label, falling back to the key.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// InputType selects the editor used for a form field.
type InputType string

const (
	InputText        InputType = "text"
	InputNumber      InputType = "number"
	InputEmail       InputType = "email"
	InputPassword    InputType = "password"
	InputDate        InputType = "date"
	InputSelect      InputType = "select"
	InputMultiSelect InputType = "multiselect"
	InputBoolean     InputType = "boolean"
)

// Option is one choice of a select or multiselect field.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value any    `yaml:"value" json:"value"`
}

// FieldRenderProps is handed to a custom field renderer.
type FieldRenderProps struct {
	Field    FormField
	Value    any
	Disabled bool
	Focused  bool
	Error    string
}

// FormField extends a column with editing metadata.
type FormField struct {
	Column       `yaml:",inline"`
	InputType    InputType `yaml:"inputType,omitempty" json:"inputType,omitempty"`
	Options      []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	DefaultValue any       `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Required     bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Disabled     bool      `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	HelperText   string    `yaml:"helperText,omitempty" json:"helperText,omitempty"`
	Placeholder  string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`

	RenderInput func(FieldRenderProps) string `yaml:"-" json:"-"`
}

// IsMulti reports whether the field holds a list of values.
func (f FormField) IsMulti() bool {
	return f.InputType == InputMultiSelect
}

// OptionLabel returns the label of the option whose value matches v.
func (f FormField) OptionLabel(v any) (string, bool) {
	for _, o := range f.Options {
		if KeyOf(o.Value) == KeyOf(v) {
			return o.Label, true
		}
	}
	return "", false
}

// FieldsFromColumns derives a form schema when none was provided.
func FieldsFromColumns(cols []Column) []FormField {
	out := make([]FormField, 0, len(cols))
	for _, c := range cols {
		f := FormField{Column: c, InputType: InputText}
		switch c.DataType {
		case DataNumber:
			f.InputType = InputNumber
		case DataDate:
			f.InputType = InputDate
		}
		out = append(out, f)
	}
	return out
}

// Conjunction combines filter rules.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "AND"
	ConjunctionOr  Conjunction = "OR"
)

// Operator names a filter predicate.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpFrom        Operator = "from"
	OpUntil       Operator = "until"
	OpIs          Operator = "is"
	OpIsNot       Operator = "is_not"
)

// FilterRule is a single predicate over one field. Value may be a scalar or a list.
type FilterRule struct {
	ID       string   `json:"id,omitempty"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// FilterSet is an ordered list of rules combined under one conjunction.
type FilterSet struct {
	Conjunction Conjunction  `json:"conjunction"`
	Rules       []FilterRule `json:"rules"`
}

// IsEmpty reports whether the set has no rules.
func (fs FilterSet) IsEmpty() bool {
	return len(fs.Rules) == 0
}

// Normalized fills the default conjunction.
func (fs FilterSet) Normalized() FilterSet {
	if fs.Conjunction != ConjunctionOr {
		fs.Conjunction = ConjunctionAnd
	}
	if fs.Rules == nil {
		fs.Rules = []FilterRule{}
	}
	return fs
}

// FetchParams is what a remote data source receives for each fetch.
type FetchParams struct {
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	Query   string     `json:"query"`
	Filters FilterSet  `json:"filters"`
	Sorts   []SortRule `json:"sorts"`
}
