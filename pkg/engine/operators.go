package engine

import (
	"strings"

	"github.com/darksworm/backoffice/pkg/model"
)

// OperatorOption is one entry of an operator menu.
type OperatorOption struct {
	Label string
	Value model.Operator
}

var (
	numberOperators = []OperatorOption{
		{"equal to", model.OpEquals},
		{"not equal to", model.OpNotEquals},
		{"greater than", model.OpGreaterThan},
		{"less than", model.OpLessThan},
		{"is empty", model.OpIsEmpty},
		{"is not empty", model.OpIsNotEmpty},
	}
	dateOperators = []OperatorOption{
		{"is", model.OpEquals},
		{"before", model.OpBefore},
		{"after", model.OpAfter},
		{"from", model.OpFrom},
		{"until", model.OpUntil},
		{"is empty", model.OpIsEmpty},
		{"is not empty", model.OpIsNotEmpty},
	}
	multiSelectOperators = []OperatorOption{
		{"contains", model.OpContains},
		{"does not contain", model.OpNotContains},
		{"is exactly", model.OpIs},
		{"is not exactly", model.OpIsNot},
		{"is empty", model.OpIsEmpty},
		{"is not empty", model.OpIsNotEmpty},
	}
	selectOperators = []OperatorOption{
		{"is", model.OpIs},
		{"is not", model.OpIsNot},
		{"is empty", model.OpIsEmpty},
		{"is not empty", model.OpIsNotEmpty},
	}
	textOperators = []OperatorOption{
		{"contains", model.OpContains},
		{"does not contain", model.OpNotContains},
		{"equals", model.OpEquals},
		{"does not equal", model.OpNotEquals},
		{"starts with", model.OpStartsWith},
		{"ends with", model.OpEndsWith},
		{"is empty", model.OpIsEmpty},
		{"is not empty", model.OpIsNotEmpty},
	}
)

// OperatorsForType returns the operators offered for a field of the given
// input type. Unknown types get the text menu.
func OperatorsForType(t model.InputType) []OperatorOption {
	switch t {
	case model.InputNumber:
		return numberOperators
	case model.InputDate:
		return dateOperators
	case model.InputMultiSelect:
		return multiSelectOperators
	case model.InputSelect, model.InputBoolean:
		return selectOperators
	default:
		return textOperators
	}
}

// IsKnownOperator reports whether op is one of the supported operators.
func IsKnownOperator(op model.Operator) bool {
	switch op {
	case model.OpEquals, model.OpNotEquals, model.OpContains, model.OpNotContains,
		model.OpStartsWith, model.OpEndsWith, model.OpGreaterThan, model.OpLessThan,
		model.OpIsEmpty, model.OpIsNotEmpty, model.OpBefore, model.OpAfter,
		model.OpFrom, model.OpUntil, model.OpIs, model.OpIsNot:
		return true
	}
	return false
}

// Match evaluates a single rule against a row. Unknown operators match.
func Match(row model.Row, rule model.FilterRule) bool {
	rowValue := row[rule.Field]
	filterValue := rule.Value

	switch rule.Operator {
	case model.OpEquals:
		// A missing field never equals anything, not even "".
		return rowValue != nil && Stringify(rowValue) == Stringify(filterValue)
	case model.OpNotEquals:
		return rowValue == nil || Stringify(rowValue) != Stringify(filterValue)
	case model.OpContains:
		return contains(rowValue, filterValue)
	case model.OpNotContains:
		return !contains(rowValue, filterValue)
	case model.OpStartsWith:
		return strings.HasPrefix(lower(rowValue), lower(filterValue))
	case model.OpEndsWith:
		return strings.HasSuffix(lower(rowValue), lower(filterValue))
	case model.OpGreaterThan:
		a, okA := ToNumber(rowValue)
		b, okB := ToNumber(filterValue)
		return okA && okB && a > b
	case model.OpLessThan:
		a, okA := ToNumber(rowValue)
		b, okB := ToNumber(filterValue)
		return okA && okB && a < b
	case model.OpIsEmpty:
		return IsEmpty(rowValue)
	case model.OpIsNotEmpty:
		return !IsEmpty(rowValue)
	case model.OpBefore:
		return compareDates(rowValue, filterValue, func(c int) bool { return c < 0 })
	case model.OpAfter:
		return compareDates(rowValue, filterValue, func(c int) bool { return c > 0 })
	case model.OpFrom:
		return compareDates(rowValue, filterValue, func(c int) bool { return c >= 0 })
	case model.OpUntil:
		return compareDates(rowValue, filterValue, func(c int) bool { return c <= 0 })
	case model.OpIs:
		return is(rowValue, filterValue)
	case model.OpIsNot:
		return isNot(rowValue, filterValue)
	default:
		return true
	}
}

func lower(v any) string {
	return strings.ToLower(Stringify(v))
}

// contains: a list filter overlaps a list row, or any item is a substring of a
// scalar row. A scalar filter is a case-insensitive substring test.
func contains(rowValue, filterValue any) bool {
	if items, ok := AsList(filterValue); ok {
		if rowList, ok := AsList(rowValue); ok {
			for _, v := range items {
				if listIncludes(rowList, v) {
					return true
				}
			}
			return false
		}
		haystack := lower(rowValue)
		for _, v := range items {
			if strings.Contains(haystack, lower(v)) {
				return true
			}
		}
		return false
	}
	return strings.Contains(lower(rowValue), lower(filterValue))
}

// is: a list filter needs a list row of the same length holding every item.
// A scalar filter is membership for a list row, loose equality otherwise.
func is(rowValue, filterValue any) bool {
	if items, ok := AsList(filterValue); ok {
		rowList, ok := AsList(rowValue)
		if !ok || len(rowList) != len(items) {
			return false
		}
		for _, v := range items {
			if !listIncludes(rowList, v) {
				return false
			}
		}
		return true
	}
	if rowList, ok := AsList(rowValue); ok {
		return listIncludes(rowList, filterValue)
	}
	return LooseEqual(rowValue, filterValue)
}

// isNot negates each branch of is. A scalar row against a list filter is
// always "not".
func isNot(rowValue, filterValue any) bool {
	if _, ok := AsList(filterValue); ok {
		if _, ok := AsList(rowValue); !ok {
			return true
		}
	}
	return !is(rowValue, filterValue)
}

// compareDates fails closed: a missing or unparsable side never matches.
func compareDates(rowValue, filterValue any, pred func(int) bool) bool {
	if IsEmpty(rowValue) || IsEmpty(filterValue) {
		return false
	}
	a, okA := ToTime(rowValue)
	b, okB := ToTime(filterValue)
	if !okA || !okB {
		return false
	}
	ma, mb := a.UnixMilli(), b.UnixMilli()
	switch {
	case ma < mb:
		return pred(-1)
	case ma > mb:
		return pred(1)
	default:
		return pred(0)
	}
}
