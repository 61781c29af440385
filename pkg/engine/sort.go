package engine

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/darksworm/backoffice/pkg/model"
)

// DefaultLocale is used for string collation when none is configured.
const DefaultLocale = "pt-BR"

// SortRows sorts rows in place by the rule chain. The sort is stable, so rows
// that tie on every rule keep their input order.
func SortRows(rows []model.Row, rules []model.SortRule, opts Options) {
	if len(rows) <= 1 || len(rules) == 0 {
		return
	}
	slices.SortStableFunc(rows, comparator(rules, opts))
}

// comparator returns a three-way compare function for the rule chain
func comparator(rules []model.SortRule, opts Options) func(a, b model.Row) int {
	// Collators are not safe for concurrent use, so each sort gets its own.
	coll := collate.New(localeTag(opts.Locale))
	schema := opts.Schema
	if schema == nil {
		schema = opts.Columns
	}
	types := columnTypes(schema)

	return func(a, b model.Row) int {
		for _, rule := range rules {
			av, bv := a[rule.Field], b[rule.Field]
			if strictEqual(av, bv) {
				continue
			}

			// nil sorts last whatever the direction
			if av == nil {
				return 1
			}
			if bv == nil {
				return -1
			}

			cmp := compareValues(av, bv, types[rule.Field], coll)
			if cmp == 0 {
				continue
			}
			if rule.Order == model.SortDesc {
				return -cmp
			}
			return cmp
		}
		return 0
	}
}

// compareValues compares two non-nil values.
// Returns negative if a < b, positive if a > b, zero if equal
func compareValues(a, b any, dt model.DataType, coll *collate.Collator) int {
	if isNumeric(a) && isNumeric(b) {
		fa, _ := ToNumber(a)
		fb, _ := ToNumber(b)
		return compareFloat(fa, fb)
	}
	if isDateLike(a, b, dt) {
		ta, okA := ToTime(a)
		tb, okB := ToTime(b)
		if okA && okB {
			return compareInt(ta.UnixMilli(), tb.UnixMilli())
		}
	}
	if dt == model.DataNumber {
		fa, okA := ToNumber(a)
		fb, okB := ToNumber(b)
		if okA && okB {
			return compareFloat(fa, fb)
		}
	}
	return coll.CompareString(Stringify(a), Stringify(b))
}

// isDateLike: both sides are time values, or the column is a date column.
func isDateLike(a, b any, dt model.DataType) bool {
	_, ta := a.(time.Time)
	_, tb := b.(time.Time)
	if ta && tb {
		return true
	}
	return dt == model.DataDate
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func localeTag(locale string) language.Tag {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Make(DefaultLocale)
	}
	return tag
}

func columnTypes(cols []model.Column) map[string]model.DataType {
	out := make(map[string]model.DataType, len(cols))
	for _, c := range cols {
		out[c.Key] = c.DataType
	}
	return out
}
