// Package engine derives the ordered, filtered view of a collection: a free
// text query, a rule set under one conjunction, then a stable multi-key sort.
package engine

import (
	"slices"
	"strings"

	"github.com/darksworm/backoffice/pkg/model"
)

// Options carries the context a computation needs beyond the query itself.
type Options struct {
	// Columns are the visible columns. The text query only looks at these,
	// and date columns switch sorting to timestamps.
	Columns []model.Column
	// Schema is every column, visible or not. It supplies data types to the
	// sort. Falls back to Columns.
	Schema []model.Column
	// Remote means the server already filtered and sorted the rows.
	Remote bool
	// Locale drives string collation. Empty means DefaultLocale.
	Locale string
}

// Compute returns the rows matching query and filters, ordered by sorts.
// The input slice is never modified. In remote mode rows come back as given.
func Compute(rows []model.Row, query string, filters model.FilterSet, sorts []model.SortRule, opts Options) []model.Row {
	if opts.Remote {
		return rows
	}

	result := Filter(rows, query, filters, opts.Columns)
	if len(sorts) > 0 {
		result = slices.Clone(result)
		SortRows(result, sorts, opts)
	}
	return result
}

// Filter applies the text query then the rule set.
func Filter(rows []model.Row, query string, filters model.FilterSet, columns []model.Column) []model.Row {
	needle := strings.ToLower(query)
	rules := filters.Rules
	if needle == "" && len(rules) == 0 {
		return rows
	}

	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if needle != "" && !MatchQuery(row, needle, columns) {
			continue
		}
		if len(rules) > 0 && !MatchAll(row, filters) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// MatchQuery reports whether any column value contains needle. needle must
// already be lower case. nil values never match.
func MatchQuery(row model.Row, needle string, columns []model.Column) bool {
	for _, col := range columns {
		v := row[col.Key]
		if v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(v)), needle) {
			return true
		}
	}
	return false
}

// MatchAll combines every rule under the set's conjunction. An empty set matches.
func MatchAll(row model.Row, filters model.FilterSet) bool {
	if len(filters.Rules) == 0 {
		return true
	}
	if filters.Conjunction == model.ConjunctionOr {
		for _, rule := range filters.Rules {
			if Match(row, rule) {
				return true
			}
		}
		return false
	}
	for _, rule := range filters.Rules {
		if !Match(row, rule) {
			return false
		}
	}
	return true
}
