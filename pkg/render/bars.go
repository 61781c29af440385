package render

import (
	"fmt"
	"strings"

	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/table"
)

// BulkBar renders the tri-state box, the selected count, custom bulk
// actions and the (possibly armed) bulk delete. Empty when nothing is selected.
func BulkBar(c *table.Controller, s Styles, width int) string {
	n := c.SelectionCount()
	if n == 0 {
		return ""
	}
	parts := []string{SelectAllBox(c), fmt.Sprintf("%d selected", n)}
	for i, a := range c.BulkActions() {
		parts = append(parts, s.Button.Render(fmt.Sprintf("%d %s", i+1, a.Label)))
	}
	if c.CanBulkDelete() {
		if c.BulkDeleteArmed() {
			parts = append(parts, s.Armed.Padding(0, 1).Render("Confirm delete"))
		} else {
			parts = append(parts, s.Button.Foreground(s.Palette.Danger).Render("Delete"))
		}
	}
	return clipANSI(strings.Join(parts, "  "), width)
}

// Footer renders "Showing a–b of n", the page position and the page size.
func Footer(c *table.Controller, s Styles, width int) string {
	from, to := c.Range()
	st := c.Pagination()
	var parts []string
	if total := c.Total(); total == 0 {
		parts = append(parts, "No records")
	} else {
		parts = append(parts, fmt.Sprintf("Showing %d–%d of %d", from, to, total))
	}
	parts = append(parts, fmt.Sprintf("Page %d/%d", st.Page, c.TotalPages()))
	size := fmt.Sprintf("%d per page", st.PageSize)
	if st.CustomSizeMode {
		size += " (custom)"
	}
	parts = append(parts, size)
	parts = append(parts, string(c.Density()))
	return s.Dim.Render(clipANSI(strings.Join(parts, " · "), width))
}

// FilterSummary describes the active query, filters and sorts on one line.
func FilterSummary(c *table.Controller, s Styles, width int) string {
	var parts []string
	if q := c.Input(); q != "" {
		parts = append(parts, fmt.Sprintf("/%s", q))
	}
	fs := c.Filters()
	for i, r := range fs.Rules {
		if i > 0 {
			parts = append(parts, string(fs.Normalized().Conjunction))
		}
		parts = append(parts, DescribeRule(c.Columns(), r))
	}
	if len(c.Sorts()) > 0 {
		sorts := make([]string, len(c.Sorts()))
		for i, r := range c.Sorts() {
			sorts[i] = fmt.Sprintf("%s %s", columnLabel(c.Columns(), r.Field), r.Order.Indicator())
		}
		parts = append(parts, "sort: "+strings.Join(sorts, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return s.Label.Render(clipANSI(strings.Join(parts, "  "), width))
}

// DescribeRule renders a rule as "Age > 26".
func DescribeRule(cols []model.Column, r model.FilterRule) string {
	label := columnLabel(cols, r.Field)
	op := operatorSymbol(r.Operator)
	switch r.Operator {
	case model.OpIsEmpty, model.OpIsNotEmpty:
		return label + " " + op
	}
	val := engine.Stringify(r.Value)
	if list, ok := engine.AsList(r.Value); ok {
		items := make([]string, len(list))
		for i, v := range list {
			items[i] = engine.Stringify(v)
		}
		val = "[" + strings.Join(items, ", ") + "]"
	}
	return fmt.Sprintf("%s %s %s", label, op, val)
}

func columnLabel(cols []model.Column, key string) string {
	for _, c := range cols {
		if c.Key == key {
			return c.Title()
		}
	}
	return key
}

func operatorSymbol(op model.Operator) string {
	switch op {
	case model.OpEquals:
		return "="
	case model.OpNotEquals:
		return "≠"
	case model.OpGreaterThan:
		return ">"
	case model.OpLessThan:
		return "<"
	case model.OpContains:
		return "~"
	case model.OpNotContains:
		return "!~"
	case model.OpStartsWith:
		return "^="
	case model.OpEndsWith:
		return "$="
	case model.OpIsEmpty:
		return "is empty"
	case model.OpIsNotEmpty:
		return "is not empty"
	}
	return strings.ReplaceAll(string(op), "_", " ")
}
