package autocomplete

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/model"
)

// symbol operators, longest first so "!=" wins over "="
var symbolOps = []struct {
	token string
	op    model.Operator
}{
	{"!=", model.OpNotEquals},
	{"!~", model.OpNotContains},
	{"^=", model.OpStartsWith},
	{"$=", model.OpEndsWith},
	{"==", model.OpEquals},
	{"=", model.OpEquals},
	{">", model.OpGreaterThan},
	{"<", model.OpLessThan},
	{"~", model.OpContains},
}

// word operators as typed, spaces or underscores
var wordOps = map[string]model.Operator{
	"equals":           model.OpEquals,
	"not equals":       model.OpNotEquals,
	"does not equal":   model.OpNotEquals,
	"contains":         model.OpContains,
	"not contains":     model.OpNotContains,
	"does not contain": model.OpNotContains,
	"starts with":      model.OpStartsWith,
	"ends with":        model.OpEndsWith,
	"greater than":     model.OpGreaterThan,
	"less than":        model.OpLessThan,
	"is empty":         model.OpIsEmpty,
	"is not empty":     model.OpIsNotEmpty,
	"before":           model.OpBefore,
	"after":            model.OpAfter,
	"from":             model.OpFrom,
	"until":            model.OpUntil,
	"is":               model.OpIs,
	"is not":           model.OpIsNot,
}

// OperatorTokens lists the operator spellings offered while typing a filter.
func OperatorTokens() []string {
	out := make([]string, 0, len(symbolOps)+len(wordOps))
	for _, s := range symbolOps {
		if s.token != "==" {
			out = append(out, s.token)
		}
	}
	for w := range wordOps {
		out = append(out, strings.ReplaceAll(w, " ", "_"))
	}
	sort.Strings(out)
	return out
}

// FindColumn resolves a column by key or label, case-insensitively.
func FindColumn(cols []model.Column, name string) (model.Column, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range cols {
		if strings.ToLower(c.Key) == name {
			return c, true
		}
	}
	for _, c := range cols {
		if strings.ToLower(c.Title()) == name {
			return c, true
		}
	}
	return model.Column{}, false
}

// splitColumn finds the longest column key or label that prefixes expr
// and returns it with the remainder.
func splitColumn(cols []model.Column, expr string) (model.Column, string, bool) {
	lowered := strings.ToLower(expr)
	var (
		best    model.Column
		bestLen = -1
	)
	for _, c := range cols {
		for _, name := range []string{c.Key, c.Title()} {
			n := strings.ToLower(name)
			if n == "" || len(n) <= bestLen || !strings.HasPrefix(lowered, n) {
				continue
			}
			rest := expr[len(n):]
			if rest != "" && !strings.ContainsAny(rest[:1], " =!<>~^$") {
				continue
			}
			best, bestLen = c, len(n)
		}
	}
	if bestLen < 0 {
		return model.Column{}, "", false
	}
	return best, strings.TrimSpace(expr[bestLen:]), true
}

func invalidExpr(kind, msg string) *apperrors.AppError {
	return apperrors.ValidationError("INVALID_"+strings.ToUpper(kind), msg).AsRecoverable()
}

// ParseSort reads "<column> [asc|desc]".
func ParseSort(expr string, cols []model.Column) (model.SortRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return model.SortRule{}, invalidExpr("sort", "Usage: :sort <column> [asc|desc]")
	}
	order := model.SortAsc
	if i := strings.LastIndex(expr, " "); i > 0 {
		if word := strings.ToLower(expr[i+1:]); model.IsValidSortOrder(word) {
			order = model.SortOrder(word)
			expr = strings.TrimSpace(expr[:i])
		}
	}
	col, ok := FindColumn(cols, expr)
	if !ok {
		return model.SortRule{}, invalidExpr("sort", fmt.Sprintf("Unknown column %q", expr))
	}
	return model.SortRule{Field: col.Key, Order: order}, nil
}

// ParseFilter reads "<column> <operator> [value]". Operators are symbols
// (= != > < ~ !~ ^= $=) or names (contains, is_not_empty, starts with...).
// On date columns > and < mean after and before. A comma-separated value
// becomes a list for the list-aware operators.
func ParseFilter(expr string, cols []model.Column) (model.FilterRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return model.FilterRule{}, invalidExpr("filter", "Usage: :filter <column> <operator> <value>")
	}
	col, rest, ok := splitColumn(cols, expr)
	if !ok {
		word, _, _ := strings.Cut(expr, " ")
		return model.FilterRule{}, invalidExpr("filter", fmt.Sprintf("Unknown column %q", word))
	}

	op, value, ok := splitOperator(rest)
	if !ok {
		return model.FilterRule{}, invalidExpr("filter", fmt.Sprintf("Missing or unknown operator after %q", col.Key))
	}
	if col.DataType == model.DataDate {
		switch op {
		case model.OpGreaterThan:
			op = model.OpAfter
		case model.OpLessThan:
			op = model.OpBefore
		}
	}

	rule := model.FilterRule{Field: col.Key, Operator: op}
	if op == model.OpIsEmpty || op == model.OpIsNotEmpty {
		return rule, nil
	}
	value = unquote(value)
	if value == "" {
		return model.FilterRule{}, invalidExpr("filter", fmt.Sprintf("Missing value for %s", strings.ReplaceAll(string(op), "_", " ")))
	}
	rule.Value = value
	if strings.Contains(value, ",") {
		switch op {
		case model.OpIs, model.OpIsNot, model.OpContains, model.OpNotContains:
			var items []any
			for _, part := range strings.Split(value, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
			rule.Value = items
		}
	}
	return rule, nil
}

func splitOperator(rest string) (model.Operator, string, bool) {
	for _, s := range symbolOps {
		if strings.HasPrefix(rest, s.token) {
			return s.op, strings.TrimSpace(rest[len(s.token):]), true
		}
	}

	// longest word operator first: "is not empty" before "is not" before "is"
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(rest), "_", " "))
	for n := min(3, len(words)); n > 0; n-- {
		phrase := strings.Join(words[:n], " ")
		op, ok := wordOps[phrase]
		if !ok {
			continue
		}
		return op, strings.TrimSpace(skipWords(rest, n)), true
	}
	return "", "", false
}

// skipWords drops the first n words of s, where a word may contain
// underscores standing for several operator words.
func skipWords(s string, n int) string {
	s = strings.TrimSpace(s)
	for n > 0 && s != "" {
		end := strings.IndexByte(s, ' ')
		if end < 0 {
			end = len(s)
		}
		n -= 1 + strings.Count(s[:end], "_")
		s = strings.TrimSpace(s[end:])
	}
	return s
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
