package render

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/model"
)

// Placeholder is shown for empty cells.
const Placeholder = "--"

// CellText is the plain text of a cell: the column renderer, a locale date,
// or the raw value, with Placeholder for empty values.
func CellText(col model.Column, row model.Row, locale string) string {
	v := row[col.Key]
	if col.Render != nil {
		return singleLine(col.Render(v, row))
	}
	if engine.IsEmpty(v) {
		return Placeholder
	}
	if col.DataType == model.DataDate {
		if t, ok := engine.ToTime(v); ok {
			return t.Format(DateLayout(locale))
		}
	}
	if list, ok := engine.AsList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = engine.Stringify(item)
		}
		return singleLine(strings.Join(parts, ", "))
	}
	return singleLine(engine.Stringify(v))
}

// FormatCell renders a cell fitted to width. Status columns become a
// colored pill unless the row is highlighted, where inner colors would
// break the row background.
func FormatCell(s Styles, col model.Column, row model.Row, locale string, width int, highlighted bool) string {
	text := CellText(col, row, locale)
	if col.DataType == model.DataStatus && col.Render == nil && text != Placeholder && !highlighted {
		p := s.Pill(Truncate(text, max(1, width-2)))
		return fitANSI(p, width)
	}
	return Fit(text, width)
}

// DateLayout returns the short date layout used for a locale.
func DateLayout(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return "2006-01-02"
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	switch base.String() {
	case "en":
		if region.String() == "US" {
			return "01/02/2006"
		}
		return "02/01/2006"
	case "pt", "es", "fr", "it":
		return "02/01/2006"
	case "de", "ru", "pl":
		return "02.01.2006"
	case "ja", "zh", "ko":
		return "2006/01/02"
	}
	return "2006-01-02"
}
