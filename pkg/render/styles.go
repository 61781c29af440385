// Package render draws a table.Controller as terminal text: the dense
// table, the card list, menus, the bulk bar, the pagination footer, the
// add/edit/view form and the column settings panel.
package render

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/darksworm/backoffice/pkg/settings"
	"github.com/darksworm/backoffice/pkg/theme"
)

// Styles are the lipgloss styles derived from a palette.
type Styles struct {
	Palette theme.Palette

	Header    lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style
	Primary   lipgloss.Style
	Cursor    lipgloss.Style
	Selected  lipgloss.Style
	Danger    lipgloss.Style
	Armed     lipgloss.Style
	Error     lipgloss.Style
	Button    lipgloss.Style
	Active    lipgloss.Style
	Disabled  lipgloss.Style
	Modal     lipgloss.Style
	Card      lipgloss.Style
	CardFocus lipgloss.Style
}

// NewStyles builds the styles for p.
func NewStyles(p theme.Palette) Styles {
	return Styles{
		Palette:  p,
		Header:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Label:    lipgloss.NewStyle().Foreground(p.Dim),
		Dim:      lipgloss.NewStyle().Foreground(p.Dim),
		Primary:  lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		Cursor:   lipgloss.NewStyle().Background(p.CursorBG).Foreground(p.MutedBG),
		Selected: lipgloss.NewStyle().Background(p.SelectedBG),
		Danger:   lipgloss.NewStyle().Foreground(p.Danger),
		Armed:    lipgloss.NewStyle().Bold(true).Background(p.Danger).Foreground(p.Text),
		Error:    lipgloss.NewStyle().Foreground(p.Danger),
		Button:   lipgloss.NewStyle().Padding(0, 1).Background(p.MutedBG).Foreground(p.Text),
		Active:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Background(p.Accent).Foreground(p.MutedBG),
		Disabled: lipgloss.NewStyle().Foreground(p.Dim).Faint(true),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.MutedBG).
			Padding(0, 1),
		CardFocus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),
	}
}

// Pill renders a status value on its status color.
func (s Styles) Pill(text string) string {
	return pill(s.Palette.StatusColor(text), s.Palette.MutedBG).Render(text)
}

func pill(bg, fg color.Color) lipgloss.Style {
	return lipgloss.NewStyle().Background(bg).Foreground(fg).Padding(0, 1)
}

// Spacing is the padding a density level applies.
type Spacing struct {
	// RowGap is the number of blank lines between table rows.
	RowGap int
	// CellPad is the horizontal padding on each side of a cell.
	CellPad int
	// CardGap is the number of blank lines between cards.
	CardGap int
}

// SpacingFor maps a density to paddings.
func SpacingFor(d settings.Density) Spacing {
	switch d {
	case settings.DensityUltraThin:
		return Spacing{RowGap: 0, CellPad: 0, CardGap: 0}
	case settings.DensityThin:
		return Spacing{RowGap: 0, CellPad: 1, CardGap: 0}
	case settings.DensityHigh:
		return Spacing{RowGap: 1, CellPad: 1, CardGap: 1}
	case settings.DensityUltraHigh:
		return Spacing{RowGap: 1, CellPad: 2, CardGap: 2}
	default:
		return Spacing{RowGap: 0, CellPad: 1, CardGap: 1}
	}
}
