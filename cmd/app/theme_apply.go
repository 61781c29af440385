package main

import (
	"github.com/darksworm/backoffice/pkg/render"
	"github.com/darksworm/backoffice/pkg/theme"
)

// currentPalette is the palette last applied
var currentPalette theme.Palette

// applyTheme updates the help colours and remembers p. Call it at startup
// and whenever the theme changes.
func applyTheme(p theme.Palette) {
	if p.Border == nil {
		p.Border = p.Accent
	}
	if p.CursorBG == nil {
		p.CursorBG = p.Info
	}
	if p.SelectedBG == nil {
		p.SelectedBG = p.MutedBG
	}
	currentPalette = p

	helpTitleColor = p.Info
	helpSectionColor = p.Warning
	helpHighlightColor = p.Success
	helpTextColor = p.Text
	helpDimColor = p.Dim
}

// setTheme switches the running UI to a preset, keeping config overrides
func (m *Model) setTheme(name string) bool {
	if _, ok := theme.Get(name); !ok {
		return false
	}
	p := theme.Resolve(name, m.deps.Config.Appearance.Overrides)
	applyTheme(p)
	m.deps.Palette = currentPalette
	m.styles = render.NewStyles(currentPalette)
	m.deps.Config.Appearance.Theme = name
	return true
}
