package theme

import (
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
)

// DefaultName is used when the configured theme is unknown.
const DefaultName = "nord"

type swatch struct {
	accent, text, dim, success, warning, danger, info, muted, shade string
}

func (s swatch) palette() Palette {
	return Palette{
		Accent:     lipgloss.Color(s.accent),
		Text:       lipgloss.Color(s.text),
		Dim:        lipgloss.Color(s.dim),
		Border:     lipgloss.Color(s.accent),
		SelectedBG: lipgloss.Color(s.shade),
		CursorBG:   lipgloss.Color(s.info),
		MutedBG:    lipgloss.Color(s.muted),
		Success:    lipgloss.Color(s.success),
		Warning:    lipgloss.Color(s.warning),
		Danger:     lipgloss.Color(s.danger),
		Info:       lipgloss.Color(s.info),
		Neutral:    lipgloss.Color(s.dim),
	}
}

var presets = map[string]swatch{
	"dracula":          {"#bd93f9", "#f8f8f2", "#6272a4", "#50fa7b", "#f1fa8c", "#ff5555", "#8be9fd", "#44475a", "#3a3c4e"},
	"nord":             {"#81a1c1", "#eceff4", "#4c566a", "#a3be8c", "#ebcb8b", "#bf616a", "#88c0d0", "#3b4252", "#434c5e"},
	"gruvbox":          {"#d3869b", "#ebdbb2", "#928374", "#b8bb26", "#fabd2f", "#fb4934", "#83a598", "#3c3836", "#504945"},
	"one-dark":         {"#c678dd", "#abb2bf", "#5c6370", "#98c379", "#e5c07b", "#e06c75", "#56b6c2", "#3e4451", "#2c313a"},
	"catppuccin-mocha": {"#cba6f7", "#cdd6f4", "#7f849c", "#a6e3a1", "#f9e2af", "#f38ba8", "#94e2d5", "#313244", "#45475a"},
}

// Names returns the preset names, sorted, plus "classic" for the ANSI palette.
func Names() []string {
	out := make([]string, 0, len(presets)+1)
	for k := range presets {
		out = append(out, k)
	}
	out = append(out, "classic")
	sort.Strings(out)
	return out
}

// Get returns a preset and whether it exists.
func Get(name string) (Palette, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "classic" {
		return Default(), true
	}
	s, ok := presets[name]
	if !ok {
		return Palette{}, false
	}
	return s.palette(), true
}

// FromName returns a preset by name, falling back to DefaultName.
func FromName(name string) Palette {
	if p, ok := Get(name); ok {
		return p
	}
	p, _ := Get(DefaultName)
	return p
}

// Resolve builds the palette for a theme name, config overrides and the
// environment, in that order of precedence (environment wins).
func Resolve(name string, overrides map[string]string) Palette {
	return FromEnv(ApplyOverrides(FromName(name), overrides))
}
