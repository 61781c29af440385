package theme

import (
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
)

// Palette defines the colors used by the table views. Values may be ANSI
// indices or truecolor hex strings.
type Palette struct {
	Accent color.Color // focused elements, active tab, header
	Text   color.Color
	Dim    color.Color // labels, placeholders, hints
	Border color.Color

	// Row backgrounds
	SelectedBG color.Color // checked rows
	CursorBG   color.Color // row under the cursor
	MutedBG    color.Color // inactive buttons, disabled inputs

	// Semantic colors, also used for status pills
	Success color.Color
	Warning color.Color
	Danger  color.Color
	Info    color.Color
	Neutral color.Color
}

// Default returns the ANSI palette used when no theme is configured.
func Default() Palette {
	return Palette{
		Accent:     lipgloss.Color("13"),
		Text:       lipgloss.Color("15"),
		Dim:        lipgloss.Color("8"),
		Border:     lipgloss.Color("13"),
		SelectedBG: lipgloss.Color("236"),
		CursorBG:   lipgloss.Color("14"),
		MutedBG:    lipgloss.Color("238"),
		Success:    lipgloss.Color("10"),
		Warning:    lipgloss.Color("11"),
		Danger:     lipgloss.Color("9"),
		Info:       lipgloss.Color("14"),
		Neutral:    lipgloss.Color("8"),
	}
}

// StatusColor picks the pill color for a status value. Matching is on
// common business vocabulary in English and Portuguese.
func (p Palette) StatusColor(status string) color.Color {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "":
		return p.Neutral
	case hasAny(s, "active", "ativo", "ativa", "paid", "pago", "approved", "aprovado", "done", "ok", "open", "aberta", "livre", "available", "disponível"):
		return p.Success
	case hasAny(s, "pending", "pendente", "waiting", "aguardando", "draft", "rascunho", "reserved", "reservada"):
		return p.Warning
	case hasAny(s, "inactive", "inativo", "inativa", "cancel", "blocked", "bloqueado", "expired", "expirado", "failed", "erro", "error", "ocupada", "closed", "fechada"):
		return p.Danger
	case hasAny(s, "processing", "processando", "review", "análise"):
		return p.Info
	}
	return p.Neutral
}

func hasAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.HasPrefix(s, w) {
			return true
		}
	}
	return false
}

// FromEnv overlays base with colors from the environment. Hex values like
// "#88c0d0" and ANSI numbers like "33" are both accepted.
//
//	BACKOFFICE_COLOR_ACCENT   BACKOFFICE_COLOR_TEXT    BACKOFFICE_COLOR_DIM
//	BACKOFFICE_COLOR_BORDER   BACKOFFICE_COLOR_SUCCESS BACKOFFICE_COLOR_WARNING
//	BACKOFFICE_COLOR_DANGER   BACKOFFICE_COLOR_INFO    BACKOFFICE_BG_SELECTED
//	BACKOFFICE_BG_CURSOR      BACKOFFICE_BG_MUTED
func FromEnv(base Palette) Palette {
	overrides := map[string]string{}
	for env, key := range envKeys {
		if v := os.Getenv(env); v != "" {
			overrides[key] = v
		}
	}
	return ApplyOverrides(base, overrides)
}

var envKeys = map[string]string{
	"BACKOFFICE_COLOR_ACCENT":  "accent",
	"BACKOFFICE_COLOR_TEXT":    "text",
	"BACKOFFICE_COLOR_DIM":     "dim",
	"BACKOFFICE_COLOR_BORDER":  "border",
	"BACKOFFICE_COLOR_SUCCESS": "success",
	"BACKOFFICE_COLOR_WARNING": "warning",
	"BACKOFFICE_COLOR_DANGER":  "danger",
	"BACKOFFICE_COLOR_INFO":    "info",
	"BACKOFFICE_BG_SELECTED":   "selected_bg",
	"BACKOFFICE_BG_CURSOR":     "cursor_bg",
	"BACKOFFICE_BG_MUTED":      "muted_bg",
}

// ApplyOverrides sets palette entries by config key. Unknown keys are ignored.
func ApplyOverrides(p Palette, overrides map[string]string) Palette {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		c := lipgloss.Color(v)
		switch strings.ToLower(key) {
		case "accent":
			p.Accent = c
			p.Border = c
		case "text":
			p.Text = c
		case "dim":
			p.Dim = c
			p.Neutral = c
		case "border":
			p.Border = c
		case "success":
			p.Success = c
		case "warning":
			p.Warning = c
		case "danger":
			p.Danger = c
		case "info":
			p.Info = c
		case "selected_bg":
			p.SelectedBG = c
		case "cursor_bg":
			p.CursorBG = c
		case "muted_bg":
			p.MutedBG = c
		}
	}
	return p
}
