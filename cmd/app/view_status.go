package main

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/darksworm/backoffice/pkg/services"
)

// renderStatusLine shows the live status message on the left and the mode
// and cursor position on the right
func (m *Model) renderStatusLine(width int) string {
	left := ""
	if msg, ok := m.statusService.Current(); ok {
		left = m.statusStyle(msg.Level).Render(msg.Message)
		if msg.Hint != "" {
			left += m.styles.Dim.Render(" · " + msg.Hint)
		}
	}

	right := fmt.Sprintf("<%s>", m.state.Mode)
	if m.current != nil {
		right = fmt.Sprintf("<%s:%s> %s", m.current.def.Name, m.state.Mode, m.position())
		if c := m.current.table; c.Capabilities().ReadOnly() {
			right = "read-only · " + right
		}
	}
	rightStyled := m.styles.Dim.Render(right)

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStyled)
	if gap < 1 {
		left = clip(left, max(0, width-lipgloss.Width(rightStyled)-1))
		gap = max(1, width-lipgloss.Width(left)-lipgloss.Width(rightStyled))
	}
	return clip(left+strings.Repeat(" ", gap)+rightStyled, width)
}

func (m *Model) statusStyle(level services.StatusLevel) lipgloss.Style {
	p := m.styles.Palette
	switch level {
	case services.StatusLevelSuccess:
		return lipgloss.NewStyle().Foreground(p.Success)
	case services.StatusLevelWarn:
		return lipgloss.NewStyle().Foreground(p.Warning)
	case services.StatusLevelError:
		return lipgloss.NewStyle().Bold(true).Foreground(p.Danger)
	case services.StatusLevelDebug:
		return m.styles.Dim
	}
	return lipgloss.NewStyle().Foreground(p.Info)
}
