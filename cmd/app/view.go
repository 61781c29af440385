package main

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/render"
)

// chrome is the number of lines around the table body: tabs, search or
// filter summary, bulk bar, footer and status
const chrome = 5

// View implements tea.Model
func (m *Model) View() tea.View {
	var content string
	switch {
	case m.state.Mode == model.ModeFatal:
		content = m.renderFatal()
	case !m.ready:
		content = m.styles.Dim.Render(m.spinner.View() + " Starting…")
	default:
		content = m.renderMain()
	}
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

// bodyHeight is the number of lines left for rows
func (m *Model) bodyHeight() int {
	return max(3, m.state.UI.Height-chrome)
}

// modalHeight is the number of content lines an overlay may use
func (m *Model) modalHeight() int {
	return max(3, m.bodyHeight()-6)
}

func (m *Model) modalWidth() int {
	return max(24, min(m.state.UI.Width-4, 80))
}

func (m *Model) renderMain() string {
	width := m.state.UI.Width
	if m.current == nil {
		lines := []string{
			m.renderTabs(width),
			"",
			lipgloss.Place(width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
				m.styles.Dim.Render("No entity open · press : and type entity")),
			"",
			"",
			m.renderStatusLine(width),
		}
		if m.state.Mode == model.ModeCommand {
			lines[1] = m.renderCommandBar(width)
		}
		return strings.Join(lines, "\n")
	}

	c := m.current.table
	body := m.renderBody(width)
	if overlay := m.renderOverlay(); overlay != "" {
		body = lipgloss.Place(width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, overlay)
	}

	lines := []string{
		m.renderTabs(width),
		m.renderQueryLine(width),
		body,
		render.BulkBar(c, m.styles, width),
		render.Footer(c, m.styles, width),
		m.renderStatusLine(width),
	}
	return strings.Join(lines, "\n")
}

// renderBody draws the current page, padded to the body height
func (m *Model) renderBody(width int) string {
	c := m.current.table
	frame := render.Frame{
		Width:  width,
		Height: m.bodyHeight(),
		Cursor: m.rows.Cursor(),
		Locale: m.deps.Config.Appearance.Locale,
	}
	out := render.Rows(c, m.styles, frame)
	lines := strings.Split(out, "\n")
	if len(lines) > frame.Height {
		lines = lines[:frame.Height]
	}
	for len(lines) < frame.Height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderTabs lists the catalog entities with the open one highlighted
func (m *Model) renderTabs(width int) string {
	var parts []string
	if m.deps.Catalog != nil {
		for _, e := range m.deps.Catalog.Entities {
			title := e.DisplayTitle()
			if m.current != nil && e.Name == m.current.def.Name {
				parts = append(parts, m.styles.Active.Render(title))
			} else {
				parts = append(parts, m.styles.Dim.Padding(0, 1).Render(title))
			}
		}
	}
	line := strings.Join(parts, " ")
	if m.current != nil && m.current.table.Loading() {
		line += " " + m.spinner.View()
	}
	return clip(line, width)
}

// renderQueryLine shows the search or command input, or else a summary of
// the active query, filters and sorts
func (m *Model) renderQueryLine(width int) string {
	switch m.state.Mode {
	case model.ModeSearch:
		return m.renderSearchBar(width)
	case model.ModeCommand:
		return m.renderCommandBar(width)
	}
	return render.FilterSummary(m.current.table, m.styles, width)
}

// renderOverlay draws the active modal, if any
func (m *Model) renderOverlay() string {
	c := m.current.table
	switch m.state.Mode {
	case model.ModeMenu:
		return render.Menu(c, m.styles, m.menu.Cursor())
	case model.ModeForm:
		input := ""
		if m.state.Modals.FormEditing {
			input = m.inputComponents.fieldInput.View()
		}
		return render.Form(c, m.styles, render.FormFrame{
			Width: m.modalWidth(),
			Focus: m.focus.Cursor(),
			Input: input,
		})
	case model.ModeSettings:
		return render.SettingsPanel(c, m.styles, m.settings.Cursor(), m.modalWidth())
	case model.ModePreview:
		return render.PreviewModal(m.styles, m.state.Modals.PreviewTitle, m.state.Modals.PreviewBody,
			m.modalWidth(), m.modalHeight(), m.pane.ScrollOffset())
	case model.ModeHelp:
		return m.renderHelp()
	}
	return ""
}

// renderFatal replaces the table when startup failed
func (m *Model) renderFatal() string {
	width := max(20, m.state.UI.Width)
	msg := m.styles.Error.Bold(true).Render("Cannot start") + "\n\n" +
		m.styles.Primary.UnsetBold().Render(m.state.FatalError) + "\n\n" +
		m.styles.Dim.Render("press q to quit")
	box := m.styles.Modal.Width(min(width-4, 72)).Render(msg)
	if m.state.UI.Height == 0 {
		return box
	}
	return lipgloss.Place(width, m.state.UI.Height, lipgloss.Center, lipgloss.Center, box)
}

// clip cuts styled text to width cells
func clip(s string, width int) string {
	return ansi.Truncate(s, max(0, width), "")
}

// position is "cursor/rows" on the current page
func (m *Model) position() string {
	n := len(m.current.table.Window())
	if n == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", m.rows.Cursor()+1, n)
}
