package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/autocomplete"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/render"
	"github.com/darksworm/backoffice/pkg/settings"
	"github.com/darksworm/backoffice/pkg/table"
	"github.com/darksworm/backoffice/pkg/theme"
)

// executeCommand runs one command bar line
func (m *Model) executeCommand(raw string) tea.Cmd {
	inv, known := m.autocompleteEngine.Parse(raw)
	canonical := inv.Command
	arg := inv.Arg
	cblog.With("component", "commands").Debug("Command", "command", canonical, "arg", arg, "known", known)

	if m.current == nil {
		switch canonical {
		case "quit", "wq", "wq!", "entity", "theme":
		default:
			m.statusService.Warn("No entity is open")
			return nil
		}
	}

	switch canonical {
	case "entity":
		if arg == "" {
			m.statusService.Info("Entities: " + strings.Join(m.deps.Catalog.Names(), ", "))
			return nil
		}
		if err := m.switchEntity(m.matchEntity(arg)); err != nil {
			m.statusService.Report(err)
		}
		return nil

	case "sort":
		c := m.current.table
		rule, err := autocomplete.ParseSort(arg, c.Columns())
		if err != nil {
			m.statusService.Report(err)
			return nil
		}
		c.AddSort(rule.Field, rule.Order)
		m.rows.Reset()
		m.statusService.Info(fmt.Sprintf("Sorted by %s %s", rule.Field, rule.Order))
		return nil

	case "unsort":
		m.current.table.ClearSorts()
		m.statusService.Info("Sorting cleared")
		return nil

	case "filter":
		c := m.current.table
		rule, err := autocomplete.ParseFilter(arg, c.Columns())
		if err != nil {
			m.statusService.Report(err)
			return nil
		}
		c.AddFilter(rule)
		m.rows.Reset()
		m.statusService.Info("Filter: " + render.DescribeRule(c.Columns(), rule))
		return nil

	case "unfilter":
		c := m.current.table
		if arg == "" || arg == "all" {
			c.ClearFilters()
			m.statusService.Info("Filters cleared")
			return nil
		}
		n, err := strconv.Atoi(arg)
		rules := c.Filters().Rules
		if err != nil || n < 1 || n > len(rules) {
			m.statusService.Warn(fmt.Sprintf("No filter #%s", arg))
			return nil
		}
		c.RemoveFilter(rules[n-1].ID)
		m.statusService.Info("Removed " + render.DescribeRule(c.Columns(), rules[n-1]))
		return nil

	case "and":
		m.current.table.SetConjunction(model.ConjunctionAnd)
		m.statusService.Info("Rows match every filter")
		return nil

	case "or":
		m.current.table.SetConjunction(model.ConjunctionOr)
		m.statusService.Info("Rows match any filter")
		return nil

	case "clear":
		c := m.current.table
		c.SetQuery("")
		c.FlushQuery()
		c.ClearFilters()
		c.ClearSorts()
		c.ClearSelection()
		m.inputComponents.ClearSearchInput()
		m.rows.Reset()
		m.statusService.Info("Search, filters, sorting and selection cleared")
		return nil

	case "density":
		c := m.current.table
		var err error
		if arg == "" {
			err = c.CycleDensity()
		} else {
			var d settings.Density
			if d, err = settings.ParseDensity(arg); err == nil {
				err = c.SetDensity(d)
			}
		}
		if err != nil {
			m.statusService.Report(err)
			return nil
		}
		m.syncNavigators()
		m.statusService.Info("Density: " + string(c.Density()))
		return nil

	case "view":
		c := m.current.table
		switch strings.ToLower(arg) {
		case "":
			c.ToggleViewMode()
		case "table", "card":
			c.SetViewMode(table.ViewMode(strings.ToLower(arg)))
		case "cards":
			c.SetViewMode(table.ViewCard)
		default:
			m.statusService.Warn("View is table or card")
			return nil
		}
		m.syncNavigators()
		return nil

	case "size":
		c := m.current.table
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.statusService.Warn("Usage: :size <rows per page>")
			return nil
		}
		if err := c.SetPageSize(n); err != nil {
			m.statusService.Warn(err.Error())
			return nil
		}
		m.rows.Reset()
		m.syncNavigators()
		m.statusService.Info(fmt.Sprintf("%d rows per page", n))
		return nil

	case "page":
		c := m.current.table
		switch strings.ToLower(arg) {
		case "first":
			c.FirstPage()
		case "last":
			c.LastPage()
		default:
			n, err := strconv.Atoi(arg)
			if err != nil {
				m.statusService.Warn("Usage: :page <n|first|last>")
				return nil
			}
			c.SetPage(n)
		}
		m.rows.Reset()
		m.syncNavigators()
		return nil

	case "columns":
		m.openSettings()
		return nil

	case "add":
		return m.openAdd()

	case "refresh":
		m.reloadView(m.current)
		m.statusService.Info("Reloading " + m.current.table.Title())
		return nil

	case "export":
		c := m.current.table
		if !c.CanDownload() {
			m.statusService.Warn("Export is not allowed for " + c.Title())
			return nil
		}
		path := arg
		if path == "" {
			path = m.current.def.Name + ".csv"
		}
		return m.exportCmd(path)

	case "theme":
		if arg == "" {
			m.statusService.Info("Themes: " + strings.Join(theme.Names(), ", "))
			return nil
		}
		if !m.setTheme(arg) {
			m.statusService.Warn("Unknown theme: " + arg)
			return nil
		}
		m.statusService.Info("Theme: " + strings.ToLower(arg))
		return nil

	case "quit", "wq", "wq!":
		return func() tea.Msg { return model.QuitMsg{} }
	}

	m.statusService.Warn("Unknown command: " + raw)
	return nil
}

// matchEntity resolves a name case-insensitively, by name or title
func (m *Model) matchEntity(arg string) string {
	for _, e := range m.deps.Catalog.Entities {
		if strings.EqualFold(e.Name, arg) || strings.EqualFold(e.DisplayTitle(), arg) {
			return e.Name
		}
	}
	return arg
}
