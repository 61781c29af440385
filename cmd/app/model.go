package main

import (
	"context"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/api"
	"github.com/darksworm/backoffice/pkg/autocomplete"
	"github.com/darksworm/backoffice/pkg/config"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/render"
	"github.com/darksworm/backoffice/pkg/schema"
	"github.com/darksworm/backoffice/pkg/services"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/theme"
	"github.com/darksworm/backoffice/pkg/timer"
	"github.com/darksworm/backoffice/pkg/tui/clipboard"
	"github.com/darksworm/backoffice/pkg/tui/listnav"
)

// Dependencies is everything main wires into the model
type Dependencies struct {
	Config   *config.Config
	Catalog  *schema.Catalog
	Settings store.Port
	// Client is nil when no API base URL is configured
	Client  *api.Client
	Palette theme.Palette
	// StartupError replaces the table with an error screen
	StartupError error
	// Scheduler replaces the real clock, for tests
	Scheduler timer.Scheduler
}

// Model represents the main Bubbletea model containing all application state
type Model struct {
	state *model.AppState
	deps  Dependencies

	// open entities by name; current is the one on screen
	views   map[string]*entityView
	current *entityView

	statusService      *services.StatusServiceImpl
	inputComponents    *InputComponentState
	autocompleteEngine *autocomplete.AutocompleteEngine
	copier             *clipboard.Copier

	// list navigators
	rows     *listnav.ListNavigator
	menu     *listnav.ListNavigator
	settings *listnav.ListNavigator
	focus    *listnav.ListNavigator
	pane     *listnav.ListNavigator

	spinner spinner.Model
	styles  render.Styles

	scheduler timer.Scheduler
	// events carries timer callbacks and watcher notifications onto the
	// UI goroutine
	events chan tea.Msg
	// pending collects commands requested by controller callbacks during
	// one Update
	pending []tea.Cmd

	ctx    context.Context
	cancel context.CancelFunc

	ready bool
}

// NewModel creates the model. No entity is open until OpenInitialEntity.
func NewModel(deps Dependencies) *Model {
	if deps.Config == nil {
		deps.Config = config.GetDefaultConfig()
	}
	if deps.Settings == nil {
		deps.Settings = store.NewMemory()
	}
	if deps.Palette.Accent == nil {
		deps.Palette = theme.Resolve(deps.Config.Appearance.Theme, deps.Config.Appearance.Overrides)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		state:              model.NewAppState(),
		deps:               deps,
		views:              make(map[string]*entityView),
		inputComponents:    NewInputComponents(),
		autocompleteEngine: autocomplete.NewAutocompleteEngine(),
		copier:             clipboard.New(),
		rows:               listnav.New(),
		menu:               listnav.NewWrapping(),
		settings:           listnav.New(),
		focus:              listnav.NewWrapping(),
		pane:               listnav.New(),
		spinner:            s,
		styles:             render.NewStyles(deps.Palette),
		events:             make(chan tea.Msg, 64),
		ctx:                ctx,
		cancel:             cancel,
	}
	m.statusService = services.NewStatusService(services.StatusServiceConfig{
		Handler:      m.onStatus,
		DebugEnabled: deps.Config.Log.Level == "debug",
	})

	m.scheduler = deps.Scheduler
	if m.scheduler == nil {
		m.scheduler = timer.Dispatch(timer.Real(), m.post)
	}

	if deps.StartupError != nil {
		m.state.Mode = model.ModeFatal
		m.state.FatalError = deps.StartupError.Error()
	}
	return m
}

// Init starts the spinner and the event pump
func (m *Model) Init() tea.Cmd {
	return m.flush(tea.Batch(m.spinner.Tick, m.waitForEvent()))
}

// post hands a timer callback to the UI goroutine
func (m *Model) post(f func()) {
	m.emit(model.TimerFiredMsg{Fn: f})
}

// emit queues a message from a background goroutine
func (m *Model) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

// waitForEvent delivers the next background event. It is re-issued after
// every event so exactly one reader is outstanding.
func (m *Model) waitForEvent() tea.Cmd {
	events, done := m.events, m.ctx.Done()
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

// enqueue schedules cmd to be returned from the current Update
func (m *Model) enqueue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) flush(cmd tea.Cmd) tea.Cmd {
	if len(m.pending) == 0 {
		return cmd
	}
	cmds := append(m.pending, cmd)
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) onStatus(msg services.StatusMessage) {
	m.enqueue(tea.Tick(m.statusService.TTL(), func(time.Time) tea.Msg {
		return model.StatusTickMsg{}
	}))
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, m.flush(cmd)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.state.UI.Width = msg.Width
		m.state.UI.Height = msg.Height
		m.inputComponents.SetWidth(msg.Width)
		m.syncNavigators()
		if !m.ready {
			m.ready = true
			if _, busy := m.statusService.Current(); !busy {
				m.statusService.Info("Ready · press ? for help")
			}
		}
		return nil

	case tea.KeyPressMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case model.TimerFiredMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		m.syncNavigators()
		return m.waitForEvent()

	case model.DataChangedMsg:
		if ev, ok := m.views[msg.Entity]; ok {
			m.reloadView(ev)
			if ev == m.current {
				m.statusService.Info("Data changed · reloaded")
			}
		}
		return m.waitForEvent()

	case model.WatchStoppedMsg:
		cblog.With("component", "app").Debug("Change watcher stopped", "entity", msg.Entity, "err", msg.Err)
		return m.waitForEvent()

	case model.RowsLoadedMsg:
		m.applyRows(msg)
		return nil

	case saveCompletedMsg:
		return m.applySave(msg)

	case model.MutationCompletedMsg:
		m.applyMutation(msg)
		return nil

	case model.ExportCompletedMsg:
		if msg.Err != nil {
			m.statusService.Report(msg.Err)
		} else {
			m.statusService.Success(pluralize(msg.Count, "row") + " exported to " + msg.Path)
		}
		return nil

	case clipboard.CopyMsg:
		if msg.Success {
			m.statusService.Success("Copied " + msg.What)
		} else {
			m.statusService.Warn("Nothing copied")
		}
		return nil

	case model.StatusTickMsg:
		return nil

	case model.QuitMsg:
		return tea.Quit
	}
	return nil
}

// syncNavigators bounds every list cursor to what is on screen
func (m *Model) syncNavigators() {
	if m.current == nil {
		return
	}
	c := m.current.table
	m.rows.SetViewportHeight(m.bodyHeight())
	m.rows.SetItemCount(len(c.Window()))
	m.menu.SetItemCount(len(c.MenuItems()))
	m.settings.SetItemCount(len(c.Settings().Columns()))
	m.focus.SetItemCount(len(c.Form().Schema()) + 2)
}

// Shutdown stops watchers and timers
func (m *Model) Shutdown() {
	m.cancel()
	for _, ev := range m.views {
		ev.table.Close()
	}
}
