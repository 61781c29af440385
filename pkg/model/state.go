package model

// Mode is what the keyboard currently drives
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeSearch   Mode = "search"
	ModeCommand  Mode = "command"
	ModeMenu     Mode = "menu"
	ModeForm     Mode = "form"
	ModeSettings Mode = "settings"
	ModePreview  Mode = "preview"
	ModeHelp     Mode = "help"
	ModeLoading  Mode = "loading"
	ModeFatal    Mode = "fatal"
)

// IsModal reports whether the mode draws an overlay over the table
func (m Mode) IsModal() bool {
	switch m {
	case ModeMenu, ModeForm, ModeSettings, ModePreview, ModeHelp:
		return true
	}
	return false
}

// NavigationState holds the cursor within the current page
type NavigationState struct {
	Entity string `json:"entity"`
	Cursor int    `json:"cursor"`
	// LastGPressed is the unix milli time of the first "g" of a "gg" chord
	LastGPressed int64 `json:"lastGPressed"`
}

// UIState holds terminal and input state
type UIState struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Command string `json:"command"`
	// Suggestion is the ghost completion of the command bar
	Suggestion string `json:"suggestion"`
}

// ModalState holds the payloads of the overlays. Cursors live with the
// host's list navigators.
type ModalState struct {
	// FormEditing is set while a text field of the form is being edited
	FormEditing  bool   `json:"formEditing"`
	PreviewTitle string `json:"previewTitle"`
	PreviewBody  string `json:"previewBody"`
}

// AppState is the host state that is not owned by a table controller
type AppState struct {
	Mode       Mode            `json:"mode"`
	Navigation NavigationState `json:"navigation"`
	UI         UIState         `json:"ui"`
	Modals     ModalState      `json:"modals"`

	// FatalError is shown instead of the table when startup failed
	FatalError string `json:"fatalError,omitempty"`

	// per-entity cursors, restored when switching back
	savedNavigation map[string]NavigationState
}

// NewAppState creates an AppState in normal mode
func NewAppState() *AppState {
	return &AppState{
		Mode:            ModeNormal,
		savedNavigation: make(map[string]NavigationState),
	}
}

// SaveNavigationState remembers the cursor of the current entity
func (s *AppState) SaveNavigationState() {
	if s.Navigation.Entity == "" {
		return
	}
	if s.savedNavigation == nil {
		s.savedNavigation = make(map[string]NavigationState)
	}
	s.savedNavigation[s.Navigation.Entity] = s.Navigation
}

// RestoreNavigationState switches to entity and restores its cursor
func (s *AppState) RestoreNavigationState(entity string) {
	if saved, ok := s.savedNavigation[entity]; ok {
		s.Navigation = saved
		return
	}
	s.Navigation = NavigationState{Entity: entity}
}

// ResetModals clears every overlay cursor and payload
func (s *AppState) ResetModals() {
	s.Modals = ModalState{}
}
