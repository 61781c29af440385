// Package settings persists per-table column layout and the global row density.
package settings

import (
	"encoding/json"
	"fmt"

	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/store"
)

// DensityKey is the global storage key for the row density.
const DensityKey = "table-density"

// Width levels are relative column weights.
const (
	MinWidthLevel     = 1
	MaxWidthLevel     = 3
	DefaultWidthLevel = 2
)

// ColumnSetting is the persisted layout of one column.
type ColumnSetting struct {
	Key        string `json:"key"`
	Visible    bool   `json:"visible"`
	WidthLevel int    `json:"widthLevel"`
}

// VisibleColumn pairs a column definition with its width weight.
type VisibleColumn struct {
	model.Column
	WidthLevel int
}

// ColumnsKey returns the storage key for a table's column settings.
func ColumnsKey(title string) string {
	if title == "" {
		title = "default"
	}
	return "table-columns-" + title
}

// Store owns the column settings of one table and the shared density.
// Every mutation is written through the port immediately.
type Store struct {
	port    store.Port
	title   string
	columns []model.Column
	byKey   map[string]model.Column

	settings []ColumnSetting
	density  Density

	logger *cblog.Logger
}

// Load reads persisted settings for the table and reconciles them with columns.
// Missing or unreadable state falls back to defaults; it is never an error.
func Load(port store.Port, title string, columns []model.Column) *Store {
	s := &Store{
		port:    port,
		title:   title,
		columns: columns,
		byKey:   make(map[string]model.Column, len(columns)),
		logger:  cblog.With("component", "settings", "table", ColumnsKey(title)),
	}
	for _, c := range columns {
		s.byKey[c.Key] = c
	}

	s.settings = Defaults(columns)
	if raw, ok := s.get(ColumnsKey(title)); ok {
		var saved []ColumnSetting
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			s.logger.Warn("Failed to parse column settings; using defaults", "err", err)
		} else {
			s.settings = Reconcile(saved, columns)
		}
	}

	s.density = DefaultDensity
	if raw, ok := s.get(DensityKey); ok {
		if d, err := ParseDensity(raw); err == nil {
			s.density = d
		} else {
			s.logger.Warn("Ignoring stored density", "value", raw)
		}
	}
	return s
}

func (s *Store) get(key string) (string, bool) {
	if s.port == nil {
		return "", false
	}
	v, ok, err := s.port.Get(key)
	if err != nil {
		s.logger.Warn("Failed to read setting", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

// Defaults builds settings straight from the column schema.
func Defaults(columns []model.Column) []ColumnSetting {
	out := make([]ColumnSetting, 0, len(columns))
	for _, c := range columns {
		out = append(out, ColumnSetting{Key: c.Key, Visible: !c.DefaultHidden, WidthLevel: DefaultWidthLevel})
	}
	return out
}

// Reconcile keeps saved entries whose key still exists, in saved order, drops
// duplicates, and appends new columns with their defaults. Width levels
// outside 1..3 become the default.
func Reconcile(saved []ColumnSetting, columns []model.Column) []ColumnSetting {
	live := make(map[string]model.Column, len(columns))
	for _, c := range columns {
		live[c.Key] = c
	}

	out := make([]ColumnSetting, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, s := range saved {
		if _, ok := live[s.Key]; !ok || seen[s.Key] {
			continue
		}
		seen[s.Key] = true
		s.WidthLevel = normalizeWidth(s.WidthLevel)
		out = append(out, s)
	}
	for _, c := range columns {
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		out = append(out, ColumnSetting{Key: c.Key, Visible: !c.DefaultHidden, WidthLevel: DefaultWidthLevel})
	}
	return out
}

func normalizeWidth(level int) int {
	if level < MinWidthLevel || level > MaxWidthLevel {
		return DefaultWidthLevel
	}
	return level
}

// Title returns the table title the settings belong to.
func (s *Store) Title() string {
	return s.title
}

// Columns returns a copy of the ordered column settings.
func (s *Store) Columns() []ColumnSetting {
	out := make([]ColumnSetting, len(s.settings))
	copy(out, s.settings)
	return out
}

// Setting returns the setting for key.
func (s *Store) Setting(key string) (ColumnSetting, bool) {
	for _, cs := range s.settings {
		if cs.Key == key {
			return cs, true
		}
	}
	return ColumnSetting{}, false
}

// VisibleColumns returns the visible columns in display order.
func (s *Store) VisibleColumns() []VisibleColumn {
	out := make([]VisibleColumn, 0, len(s.settings))
	for _, cs := range s.settings {
		if !cs.Visible {
			continue
		}
		if col, ok := s.byKey[cs.Key]; ok {
			out = append(out, VisibleColumn{Column: col, WidthLevel: cs.WidthLevel})
		}
	}
	return out
}

// Density returns the current row density.
func (s *Store) Density() Density {
	return s.density
}

// ToggleVisibility flips the visibility of one column.
func (s *Store) ToggleVisibility(key string) error {
	for i := range s.settings {
		if s.settings[i].Key == key {
			s.settings[i].Visible = !s.settings[i].Visible
			return s.persist()
		}
	}
	return fmt.Errorf("unknown column %q", key)
}

// SetWidthLevel changes a column's width weight. level must be 1..3.
func (s *Store) SetWidthLevel(key string, level int) error {
	if level < MinWidthLevel || level > MaxWidthLevel {
		return fmt.Errorf("width level %d out of range %d..%d", level, MinWidthLevel, MaxWidthLevel)
	}
	for i := range s.settings {
		if s.settings[i].Key == key {
			s.settings[i].WidthLevel = level
			return s.persist()
		}
	}
	return fmt.Errorf("unknown column %q", key)
}

// CycleWidthLevel steps a column's width 1 → 2 → 3 → 1.
func (s *Store) CycleWidthLevel(key string) error {
	cs, ok := s.Setting(key)
	if !ok {
		return fmt.Errorf("unknown column %q", key)
	}
	next := cs.WidthLevel + 1
	if next > MaxWidthLevel {
		next = MinWidthLevel
	}
	return s.SetWidthLevel(key, next)
}

// Reorder replaces the whole settings array. The result is reconciled, so a
// caller cannot break the one-entry-per-live-column invariant.
func (s *Store) Reorder(next []ColumnSetting) error {
	s.settings = Reconcile(next, s.columns)
	return s.persist()
}

// Move relocates the setting at oldIndex to newIndex.
func (s *Store) Move(oldIndex, newIndex int) error {
	if oldIndex < 0 || oldIndex >= len(s.settings) || newIndex < 0 || newIndex >= len(s.settings) {
		return fmt.Errorf("move %d → %d out of range 0..%d", oldIndex, newIndex, len(s.settings)-1)
	}
	if oldIndex == newIndex {
		return nil
	}
	return s.Reorder(MoveItem(s.settings, oldIndex, newIndex))
}

// MoveUp swaps the setting at i with the one before it. Returns true if state changed.
func (s *Store) MoveUp(i int) bool {
	if i <= 0 || i >= len(s.settings) {
		return false
	}
	return s.Move(i, i-1) == nil
}

// MoveDown swaps the setting at i with the one after it. Returns true if state changed.
func (s *Store) MoveDown(i int) bool {
	if i < 0 || i >= len(s.settings)-1 {
		return false
	}
	return s.Move(i, i+1) == nil
}

// SetDensity changes and persists the row density.
func (s *Store) SetDensity(d Density) error {
	if !d.Valid() {
		return fmt.Errorf("invalid density %q", d)
	}
	s.density = d
	if s.port == nil {
		return nil
	}
	return s.port.Set(DensityKey, string(d))
}

// CycleDensity steps to the next density level, wrapping around.
func (s *Store) CycleDensity() error {
	return s.SetDensity(s.density.Next())
}

func (s *Store) persist() error {
	if s.port == nil {
		return nil
	}
	data, err := json.Marshal(s.settings)
	if err != nil {
		return err
	}
	if err := s.port.Set(ColumnsKey(s.title), string(data)); err != nil {
		s.logger.Error("Failed to persist column settings", "err", err)
		return err
	}
	return nil
}

// MoveItem returns a copy of items with the element at from moved to to.
func MoveItem[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	if from < 0 || from >= len(items) {
		return append(out, items...)
	}
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	if to < 0 {
		to = 0
	}
	if to > len(out) {
		to = len(out)
	}
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out
}
