// Package selection tracks which rows of a collection are checked.
package selection

import "github.com/darksworm/backoffice/pkg/model"

// Manager holds the selected row ids in the order they were picked.
// Ids may go stale when the filtered set changes; stale ids never count
// towards the all-selected state and are left out of Live.
type Manager struct {
	order []any
	set   map[string]struct{}
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{set: make(map[string]struct{})}
}

// Clear resets the selection state.
func (m *Manager) Clear() {
	m.order = nil
	m.set = make(map[string]struct{})
}

// IsSelected reports whether the row with id is checked.
func (m *Manager) IsSelected(id any) bool {
	_, ok := m.set[model.KeyOf(id)]
	return ok
}

// Count returns the number of selected ids, stale ones included.
func (m *Manager) Count() int {
	return len(m.order)
}

// IsEmpty reports whether nothing is selected.
func (m *Manager) IsEmpty() bool {
	return len(m.order) == 0
}

// SelectedIDs returns the selected ids in selection order.
func (m *Manager) SelectedIDs() []any {
	out := make([]any, len(m.order))
	copy(out, m.order)
	return out
}

// ToggleOne flips membership of id.
func (m *Manager) ToggleOne(id any) {
	key := model.KeyOf(id)
	if _, ok := m.set[key]; ok {
		delete(m.set, key)
		for i, v := range m.order {
			if model.KeyOf(v) == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return
	}
	m.set[key] = struct{}{}
	m.order = append(m.order, id)
}

// ToggleAll clears the selection when every filtered row is already checked,
// otherwise replaces it with every filtered id.
func (m *Manager) ToggleAll(filtered []model.Row) {
	if m.IsAllSelected(filtered) {
		m.Clear()
		return
	}
	m.Clear()
	for _, row := range filtered {
		key := row.Key()
		if _, dup := m.set[key]; dup {
			continue
		}
		m.set[key] = struct{}{}
		m.order = append(m.order, row.ID())
	}
}

// IsAllSelected is true when filtered is non-empty and every row in it is checked.
func (m *Manager) IsAllSelected(filtered []model.Row) bool {
	if len(filtered) == 0 {
		return false
	}
	for _, row := range filtered {
		if _, ok := m.set[row.Key()]; !ok {
			return false
		}
	}
	return true
}

// IsIndeterminate is true when something is selected but not every filtered row.
func (m *Manager) IsIndeterminate(filtered []model.Row) bool {
	return len(m.Live(filtered)) > 0 && !m.IsAllSelected(filtered)
}

// Live returns the selected ids that still belong to filtered, in filtered order.
func (m *Manager) Live(filtered []model.Row) []any {
	var out []any
	for _, row := range filtered {
		if _, ok := m.set[row.Key()]; ok {
			out = append(out, row.ID())
		}
	}
	return out
}

// Prune drops ids that are no longer part of filtered. Returns true if state changed.
func (m *Manager) Prune(filtered []model.Row) bool {
	keep := make(map[string]struct{}, len(filtered))
	for _, row := range filtered {
		keep[row.Key()] = struct{}{}
	}
	changed := false
	order := m.order[:0]
	for _, id := range m.order {
		key := model.KeyOf(id)
		if _, ok := keep[key]; ok {
			order = append(order, id)
			continue
		}
		delete(m.set, key)
		changed = true
	}
	m.order = order
	return changed
}
