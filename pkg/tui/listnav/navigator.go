// Package listnav tracks cursor and scroll positions for the console's
// lists: table rows, menu entries, settings columns, form fields and the
// scrolling preview and help panes. It does not render.
package listnav

// ListNavigator encapsulates cursor and scroll state for any scrollable list.
type ListNavigator struct {
	cursor         int // Currently selected item index (0-based)
	scrollOffset   int // First visible item index
	itemCount      int // Total items (set externally before navigation)
	viewportHeight int // Visible rows (set externally before navigation)
	wrap           bool
}

// New creates a ListNavigator that stops at both ends.
func New() *ListNavigator {
	return &ListNavigator{viewportHeight: 10}
}

// NewWrapping creates a ListNavigator whose cursor wraps around, as used by
// menus and form focus.
func NewWrapping() *ListNavigator {
	n := New()
	n.wrap = true
	return n
}

// Cursor returns the currently selected item index.
func (n *ListNavigator) Cursor() int {
	return n.cursor
}

// ScrollOffset returns the index of the first visible item.
func (n *ListNavigator) ScrollOffset() int {
	return n.scrollOffset
}

// ItemCount returns the list length last set.
func (n *ListNavigator) ItemCount() int {
	return n.itemCount
}

// SetItemCount updates the total item count and clamps cursor/scroll.
// Call this before any navigation operation.
func (n *ListNavigator) SetItemCount(count int) {
	n.itemCount = max(0, count)
	n.clampCursor()
	n.clampScrollOffset()
}

// SetViewportHeight updates the visible row count.
func (n *ListNavigator) SetViewportHeight(h int) {
	n.viewportHeight = max(1, h)
	n.clampScrollOffset()
}

// Move steps the cursor by delta. Wrapping navigators go around the ends;
// others stop there. Returns true if the cursor moved.
func (n *ListNavigator) Move(delta int) bool {
	if n.itemCount == 0 || delta == 0 {
		return false
	}
	old := n.cursor
	next := n.cursor + delta
	if n.wrap {
		next %= n.itemCount
		if next < 0 {
			next += n.itemCount
		}
	} else {
		next = max(0, min(next, n.itemCount-1))
	}
	n.cursor = next
	n.ensureCursorVisible()
	return n.cursor != old
}

// MoveUp moves the cursor up by one item.
func (n *ListNavigator) MoveUp() bool { return n.Move(-1) }

// MoveDown moves the cursor down by one item.
func (n *ListNavigator) MoveDown() bool { return n.Move(1) }

// AtTop reports whether the cursor is on the first item.
func (n *ListNavigator) AtTop() bool { return n.cursor == 0 }

// AtBottom reports whether the cursor is on the last item.
func (n *ListNavigator) AtBottom() bool { return n.itemCount == 0 || n.cursor == n.itemCount-1 }

// GoToTop moves the cursor to the first item.
func (n *ListNavigator) GoToTop() bool {
	if n.cursor == 0 && n.scrollOffset == 0 {
		return false
	}
	n.cursor = 0
	n.scrollOffset = 0
	return true
}

// GoToBottom moves the cursor to the last item.
func (n *ListNavigator) GoToBottom() bool {
	if n.itemCount == 0 {
		return false
	}
	old, oldScroll := n.cursor, n.scrollOffset
	n.cursor = n.itemCount - 1
	n.scrollOffset = max(0, n.itemCount-n.viewportHeight)
	return n.cursor != old || n.scrollOffset != oldScroll
}

// Scroll moves the viewport of a read-only pane by delta lines, leaving the
// cursor alone.
func (n *ListNavigator) Scroll(delta int) bool {
	old := n.scrollOffset
	n.scrollOffset += delta
	n.clampScrollOffset()
	return n.scrollOffset != old
}

// SetCursor directly sets the cursor position with bounds checking.
func (n *ListNavigator) SetCursor(idx int) {
	n.cursor = idx
	n.clampCursor()
	n.ensureCursorVisible()
}

// Reset clears state to initial values.
func (n *ListNavigator) Reset() {
	n.cursor = 0
	n.scrollOffset = 0
}

func (n *ListNavigator) clampCursor() {
	if n.itemCount == 0 {
		n.cursor = 0
		return
	}
	n.cursor = max(0, min(n.cursor, n.itemCount-1))
}

func (n *ListNavigator) clampScrollOffset() {
	if n.itemCount == 0 {
		n.scrollOffset = 0
		return
	}
	maxScroll := max(0, n.itemCount-n.viewportHeight)
	n.scrollOffset = max(0, min(n.scrollOffset, maxScroll))
}

func (n *ListNavigator) ensureCursorVisible() {
	if n.cursor < n.scrollOffset {
		n.scrollOffset = n.cursor
	}
	if n.cursor >= n.scrollOffset+n.viewportHeight {
		n.scrollOffset = n.cursor - n.viewportHeight + 1
	}
	n.clampScrollOffset()
}
