// Package pagination keeps a 1-based page within bounds as the data changes
// and mirrors page and size into a navigable parameter store.
package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"

	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/store"
)

// Navigable parameter names.
const (
	ParamPage = "p"
	ParamSize = "size"
)

// DefaultPageSize is used when nothing else was requested.
const DefaultPageSize = 10

// PageSizePresets are the sizes offered without entering custom mode.
var PageSizePresets = []int{10, 25, 50, 100}

// IsPreset reports whether size is one of PageSizePresets.
func IsPreset(size int) bool {
	for _, p := range PageSizePresets {
		if p == size {
			return true
		}
	}
	return false
}

// TotalPages returns max(1, ceil(total/size)).
func TotalPages(total, size int) int {
	if size < 1 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// State is the visible pagination state.
type State struct {
	Page           int
	PageSize       int
	CustomSizeMode bool
}

// Controller owns the page state. State-changing methods return true if the
// state changed.
type Controller struct {
	state State

	total      int
	totalKnown bool

	signature string
	observed  bool

	nav    store.Port
	logger *cblog.Logger
}

// New reads p and size from nav (which may be nil). Invalid values fall back
// to page 1 and defaultSize.
func New(nav store.Port, defaultSize int) *Controller {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	c := &Controller{
		state:  State{Page: 1, PageSize: defaultSize},
		nav:    nav,
		logger: cblog.With("component", "pagination"),
	}
	if v, ok := c.read(ParamSize); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			c.state.PageSize = n
		}
	}
	if v, ok := c.read(ParamPage); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			c.state.Page = n
		}
	}
	c.state.CustomSizeMode = !IsPreset(c.state.PageSize)
	return c
}

func (c *Controller) read(key string) (string, bool) {
	if c.nav == nil {
		return "", false
	}
	v, ok, err := c.nav.Get(key)
	if err != nil {
		c.logger.Warn("Failed to read navigation state", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

func (c *Controller) mirror() {
	if c.nav == nil {
		return
	}
	if err := c.nav.Set(ParamPage, strconv.Itoa(c.state.Page)); err != nil {
		c.logger.Warn("Failed to write navigation state", "err", err)
	}
	if err := c.nav.Set(ParamSize, strconv.Itoa(c.state.PageSize)); err != nil {
		c.logger.Warn("Failed to write navigation state", "err", err)
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Page returns the current 1-based page.
func (c *Controller) Page() int { return c.state.Page }

// PageSize returns the number of rows per page.
func (c *Controller) PageSize() int { return c.state.PageSize }

// Total returns the last reported row count.
func (c *Controller) Total() int { return c.total }

// TotalPages returns the page count for the last reported total.
func (c *Controller) TotalPages() int {
	return TotalPages(c.total, c.state.PageSize)
}

// SetTotal reports the size of the filtered set and clamps the page down if
// the set shrank.
func (c *Controller) SetTotal(total int) bool {
	if total < 0 {
		total = 0
	}
	c.total = total
	c.totalKnown = true
	return c.clamp()
}

func (c *Controller) clamp() bool {
	page := c.state.Page
	if page < 1 {
		page = 1
	}
	if c.totalKnown {
		if last := c.TotalPages(); page > last {
			page = last
		}
	}
	if page == c.state.Page {
		return false
	}
	c.state.Page = page
	c.mirror()
	return true
}

// SetPage requests a page; the result is clamped to 1..TotalPages.
func (c *Controller) SetPage(page int) bool {
	if page < 1 {
		page = 1
	}
	if c.totalKnown {
		if last := c.TotalPages(); page > last {
			page = last
		}
	}
	if page == c.state.Page {
		return false
	}
	c.state.Page = page
	c.mirror()
	return true
}

// NextPage advances one page if possible.
func (c *Controller) NextPage() bool { return c.SetPage(c.state.Page + 1) }

// PrevPage goes back one page if possible.
func (c *Controller) PrevPage() bool { return c.SetPage(c.state.Page - 1) }

// FirstPage jumps to page 1.
func (c *Controller) FirstPage() bool { return c.SetPage(1) }

// LastPage jumps to the last page.
func (c *Controller) LastPage() bool { return c.SetPage(c.TotalPages()) }

// HasNext reports whether a later page exists.
func (c *Controller) HasNext() bool { return c.state.Page < c.TotalPages() }

// HasPrev reports whether an earlier page exists.
func (c *Controller) HasPrev() bool { return c.state.Page > 1 }

// SetPageSize changes the size and returns to page 1. Sizes outside the
// presets switch on custom mode.
func (c *Controller) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("page size must be positive, got %d", size)
	}
	c.state.PageSize = size
	c.state.CustomSizeMode = !IsPreset(size)
	c.state.Page = 1
	c.mirror()
	return nil
}

// SetCustomSizeMode toggles free entry of a page size without changing it.
func (c *Controller) SetCustomSizeMode(on bool) {
	c.state.CustomSizeMode = on || !IsPreset(c.state.PageSize)
}

// ObserveSignature resets to page 1 when the query/filter/sort signature
// differs from the last one seen. The first observation only records it.
func (c *Controller) ObserveSignature(sig string) bool {
	if !c.observed {
		c.observed = true
		c.signature = sig
		return false
	}
	if sig == c.signature {
		return false
	}
	c.signature = sig
	if c.state.Page == 1 {
		return false
	}
	c.state.Page = 1
	c.mirror()
	return true
}

// Window returns the [start, end) bounds of the current page over n rows.
func (c *Controller) Window(n int) (start, end int) {
	return Window(n, c.state.Page, c.state.PageSize)
}

// Range returns the 1-based first and last row numbers shown, 0,0 when empty.
func (c *Controller) Range() (from, to int) {
	if c.total == 0 {
		return 0, 0
	}
	start, end := Window(c.total, c.state.Page, c.state.PageSize)
	if start >= end {
		return 0, 0
	}
	return start + 1, end
}

// Window returns the [start, end) bounds of page over n rows.
func Window(n, page, size int) (start, end int) {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	start = (page - 1) * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}

// Slice returns the page window of items.
func Slice[T any](items []T, page, size int) []T {
	start, end := Window(len(items), page, size)
	return items[start:end]
}

// signature is the serialised form compared across renders.
type signature struct {
	Query   string           `json:"query"`
	Filters model.FilterSet  `json:"filters"`
	Sorts   []model.SortRule `json:"sorts"`
}

// Signature serialises the inputs that send the view back to page 1.
func Signature(query string, filters model.FilterSet, sorts []model.SortRule) string {
	if sorts == nil {
		sorts = []model.SortRule{}
	}
	data, err := json.Marshal(signature{Query: query, Filters: filters.Normalized(), Sorts: sorts})
	if err != nil {
		return fmt.Sprintf("%q|%v|%v", query, filters, sorts)
	}
	return string(data)
}
