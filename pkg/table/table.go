// Package table is the top-level controller of a data table. It owns the
// query, filters, sorts, pagination, selection, column settings, dialogs and
// the armed delete actions of one table, and decides whether rows are
// computed locally or requested from the host page by page.
//
// A Controller is single-owner: every method must be called from the same
// goroutine, and timer callbacks must be delivered there too (see
// timer.Dispatch).
package table

import (
	"encoding/json"
	"time"

	cblog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/darksworm/backoffice/pkg/access"
	"github.com/darksworm/backoffice/pkg/arming"
	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/pagination"
	"github.com/darksworm/backoffice/pkg/selection"
	"github.com/darksworm/backoffice/pkg/settings"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/timer"
)

// DefaultDebounceDelay coalesces search keystrokes.
const DefaultDebounceDelay = 500 * time.Millisecond

// ViewMode selects the card or table rendering.
type ViewMode string

const (
	ViewTable ViewMode = "table"
	ViewCard  ViewMode = "card"
)

// ParseViewMode accepts "table" and "card"; anything else is ViewTable.
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewCard {
		return ViewCard
	}
	return ViewTable
}

// RowAction is a custom entry of the row menu.
type RowAction struct {
	Label    string
	Hidden   func(model.Row) bool
	Disabled bool
	Run      func(model.Row)
}

// BulkAction is a custom entry of the bulk bar. Run receives the selected
// ids that are still in the filtered set.
type BulkAction struct {
	Label string
	Run   func(ids []any)
}

// Config is the public contract between a host page and the controller.
type Config struct {
	// Title identifies the table for persisted settings. Entity names the
	// record type in dialog titles ("Add Contract").
	Title  string
	Entity string

	Columns    []model.Column
	FormFields []model.FormField
	Rows       []model.Row

	// Fetch switches the table to remote mode. The host answers with
	// SetRows and SetTotalRows.
	Fetch func(model.FetchParams)

	OnAdd        form.AddFunc
	OnEdit       form.EditFunc
	OnDelete     func(id any)
	OnBulkDelete func(ids []any)
	OnDialogOpen func()

	RowActions  []RowAction
	BulkActions []BulkAction

	Access   access.Descriptor
	Evaluate access.Evaluator

	DisableEdit   bool
	DisableDelete bool
	DisableView   bool

	// Settings persists column settings and density; Nav mirrors p and size.
	Settings store.Port
	Nav      store.Port

	Scheduler     timer.Scheduler
	ArmDuration   time.Duration
	DebounceDelay time.Duration

	Locale   string
	PageSize int
	ViewMode ViewMode

	// OnChange runs after timer-driven changes (debounced query, disarm).
	OnChange func()
}

// Controller wires the engine, selection, settings, pagination, form and
// arming packages together.
type Controller struct {
	cfg    Config
	caps   access.Capabilities
	remote bool

	rows       []model.Row
	index      *model.RowIndex
	totalRows  int
	totalKnown bool
	loading    bool

	input   string
	query   string
	filters model.FilterSet
	sorts   []model.SortRule

	version  uint64
	cacheVer uint64
	filtered []model.Row

	sel      *selection.Manager
	settings *settings.Store
	pager    *pagination.Controller
	form     *form.Orchestrator
	rowArm   *arming.Machine
	bulkArm  *arming.Machine
	debounce *timer.Debouncer

	view    ViewMode
	menuRow model.Row

	lastFetch string
	closed    bool

	logger *cblog.Logger
}

// New builds a controller. In remote mode the first fetch is issued before
// New returns.
func New(cfg Config) *Controller {
	if cfg.Scheduler == nil {
		cfg.Scheduler = timer.Real()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.Evaluate == nil {
		cfg.Evaluate = access.Evaluate
	}
	if cfg.Locale == "" {
		cfg.Locale = engine.DefaultLocale
	}

	c := &Controller{
		cfg:      cfg,
		remote:   cfg.Fetch != nil,
		filters:  model.FilterSet{Conjunction: model.ConjunctionAnd},
		sel:      selection.New(),
		settings: settings.Load(cfg.Settings, cfg.Title, cfg.Columns),
		pager:    pagination.New(cfg.Nav, cfg.PageSize),
		rowArm:   arming.New(cfg.Scheduler, cfg.ArmDuration),
		bulkArm:  arming.New(cfg.Scheduler, cfg.ArmDuration),
		debounce: timer.NewDebouncer(cfg.Scheduler, cfg.DebounceDelay),
		view:     cfg.ViewMode,
		logger:   cblog.With("component", "table", "table", cfg.Title),
	}
	if c.view == "" {
		c.view = ViewTable
	}
	c.caps = cfg.Evaluate(cfg.Access)
	c.form = form.New(form.Config{
		Fields:      cfg.FormFields,
		Columns:     cfg.Columns,
		OnAdd:       cfg.OnAdd,
		OnEdit:      cfg.OnEdit,
		OnOpen:      c.onDialogOpen,
		CanEdit:     c.caps.Edit,
		DisableEdit: cfg.DisableEdit,
	})
	notify := func(arming.State) {
		if c.cfg.OnChange != nil {
			c.cfg.OnChange()
		}
	}
	c.rowArm.OnChange(notify)
	c.bulkArm.OnChange(notify)

	if !c.remote {
		c.setRows(cfg.Rows)
	}
	c.sync()
	return c
}

// IsRemote reports whether rows come from the Fetch callback.
func (c *Controller) IsRemote() bool { return c.remote }

// Title returns the table title.
func (c *Controller) Title() string { return c.cfg.Title }

// Entity returns the record name used in dialog titles.
func (c *Controller) Entity() string {
	if c.cfg.Entity != "" {
		return c.cfg.Entity
	}
	if c.cfg.Title != "" {
		return c.cfg.Title
	}
	return "record"
}

// Columns returns the full column schema.
func (c *Controller) Columns() []model.Column { return c.cfg.Columns }

// ---- data ----

// SetRows replaces the row array. In remote mode this is the current page.
func (c *Controller) SetRows(rows []model.Row) {
	c.setRows(rows)
	c.loading = false
	c.sync()
}

func (c *Controller) setRows(rows []model.Row) {
	c.rows = rows
	fields := make([]string, 0, len(c.cfg.Columns))
	for _, col := range c.cfg.Columns {
		fields = append(fields, col.Key)
	}
	c.index = model.BuildRowIndex(rows, fields)
	c.touch()
}

// Rows returns the raw row array.
func (c *Controller) Rows() []model.Row { return c.rows }

// Index returns the lookup index over the current rows.
func (c *Controller) Index() *model.RowIndex {
	if c.index == nil {
		c.index = model.BuildRowIndex(nil, nil)
	}
	return c.index
}

// RowByID finds a row of the current array.
func (c *Controller) RowByID(id any) (model.Row, bool) {
	i, ok := c.Index().Lookup(id)
	if !ok {
		return nil, false
	}
	return c.rows[i], true
}

// SetResult delivers a remote page and its total in one step.
func (c *Controller) SetResult(rows []model.Row, total int) {
	c.setRows(rows)
	c.loading = false
	if c.remote {
		c.totalRows = total
		c.totalKnown = true
	}
	c.sync()
}

// SetTotalRows reports the remote total. Ignored in local mode.
func (c *Controller) SetTotalRows(n int) {
	if !c.remote {
		return
	}
	c.totalRows = n
	c.totalKnown = true
	c.sync()
}

// SetLoading marks a fetch in flight.
func (c *Controller) SetLoading(on bool) { c.loading = on }

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Refresh re-issues the fetch for the current state. Returns false in local mode.
func (c *Controller) Refresh() bool {
	if !c.remote || c.closed {
		return false
	}
	c.lastFetch = ""
	c.sync()
	return true
}

// ---- search ----

// Input returns the search text as typed, before debouncing.
func (c *Controller) Input() string { return c.input }

// Query returns the applied search text.
func (c *Controller) Query() string { return c.query }

// SetQuery records typed text and applies it after the debounce delay.
func (c *Controller) SetQuery(q string) {
	c.input = q
	if q == c.query {
		c.debounce.Cancel()
		return
	}
	c.debounce.Trigger(func() {
		if c.closed {
			return
		}
		c.applyQuery(q)
		if c.cfg.OnChange != nil {
			c.cfg.OnChange()
		}
	})
}

// FlushQuery applies pending search text immediately.
func (c *Controller) FlushQuery() {
	c.debounce.Cancel()
	c.applyQuery(c.input)
}

func (c *Controller) applyQuery(q string) {
	if q == c.query {
		return
	}
	c.query = q
	c.touch()
	c.sync()
}

// Filters returns the active filter set.
func (c *Controller) Filters() model.FilterSet { return c.filters }

// SetFilters replaces the filter set.
func (c *Controller) SetFilters(fs model.FilterSet) {
	fs = fs.Normalized()
	fs.Rules = append([]model.FilterRule(nil), fs.Rules...)
	c.filters = fs
	c.touch()
	c.sync()
}

// AddFilter appends a rule, assigning an id when it has none, and returns the id.
func (c *Controller) AddFilter(rule model.FilterRule) string {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	fs := c.filters
	fs.Rules = append(append([]model.FilterRule(nil), fs.Rules...), rule)
	c.SetFilters(fs)
	return rule.ID
}

// RemoveFilter drops the rule with the given id.
func (c *Controller) RemoveFilter(id string) bool {
	fs := c.filters
	out := make([]model.FilterRule, 0, len(fs.Rules))
	for _, r := range fs.Rules {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if len(out) == len(fs.Rules) {
		return false
	}
	fs.Rules = out
	c.SetFilters(fs)
	return true
}

// SetConjunction switches between AND and OR.
func (c *Controller) SetConjunction(conj model.Conjunction) {
	fs := c.filters
	fs.Conjunction = conj
	c.SetFilters(fs)
}

// ClearFilters removes every rule and keeps the conjunction.
func (c *Controller) ClearFilters() {
	c.SetFilters(model.FilterSet{Conjunction: c.filters.Conjunction})
}

// Sorts returns the sort chain.
func (c *Controller) Sorts() []model.SortRule { return c.sorts }

// SetSorts replaces the sort chain.
func (c *Controller) SetSorts(rules []model.SortRule) {
	c.sorts = append([]model.SortRule(nil), rules...)
	c.touch()
	c.sync()
}

// AddSort sets the order for field, appending it to the chain when absent.
func (c *Controller) AddSort(field string, order model.SortOrder) {
	rules := append([]model.SortRule(nil), c.sorts...)
	for i := range rules {
		if rules[i].Field == field {
			rules[i].Order = order
			c.SetSorts(rules)
			return
		}
	}
	c.SetSorts(append(rules, model.SortRule{Field: field, Order: order}))
}

// ToggleSort cycles a field through asc, desc and unsorted.
func (c *Controller) ToggleSort(field string) {
	rules := make([]model.SortRule, 0, len(c.sorts)+1)
	found := false
	for _, r := range c.sorts {
		if r.Field != field {
			rules = append(rules, r)
			continue
		}
		found = true
		if r.Order == model.SortAsc {
			rules = append(rules, model.SortRule{Field: field, Order: model.SortDesc})
		}
	}
	if !found {
		rules = append(rules, model.SortRule{Field: field, Order: model.SortAsc})
	}
	c.SetSorts(rules)
}

// ClearSorts empties the sort chain.
func (c *Controller) ClearSorts() { c.SetSorts(nil) }

// ---- derived ----

// Filtered returns the filtered and sorted rows. In remote mode it is the
// current row array.
func (c *Controller) Filtered() []model.Row {
	if c.filtered != nil && c.cacheVer == c.version {
		return c.filtered
	}
	visible := c.settings.VisibleColumns()
	cols := make([]model.Column, len(visible))
	for i, v := range visible {
		cols[i] = v.Column
	}
	out := engine.Compute(c.rows, c.query, c.filters, c.sorts, engine.Options{
		Columns: cols,
		Schema:  c.cfg.Columns,
		Remote:  c.remote,
		Locale:  c.cfg.Locale,
	})
	if out == nil {
		out = []model.Row{}
	}
	c.filtered = out
	c.cacheVer = c.version
	return out
}

// Window returns the rows of the current page.
func (c *Controller) Window() []model.Row {
	if c.remote {
		return c.rows
	}
	return pagination.Slice(c.Filtered(), c.pager.Page(), c.pager.PageSize())
}

// Total is the remote total when reported, else the filtered count.
func (c *Controller) Total() int {
	if c.remote && c.totalKnown {
		return c.totalRows
	}
	return len(c.Filtered())
}

// TotalPages returns max(1, ceil(Total/PageSize)).
func (c *Controller) TotalPages() int {
	return pagination.TotalPages(c.Total(), c.pager.PageSize())
}

// Pagination returns page, size and custom-size mode.
func (c *Controller) Pagination() pagination.State { return c.pager.State() }

// Range returns the 1-based bounds shown in the footer.
func (c *Controller) Range() (from, to int) {
	total := c.Total()
	start, end := pagination.Window(total, c.pager.Page(), c.pager.PageSize())
	if start >= end {
		return 0, 0
	}
	return start + 1, end
}

// ---- pagination ----

// SetPage requests a page, clamped to 1..TotalPages.
func (c *Controller) SetPage(page int) { c.pager.SetPage(page); c.sync() }

// NextPage advances one page.
func (c *Controller) NextPage() { c.pager.NextPage(); c.sync() }

// PrevPage goes back one page.
func (c *Controller) PrevPage() { c.pager.PrevPage(); c.sync() }

// FirstPage jumps to page 1.
func (c *Controller) FirstPage() { c.pager.FirstPage(); c.sync() }

// LastPage jumps to the last page.
func (c *Controller) LastPage() { c.pager.LastPage(); c.sync() }

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(size int) error {
	if err := c.pager.SetPageSize(size); err != nil {
		return err
	}
	c.sync()
	return nil
}

// SetCustomSizeMode toggles free page-size entry.
func (c *Controller) SetCustomSizeMode(on bool) { c.pager.SetCustomSizeMode(on) }

// sync brings pagination in line with the current state and issues the
// remote fetch when its parameters changed.
func (c *Controller) sync() {
	if c.closed {
		return
	}
	c.pager.ObserveSignature(pagination.Signature(c.query, c.filters, c.sorts))
	// a remote page only clamps once the host reported the total, so a
	// bookmarked page survives the first fetch
	if !c.remote || c.totalKnown {
		c.pager.SetTotal(c.Total())
	}
	if !c.remote {
		return
	}

	params := model.FetchParams{
		Page:    c.pager.Page(),
		Limit:   c.pager.PageSize(),
		Query:   c.query,
		Filters: c.filters.Normalized(),
		Sorts:   c.sorts,
	}
	if params.Sorts == nil {
		params.Sorts = []model.SortRule{}
	}
	key, err := json.Marshal(params)
	if err != nil {
		c.logger.Warn("Failed to serialise fetch parameters", "err", err)
		return
	}
	if string(key) == c.lastFetch {
		return
	}
	c.lastFetch = string(key)
	c.loading = true
	c.logger.Debug("Fetching rows", "page", params.Page, "limit", params.Limit, "query", params.Query)
	c.cfg.Fetch(params)
}

func (c *Controller) touch() { c.version++ }

// ---- selection ----

// ToggleAll selects every filtered row, or clears when all are selected.
func (c *Controller) ToggleAll() { c.sel.ToggleAll(c.Filtered()) }

// ToggleOne flips one id.
func (c *Controller) ToggleOne(id any) { c.sel.ToggleOne(id) }

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() { c.sel.Clear() }

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id any) bool { return c.sel.IsSelected(id) }

// IsAllSelected reports whether every filtered row is selected.
func (c *Controller) IsAllSelected() bool { return c.sel.IsAllSelected(c.Filtered()) }

// IsIndeterminate reports a partial selection of the filtered rows.
func (c *Controller) IsIndeterminate() bool { return c.sel.IsIndeterminate(c.Filtered()) }

// SelectedIDs returns the selected ids still present in the filtered set.
func (c *Controller) SelectedIDs() []any { return c.sel.Live(c.Filtered()) }

// SelectionCount is len(SelectedIDs()).
func (c *Controller) SelectionCount() int { return len(c.SelectedIDs()) }

// ---- view ----

// ViewMode returns the current rendering mode.
func (c *Controller) ViewMode() ViewMode { return c.view }

// SetViewMode switches between card and table.
func (c *Controller) SetViewMode(m ViewMode) { c.view = ParseViewMode(string(m)) }

// ToggleViewMode flips between card and table.
func (c *Controller) ToggleViewMode() {
	if c.view == ViewCard {
		c.view = ViewTable
	} else {
		c.view = ViewCard
	}
}

// ---- settings ----

// Settings exposes the settings store for reading. Mutate through the
// controller so derived rows are recomputed.
func (c *Controller) Settings() *settings.Store { return c.settings }

// VisibleColumns returns the displayed columns with their width levels.
func (c *Controller) VisibleColumns() []settings.VisibleColumn { return c.settings.VisibleColumns() }

// Density returns the persisted density.
func (c *Controller) Density() settings.Density { return c.settings.Density() }

// ToggleColumn shows or hides a column.
func (c *Controller) ToggleColumn(key string) error {
	err := c.settings.ToggleVisibility(key)
	c.columnsChanged()
	return err
}

// SetColumnWidth sets a width level in 1..3.
func (c *Controller) SetColumnWidth(key string, level int) error {
	return c.settings.SetWidthLevel(key, level)
}

// CycleColumnWidth steps a column through the width levels.
func (c *Controller) CycleColumnWidth(key string) error {
	return c.settings.CycleWidthLevel(key)
}

// MoveColumn moves the column at index from to index to.
func (c *Controller) MoveColumn(from, to int) error {
	err := c.settings.Move(from, to)
	c.columnsChanged()
	return err
}

// MoveColumnUp moves the column at i one step earlier.
func (c *Controller) MoveColumnUp(i int) bool {
	moved := c.settings.MoveUp(i)
	c.columnsChanged()
	return moved
}

// MoveColumnDown moves the column at i one step later.
func (c *Controller) MoveColumnDown(i int) bool {
	moved := c.settings.MoveDown(i)
	c.columnsChanged()
	return moved
}

// ReorderColumns replaces the full column settings array.
func (c *Controller) ReorderColumns(next []settings.ColumnSetting) error {
	err := c.settings.Reorder(next)
	c.columnsChanged()
	return err
}

// the text query only searches visible columns
func (c *Controller) columnsChanged() {
	c.touch()
	c.sync()
}

// SetDensity persists a density.
func (c *Controller) SetDensity(d settings.Density) error { return c.settings.SetDensity(d) }

// CycleDensity steps to the next density.
func (c *Controller) CycleDensity() error { return c.settings.CycleDensity() }

// ---- teardown ----

// Close cancels every live timer and closes menus and dialogs. The
// controller issues no fetches afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.debounce.Cancel()
	c.rowArm.Cancel()
	c.bulkArm.Cancel()
	c.menuRow = nil
	c.form.Close()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool { return c.closed }
