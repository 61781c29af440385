// Package form orchestrates the add/edit dialog of a table: which dialog is
// open, the values being edited, dirty tracking, discard confirmation, and
// submission through host callbacks that may reject to keep the dialog open.
package form

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/darksworm/backoffice/pkg/model"
)

// Mode is the open dialog kind. The zero value means closed.
type Mode string

const (
	ModeNone Mode = ""
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// DialogState is either closed, adding, or editing a specific row.
type DialogState struct {
	mode Mode
	row  model.Row
}

// Closed is the state with no dialog.
func Closed() DialogState { return DialogState{} }

// Adding is the state of the add dialog.
func Adding() DialogState { return DialogState{mode: ModeAdd} }

// Editing is the state of the edit dialog for row.
func Editing(row model.Row) DialogState { return DialogState{mode: ModeEdit, row: row} }

// Mode returns the dialog kind.
func (d DialogState) Mode() Mode { return d.mode }

// Row returns the row being edited, nil unless editing.
func (d DialogState) Row() model.Row { return d.row }

// IsOpen reports whether any dialog is shown.
func (d DialogState) IsOpen() bool { return d.mode != ModeNone }

// ModalMode is how the open dialog presents itself.
type ModalMode string

const (
	ModalAdd  ModalMode = "add"
	ModalEdit ModalMode = "edit"
	ModalView ModalMode = "view"
)

// Values are the field values of the open dialog.
type Values map[string]any

// Clone returns a shallow copy; list values are copied too.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if list, ok := val.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			val = cp
		}
		out[k] = val
	}
	return out
}

// Verdict is what an add or edit callback reports. Only Reject keeps the
// dialog open; the zero value closes it.
type Verdict struct {
	Reject      bool
	Message     string
	FieldErrors map[string]string
}

// Reject returns a verdict that keeps the dialog open with a message.
func Reject(message string) Verdict {
	return Verdict{Reject: true, Message: message}
}

// RejectFields returns a verdict that keeps the dialog open with per-field errors.
func RejectFields(message string, fieldErrors map[string]string) Verdict {
	return Verdict{Reject: true, Message: message, FieldErrors: fieldErrors}
}

// AddFunc receives the values of a new record.
type AddFunc func(ctx context.Context, values Values) Verdict

// EditFunc receives the id and edited values of an existing record.
type EditFunc func(ctx context.Context, id any, values Values) Verdict

// passThroughKeys are copied from the edited row even when no field covers them.
var passThroughKeys = []string{"editable", "scopeType", "scopeTargetId"}

// Config wires the orchestrator to its schema, callbacks and permissions.
type Config struct {
	// Fields is the explicit form schema. When nil, Columns are used and
	// edit values are the row itself.
	Fields  []model.FormField
	Columns []model.Column

	OnAdd  AddFunc
	OnEdit EditFunc
	// OnOpen runs whenever a dialog opens, e.g. to close row menus.
	OnOpen func()

	CanEdit     bool
	DisableEdit bool
}

// DismissResult reports what an indirect dismissal did.
type DismissResult int

const (
	DismissNone DismissResult = iota
	DismissClosed
	DismissPending
)

// Orchestrator is the dialog state machine.
type Orchestrator struct {
	cfg Config

	state   DialogState
	values  Values
	initial Values

	message        string
	fieldErrors    map[string]string
	confirmDiscard bool

	// seq changes on every open and close, so late completions can tell
	// whether the dialog they belong to is still the current one.
	seq        uint64
	submitting bool
}

// New creates a closed Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, values: Values{}, initial: Values{}}
}

// SetPermissions updates edit permission flags.
func (o *Orchestrator) SetPermissions(canEdit, disableEdit bool) {
	o.cfg.CanEdit = canEdit
	o.cfg.DisableEdit = disableEdit
}

// Schema returns the fields the dialog edits.
func (o *Orchestrator) Schema() []model.FormField {
	if o.cfg.Fields != nil {
		return o.cfg.Fields
	}
	return model.FieldsFromColumns(o.cfg.Columns)
}

// State returns the dialog state.
func (o *Orchestrator) State() DialogState { return o.state }

// IsOpen reports whether a dialog is shown.
func (o *Orchestrator) IsOpen() bool { return o.state.IsOpen() }

// Values returns a copy of the current values.
func (o *Orchestrator) Values() Values { return o.values.Clone() }

// Value returns one current value.
func (o *Orchestrator) Value(key string) any { return o.values[key] }

// Message returns the dialog-level validation message.
func (o *Orchestrator) Message() string { return o.message }

// FieldError returns the error attached to a field.
func (o *Orchestrator) FieldError(key string) string { return o.fieldErrors[key] }

// FieldErrors returns a copy of every field error.
func (o *Orchestrator) FieldErrors() map[string]string {
	out := make(map[string]string, len(o.fieldErrors))
	for k, v := range o.fieldErrors {
		out[k] = v
	}
	return out
}

// ConfirmingDiscard reports whether a discard prompt is showing.
func (o *Orchestrator) ConfirmingDiscard() bool { return o.confirmDiscard }

// Submitting reports whether a submission is in flight.
func (o *Orchestrator) Submitting() bool { return o.submitting }

// OpenAdd opens the add dialog seeded from field defaults.
func (o *Orchestrator) OpenAdd() {
	o.open(Adding(), o.buildValues(nil))
}

// OpenEdit opens the edit dialog for row.
func (o *Orchestrator) OpenEdit(row model.Row) {
	if row == nil {
		return
	}
	o.open(Editing(row), o.buildValues(row))
}

func (o *Orchestrator) open(state DialogState, values Values) {
	o.seq++
	o.state = state
	o.values = values
	o.initial = values.Clone()
	o.message = ""
	o.fieldErrors = nil
	o.confirmDiscard = false
	o.submitting = false
	if o.cfg.OnOpen != nil {
		o.cfg.OnOpen()
	}
}

// Close hides the dialog and clears everything it held. Closing a closed
// dialog does nothing.
func (o *Orchestrator) Close() {
	if !o.state.IsOpen() {
		return
	}
	o.seq++
	o.state = Closed()
	o.values = Values{}
	o.initial = Values{}
	o.message = ""
	o.fieldErrors = nil
	o.confirmDiscard = false
	o.submitting = false
}

// buildValues seeds the dialog. With an explicit schema each field takes the
// row value or its default; multiselect fields always hold a list. Without
// one, edit starts from the row and add starts empty.
func (o *Orchestrator) buildValues(row model.Row) Values {
	if o.cfg.Fields == nil {
		if row != nil {
			return Values(row.Clone())
		}
		return Values{}
	}

	values := make(Values, len(o.cfg.Fields)+1)
	for _, f := range o.cfg.Fields {
		if row != nil {
			existing, present := row[f.Key]
			if f.IsMulti() {
				values[f.Key] = asList(existing, present)
				continue
			}
			if present && existing != nil {
				values[f.Key] = existing
				continue
			}
		}
		values[f.Key] = defaultFor(f)
	}

	if row != nil {
		if id := row.ID(); id != nil {
			values[model.IDField] = id
		}
		for _, k := range passThroughKeys {
			if _, covered := values[k]; covered {
				continue
			}
			if v, ok := row[k]; ok {
				values[k] = v
			}
		}
	}
	return values
}

func defaultFor(f model.FormField) any {
	if f.IsMulti() {
		if list, ok := f.DefaultValue.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			return cp
		}
		return []any{}
	}
	if f.DefaultValue == nil {
		return ""
	}
	return f.DefaultValue
}

func asList(v any, present bool) []any {
	if !present || v == nil {
		return []any{}
	}
	if list, ok := v.([]any); ok {
		cp := make([]any, len(list))
		copy(cp, list)
		return cp
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// SetField merges one value into the open dialog.
func (o *Orchestrator) SetField(key string, value any) {
	if !o.state.IsOpen() {
		return
	}
	o.values[key] = value
	if o.fieldErrors != nil {
		delete(o.fieldErrors, key)
	}
}

// SetValidationError shows a dialog-level message.
func (o *Orchestrator) SetValidationError(msg string) {
	o.message = msg
}

// IsDirty compares serialised current and initial values.
func (o *Orchestrator) IsDirty() bool {
	if !o.state.IsOpen() {
		return false
	}
	a, errA := json.Marshal(o.values)
	b, errB := json.Marshal(o.initial)
	if errA != nil || errB != nil {
		return !reflect.DeepEqual(o.values, o.initial)
	}
	return string(a) != string(b)
}

// ModalMode reports add, edit, or view. Edit dialogs become view dialogs
// when the viewer cannot edit or editing is disabled.
func (o *Orchestrator) ModalMode() ModalMode {
	switch o.state.mode {
	case ModeAdd:
		return ModalAdd
	case ModeEdit:
		if o.cfg.CanEdit && !o.cfg.DisableEdit {
			return ModalEdit
		}
	}
	return ModalView
}

// CanSave reports whether the open dialog accepts submission.
func (o *Orchestrator) CanSave() bool {
	return o.state.IsOpen() && o.ModalMode() != ModalView && !o.submitting
}

// FieldDisabled reports whether a field is read-only in the open dialog.
func (o *Orchestrator) FieldDisabled(f model.FormField) bool {
	readOnly := o.state.mode == ModeEdit && !o.cfg.CanEdit
	return f.Disabled || readOnly || (o.state.mode == ModeEdit && o.cfg.DisableEdit)
}

// Title returns the dialog heading for an entity name.
func (o *Orchestrator) Title(entity string) string {
	switch o.ModalMode() {
	case ModalAdd:
		return "Add " + entity
	case ModalEdit:
		return "Edit " + entity
	default:
		return "View " + entity
	}
}

// CancelLabel is "Close" for view dialogs and "Cancel" otherwise.
func (o *Orchestrator) CancelLabel() string {
	if o.ModalMode() == ModalView {
		return "Close"
	}
	return "Cancel"
}

// RequestDismiss handles an indirect close (escape, clicking away). A dirty
// dialog asks for confirmation instead of closing.
func (o *Orchestrator) RequestDismiss() DismissResult {
	if !o.state.IsOpen() {
		return DismissNone
	}
	if o.ModalMode() != ModalView && o.IsDirty() {
		o.confirmDiscard = true
		return DismissPending
	}
	o.Close()
	return DismissClosed
}

// ConfirmDiscard closes the dialog after a pending dismissal.
func (o *Orchestrator) ConfirmDiscard() {
	if o.confirmDiscard {
		o.Close()
	}
}

// CancelDiscard returns to editing.
func (o *Orchestrator) CancelDiscard() {
	o.confirmDiscard = false
}

// Submission is a snapshot of one submit attempt.
type Submission struct {
	seq    uint64
	mode   Mode
	id     any
	values Values
	onAdd  AddFunc
	onEdit EditFunc
}

// Mode returns the dialog kind the submission was made from.
func (s Submission) Mode() Mode { return s.mode }

// Values returns the submitted values.
func (s Submission) Values() Values { return s.values }

// Run invokes the host callback. It does not touch the orchestrator, so it
// may run on another goroutine. A missing callback accepts.
func (s Submission) Run(ctx context.Context) Verdict {
	switch s.mode {
	case ModeAdd:
		if s.onAdd != nil {
			return s.onAdd(ctx, s.values)
		}
	case ModeEdit:
		if s.onEdit != nil {
			return s.onEdit(ctx, s.id, s.values)
		}
	}
	return Verdict{}
}

// Begin snapshots the open dialog for submission. Returns false when there is
// nothing to submit.
func (o *Orchestrator) Begin() (Submission, bool) {
	if !o.CanSave() {
		return Submission{}, false
	}
	o.message = ""
	o.submitting = true
	sub := Submission{
		seq:    o.seq,
		mode:   o.state.mode,
		values: o.values.Clone(),
		onAdd:  o.cfg.OnAdd,
		onEdit: o.cfg.OnEdit,
	}
	if o.state.mode == ModeEdit {
		sub.id = o.state.row.ID()
	}
	return sub, true
}

// Complete applies a verdict. Verdicts for a dialog that has since closed or
// been reopened are ignored. Returns true if the dialog closed.
func (o *Orchestrator) Complete(sub Submission, v Verdict) bool {
	if sub.seq != o.seq || !o.state.IsOpen() {
		return false
	}
	o.submitting = false
	if v.Reject {
		o.message = v.Message
		o.fieldErrors = nil
		if len(v.FieldErrors) > 0 {
			o.fieldErrors = make(map[string]string, len(v.FieldErrors))
			for k, e := range v.FieldErrors {
				o.fieldErrors[k] = e
			}
		}
		return false
	}
	o.Close()
	return true
}

// Submit runs the whole submission synchronously. Returns true if the dialog closed.
func (o *Orchestrator) Submit(ctx context.Context) bool {
	sub, ok := o.Begin()
	if !ok {
		return false
	}
	return o.Complete(sub, sub.Run(ctx))
}
