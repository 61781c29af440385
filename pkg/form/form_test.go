package form

import (
	"context"
	"reflect"
	"testing"

	"github.com/darksworm/backoffice/pkg/model"
)

var productFields = []model.FormField{
	{Column: model.Column{Key: "name", Label: "Nome"}, InputType: model.InputText, Required: true},
	{Column: model.Column{Key: "price", Label: "Preço"}, InputType: model.InputNumber, DefaultValue: 0.0},
	{Column: model.Column{Key: "tags", Label: "Tags"}, InputType: model.InputMultiSelect},
	{Column: model.Column{Key: "sku", Label: "SKU"}, InputType: model.InputText, Disabled: true},
}

func TestOpenAdd_SeedsDefaults(t *testing.T) {
	opened := 0
	o := New(Config{Fields: productFields, CanEdit: true, OnOpen: func() { opened++ }})
	o.OpenAdd()

	want := Values{"name": "", "price": 0.0, "tags": []any{}, "sku": ""}
	if got := o.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %#v, want %#v", got, want)
	}
	if o.State().Mode() != ModeAdd || o.ModalMode() != ModalAdd {
		t.Errorf("mode = %s / %s", o.State().Mode(), o.ModalMode())
	}
	if o.IsDirty() {
		t.Error("freshly opened dialog should be clean")
	}
	if opened != 1 {
		t.Errorf("OnOpen called %d times", opened)
	}
}

func TestOpenEdit_SeedsFromRow(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true})
	row := model.Row{
		"id":            7,
		"name":          "Café",
		"price":         nil,
		"tags":          "promo",
		"scopeType":     "tenant",
		"scopeTargetId": 3,
		"internal":      "dropped",
	}
	o.OpenEdit(row)

	want := Values{
		"id":            7,
		"name":          "Café",
		"price":         0.0,
		"tags":          []any{"promo"},
		"sku":           "",
		"scopeType":     "tenant",
		"scopeTargetId": 3,
	}
	if got := o.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %#v, want %#v", got, want)
	}
	if o.State().Row()["id"] != 7 {
		t.Error("State().Row() should be the edited row")
	}
}

func TestOpenEdit_MultiSelectListIsCopied(t *testing.T) {
	tags := []any{"a", "b"}
	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenEdit(model.Row{"id": 1, "tags": tags})
	o.SetField("tags", append(o.Value("tags").([]any), "c"))
	if len(tags) != 2 {
		t.Error("editing mutated the row's list")
	}
}

func TestNoSchema_EditUsesRowAndAddIsEmpty(t *testing.T) {
	o := New(Config{Columns: []model.Column{{Key: "name"}}, CanEdit: true})
	o.OpenEdit(model.Row{"id": 1, "name": "Ana", "extra": true})
	if got := o.Values(); !reflect.DeepEqual(got, Values{"id": 1, "name": "Ana", "extra": true}) {
		t.Errorf("edit Values() = %#v", got)
	}
	o.Close()
	o.OpenAdd()
	if len(o.Values()) != 0 {
		t.Errorf("add Values() = %#v, want empty", o.Values())
	}
	if len(o.Schema()) != 1 || o.Schema()[0].Key != "name" {
		t.Errorf("Schema() should fall back to columns, got %+v", o.Schema())
	}
}

func TestSubmit_AddClosesOnAccept(t *testing.T) {
	var received Values
	o := New(Config{Fields: productFields, CanEdit: true, OnAdd: func(_ context.Context, v Values) Verdict {
		received = v
		return Verdict{}
	}})
	o.OpenAdd()
	o.SetField("name", "Chá")

	if !o.Submit(context.Background()) {
		t.Fatal("accepted submission should close")
	}
	if received["name"] != "Chá" {
		t.Errorf("callback got %#v", received)
	}
	if o.IsOpen() || len(o.Values()) != 0 {
		t.Error("Close() should clear state")
	}
}

func TestSubmit_RejectKeepsOpen(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true, OnAdd: func(_ context.Context, v Values) Verdict {
		if v["name"] == "" {
			return RejectFields("Fix the errors", map[string]string{"name": "required"})
		}
		return Verdict{}
	}})
	o.OpenAdd()
	if o.Submit(context.Background()) {
		t.Fatal("rejected submission closed the dialog")
	}
	if !o.IsOpen() || o.Message() != "Fix the errors" || o.FieldError("name") != "required" {
		t.Errorf("after reject: open=%v message=%q errors=%v", o.IsOpen(), o.Message(), o.FieldErrors())
	}

	o.SetField("name", "ok")
	if o.FieldError("name") != "" {
		t.Error("editing a field should clear its error")
	}
	if !o.Submit(context.Background()) {
		t.Error("valid submission should close")
	}
}

func TestSubmit_EditPassesRowID(t *testing.T) {
	var gotID any
	o := New(Config{Fields: productFields, CanEdit: true, OnEdit: func(_ context.Context, id any, _ Values) Verdict {
		gotID = id
		return Verdict{}
	}})
	o.OpenEdit(model.Row{"id": "p-1", "name": "x"})
	o.Submit(context.Background())
	if gotID != "p-1" {
		t.Errorf("OnEdit id = %v, want p-1", gotID)
	}
}

func TestSubmit_MissingCallbackCloses(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenAdd()
	if !o.Submit(context.Background()) || o.IsOpen() {
		t.Error("no callback should behave like an accepting one")
	}
}

func TestComplete_LateVerdictIgnored(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenAdd()
	sub, ok := o.Begin()
	if !ok || !o.Submitting() {
		t.Fatal("Begin() should start a submission")
	}
	if o.CanSave() {
		t.Error("CanSave() should be false while submitting")
	}

	o.Close()
	o.OpenEdit(model.Row{"id": 2, "name": "other"})
	if o.Complete(sub, Verdict{}) {
		t.Error("verdict for a previous dialog closed the current one")
	}
	if !o.IsOpen() || o.State().Mode() != ModeEdit {
		t.Error("current dialog was disturbed")
	}

	o.Close()
	o.Close()
	if o.IsOpen() {
		t.Error("double close reopened the dialog")
	}
}

func TestDismiss(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenAdd()
	if r := o.RequestDismiss(); r != DismissClosed {
		t.Errorf("clean dismiss = %v, want closed", r)
	}

	o.OpenAdd()
	o.SetField("name", "draft")
	if !o.IsDirty() {
		t.Fatal("IsDirty() = false after edit")
	}
	if r := o.RequestDismiss(); r != DismissPending || !o.ConfirmingDiscard() {
		t.Fatalf("dirty dismiss = %v", r)
	}
	o.CancelDiscard()
	if !o.IsOpen() || o.ConfirmingDiscard() {
		t.Fatal("CancelDiscard should return to editing")
	}
	o.RequestDismiss()
	o.ConfirmDiscard()
	if o.IsOpen() {
		t.Error("ConfirmDiscard should close")
	}
	if r := o.RequestDismiss(); r != DismissNone {
		t.Errorf("dismiss on closed dialog = %v", r)
	}
}

func TestDirty_RevertingIsClean(t *testing.T) {
	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenEdit(model.Row{"id": 1, "name": "Ana"})
	o.SetField("name", "Bia")
	o.SetField("name", "Ana")
	if o.IsDirty() {
		t.Error("restoring the original value should be clean")
	}
}

func TestModalModeAndFieldDisabled(t *testing.T) {
	sku := productFields[3]
	name := productFields[0]

	o := New(Config{Fields: productFields, CanEdit: true})
	o.OpenEdit(model.Row{"id": 1})
	if o.ModalMode() != ModalEdit || o.FieldDisabled(name) || !o.FieldDisabled(sku) {
		t.Errorf("editable: mode=%s nameDisabled=%v skuDisabled=%v", o.ModalMode(), o.FieldDisabled(name), o.FieldDisabled(sku))
	}
	if o.Title("Produto") != "Edit Produto" || o.CancelLabel() != "Cancel" {
		t.Errorf("Title/CancelLabel = %q/%q", o.Title("Produto"), o.CancelLabel())
	}

	o.SetPermissions(false, false)
	if o.ModalMode() != ModalView || !o.FieldDisabled(name) || o.CanSave() {
		t.Error("read-only viewer should get a view dialog with disabled fields")
	}
	if o.Title("Produto") != "View Produto" || o.CancelLabel() != "Close" {
		t.Errorf("Title/CancelLabel = %q/%q", o.Title("Produto"), o.CancelLabel())
	}

	o.SetPermissions(true, true)
	if o.ModalMode() != ModalView || !o.FieldDisabled(name) {
		t.Error("disableEdit should force view mode")
	}
	if _, ok := o.Begin(); ok {
		t.Error("view dialogs must not submit")
	}

	o.Close()
	o.OpenAdd()
	if o.ModalMode() != ModalAdd || o.FieldDisabled(name) {
		t.Error("add dialog should stay editable even when edit is disabled")
	}
}
