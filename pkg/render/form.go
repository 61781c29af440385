package render

import (
	"fmt"
	"strings"

	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/table"
)

// FormFrame carries the host-side state of the open dialog.
type FormFrame struct {
	Width int
	// Focus indexes the schema; len(schema) is the Save button and
	// len(schema)+1 the Cancel button.
	Focus int
	// Input is the host's text editor view for the focused field while
	// editing. Empty means render the stored value.
	Input string
}

// Form renders the add, edit or view dialog of c.
func Form(c *table.Controller, s Styles, f FormFrame) string {
	o := c.Form()
	if !o.IsOpen() {
		return ""
	}
	width := max(24, f.Width)
	inner := width - 4

	title := o.Title(c.Entity())
	if o.ModalMode() != form.ModalView && o.IsDirty() {
		title += " •"
	}
	lines := []string{s.Header.Render(title), ""}

	schema := o.Schema()
	for i, field := range schema {
		lines = append(lines, formField(o, s, field, i == f.Focus, f.Input, inner)...)
	}

	if msg := o.Message(); msg != "" {
		lines = append(lines, s.Error.Render(Truncate(msg, inner)))
	}
	if o.Submitting() {
		lines = append(lines, s.Dim.Render("Saving…"))
	}
	lines = append(lines, "", formButtons(o, s, f.Focus, len(schema)))

	body := strings.Join(lines, "\n")
	if o.ConfirmingDiscard() {
		body += "\n\n" + DiscardPrompt(s)
	}
	return s.Modal.Width(width).Render(body)
}

func formField(o *form.Orchestrator, s Styles, field model.FormField, focused bool, input string, width int) []string {
	disabled := o.FieldDisabled(field)
	errText := o.FieldError(field.Key)

	label := field.Title()
	if field.Required {
		label += " *"
	}
	labelStyle := s.Label
	if focused {
		labelStyle = s.Header
	}
	lines := []string{labelStyle.Render(label)}

	var value string
	switch {
	case field.RenderInput != nil:
		value = field.RenderInput(model.FieldRenderProps{
			Field:    field,
			Value:    o.Value(field.Key),
			Disabled: disabled,
			Focused:  focused,
			Error:    errText,
		})
	case focused && input != "" && !disabled:
		value = input
	default:
		value = FieldValue(field, o.Value(field.Key))
		if value == "" {
			value = s.Dim.Render(field.Placeholder)
		}
	}

	prefix := "  "
	if focused {
		prefix = "▸ "
	}
	if disabled {
		value = s.Disabled.Render(value)
	}
	lines = append(lines, clipANSI(prefix+value, width))

	if errText != "" {
		lines = append(lines, s.Error.Render("  "+Truncate(errText, width-2)))
	} else if field.HelperText != "" {
		lines = append(lines, s.Dim.Render("  "+Truncate(field.HelperText, width-2)))
	}
	return lines
}

// FieldValue renders a stored form value as text for its input type.
func FieldValue(field model.FormField, v any) string {
	switch field.InputType {
	case model.InputBoolean:
		if b, ok := v.(bool); ok && b {
			return "[x]"
		}
		return "[ ]"
	case model.InputPassword:
		return strings.Repeat("•", len([]rune(engine.Stringify(v))))
	case model.InputSelect:
		if engine.IsEmpty(v) {
			return ""
		}
		if label, ok := field.OptionLabel(v); ok {
			return label
		}
		return engine.Stringify(v)
	case model.InputMultiSelect:
		list, _ := engine.AsList(v)
		labels := make([]string, 0, len(list))
		for _, item := range list {
			if label, ok := field.OptionLabel(item); ok {
				labels = append(labels, label)
			} else {
				labels = append(labels, engine.Stringify(item))
			}
		}
		return strings.Join(labels, ", ")
	}
	return singleLine(engine.Stringify(v))
}

func formButtons(o *form.Orchestrator, s Styles, focus, n int) string {
	cancel := s.Button
	if focus == n+1 {
		cancel = s.Active
	}
	buttons := []string{cancel.Render(o.CancelLabel())}
	if o.ModalMode() != form.ModalView {
		save := s.Button
		switch {
		case !o.CanSave():
			save = s.Disabled.Padding(0, 1)
		case focus == n:
			save = s.Active
		}
		buttons = append(buttons, save.Render("Save"))
	}
	return strings.Join(buttons, "  ")
}

// DiscardPrompt asks before closing a dialog with unsaved changes.
func DiscardPrompt(s Styles) string {
	return fmt.Sprintf("%s  %s  %s",
		s.Danger.Render("Discard unsaved changes?"),
		s.Button.Render("y discard"),
		s.Button.Render("n keep editing"))
}
