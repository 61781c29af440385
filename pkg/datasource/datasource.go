// Package datasource backs an entity table with rows: a local JSON document
// (or an in-memory list) for file entities and the REST API for remote ones.
package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/darksworm/backoffice/pkg/engine"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
)

// Writer is the mutation side shared by every source.
type Writer interface {
	Add(ctx context.Context, values form.Values) form.Verdict
	Edit(ctx context.Context, id any, values form.Values) form.Verdict
	Delete(ctx context.Context, id any) error
	DeleteMany(ctx context.Context, ids []any) error
}

// Watcher notifies onChange whenever the underlying data changes outside
// this process. It blocks until ctx ends.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Validate checks values against the form schema and coerces numeric and
// boolean text. It returns the cleaned values and per-field messages.
func Validate(fields []model.FormField, values form.Values) (form.Values, map[string]string) {
	out := values.Clone()
	errs := map[string]string{}
	for _, f := range fields {
		v, present := out[f.Key]
		if engine.IsEmpty(v) {
			if f.Required {
				errs[f.Key] = "Required"
			}
			continue
		}
		if !present {
			continue
		}
		switch f.InputType {
		case model.InputNumber:
			n, ok := engine.ToNumber(v)
			if !ok {
				errs[f.Key] = "Must be a number"
				continue
			}
			out[f.Key] = n
		case model.InputEmail:
			s := engine.Stringify(v)
			if at := strings.Index(s, "@"); at < 1 || at == len(s)-1 {
				errs[f.Key] = "Invalid email address"
			}
		case model.InputDate:
			if _, ok := engine.ToTime(v); !ok {
				errs[f.Key] = "Invalid date"
			}
		case model.InputBoolean:
			if s, ok := v.(string); ok {
				out[f.Key] = s == "true" || s == "yes" || s == "1"
			}
		case model.InputSelect:
			if _, ok := f.OptionLabel(v); !ok {
				errs[f.Key] = "Not one of the options"
			}
		case model.InputMultiSelect:
			list, _ := engine.AsList(v)
			for _, item := range list {
				if _, ok := f.OptionLabel(item); !ok {
					errs[f.Key] = fmt.Sprintf("%v is not one of the options", item)
					break
				}
			}
		}
	}
	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}

// rejection turns field errors into a verdict.
func rejection(errs map[string]string) form.Verdict {
	msg := "Please correct the highlighted field"
	if len(errs) > 1 {
		msg = fmt.Sprintf("Please correct the %d highlighted fields", len(errs))
	}
	return form.RejectFields(msg, errs)
}
