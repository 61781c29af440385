package datasource

import (
	"context"

	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/api"
	appcontext "github.com/darksworm/backoffice/pkg/context"
	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
)

// Remote serves an entity from a REST collection. Paging, searching,
// filtering and sorting happen on the server.
type Remote struct {
	collection *api.Collection
	fields     []model.FormField
	logger     *cblog.Logger
}

// NewRemote binds a collection with the form schema used for client-side
// validation before anything is sent.
func NewRemote(collection *api.Collection, fields []model.FormField) *Remote {
	return &Remote{
		collection: collection,
		fields:     fields,
		logger:     cblog.With("component", "datasource", "endpoint", collection.Endpoint()),
	}
}

// Fetch loads one page for params.
func (r *Remote) Fetch(ctx context.Context, params model.FetchParams) (api.Page, error) {
	ctx, cancel := appcontext.WithFetchTimeout(ctx)
	defer cancel()
	page, err := r.collection.List(ctx, params)
	if err != nil {
		r.logger.Warn("Fetch failed", "page", params.Page, "err", err)
		return api.Page{}, err
	}
	return page, nil
}

// Add creates a record. Server-side validation errors keep the dialog open
// with their field messages.
func (r *Remote) Add(ctx context.Context, values form.Values) form.Verdict {
	clean, errs := Validate(r.fields, values)
	if errs != nil {
		return rejection(errs)
	}
	delete(clean, model.IDField)
	ctx, cancel := appcontext.WithSaveTimeout(ctx)
	defer cancel()
	if _, err := r.collection.Create(ctx, clean); err != nil {
		return r.verdictFor(err)
	}
	return form.Verdict{}
}

// Edit updates record id.
func (r *Remote) Edit(ctx context.Context, id any, values form.Values) form.Verdict {
	clean, errs := Validate(r.fields, values)
	if errs != nil {
		return rejection(errs)
	}
	ctx, cancel := appcontext.WithSaveTimeout(ctx)
	defer cancel()
	if _, err := r.collection.Update(ctx, id, clean); err != nil {
		return r.verdictFor(err)
	}
	return form.Verdict{}
}

// Delete removes record id.
func (r *Remote) Delete(ctx context.Context, id any) error {
	ctx, cancel := appcontext.WithSaveTimeout(ctx)
	defer cancel()
	return r.collection.Delete(ctx, id)
}

// DeleteMany removes every listed record.
func (r *Remote) DeleteMany(ctx context.Context, ids []any) error {
	ctx, cancel := appcontext.WithSaveTimeout(ctx)
	defer cancel()
	return r.collection.DeleteMany(ctx, ids)
}

// Watch follows the collection's change feed and calls onChange per event.
func (r *Remote) Watch(ctx context.Context, onChange func()) error {
	return r.collection.Watch(ctx, func(api.Event) { onChange() })
}

func (r *Remote) verdictFor(err error) form.Verdict {
	r.logger.Warn("Save failed", "err", err)
	msg := err.Error()
	if appErr, ok := apperrors.As(err); ok {
		msg = appErr.Message
	}
	if fe := api.FieldErrors(err); len(fe) > 0 {
		return form.RejectFields(msg, fe)
	}
	return form.Reject(msg)
}
