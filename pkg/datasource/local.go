package datasource

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	cblog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/form"
	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/store"
)

// Local keeps an entity's rows as one JSON array document. With an empty
// path the document lives in memory only.
type Local struct {
	path   string
	fields []model.FormField

	mu  sync.Mutex
	doc string

	logger *cblog.Logger
}

// OpenLocal loads the array at path. A missing file starts empty and is
// created on the first write.
func OpenLocal(path string, fields []model.FormField) (*Local, error) {
	l := &Local{
		path:   path,
		fields: fields,
		doc:    "[]",
		logger: cblog.With("component", "datasource", "path", path),
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewMemory creates a document-less source seeded with rows.
func NewMemory(rows []model.Row, fields []model.FormField) *Local {
	l := &Local{fields: fields, doc: "[]", logger: cblog.With("component", "datasource", "path", "memory")}
	if data, err := json.Marshal(rows); err == nil && rows != nil {
		l.doc = string(data)
	}
	return l
}

// Path returns the backing file, empty for memory sources.
func (l *Local) Path() string { return l.path }

// Reload re-reads the backing file. It reports whether the rows changed.
func (l *Local) Reload() error {
	_, err := l.reload()
	return err
}

func (l *Local) reload() (bool, error) {
	if l.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		data = []byte("[]")
	} else if err != nil {
		return false, apperrors.StorageError("READ_FAILED", "Failed to read data file").
			WithCause(err).
			WithContext("path", l.path)
	}
	if len(data) == 0 {
		data = []byte("[]")
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsArray() {
		return false, apperrors.StorageError("INVALID_DOCUMENT", "Data file must hold a JSON array").
			WithContext("path", l.path).
			WithUserAction("Fix or remove the data file")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.doc != string(data)
	l.doc = string(data)
	return changed, nil
}

// Rows returns every stored row.
func (l *Local) Rows() []model.Row {
	l.mu.Lock()
	doc := l.doc
	l.mu.Unlock()

	var rows []model.Row
	gjson.Parse(doc).ForEach(func(_, item gjson.Result) bool {
		if m, ok := item.Value().(map[string]any); ok {
			rows = append(rows, model.Row(m))
		}
		return true
	})
	return rows
}

// indexOf finds the array position of id. Caller holds mu.
func (l *Local) indexOf(id any) int {
	want := model.KeyOf(id)
	idx, found := -1, false
	gjson.Parse(l.doc).ForEach(func(_, item gjson.Result) bool {
		idx++
		if model.KeyOf(item.Get(model.IDField).Value()) == want {
			found = true
			return false
		}
		return true
	})
	if !found {
		return -1
	}
	return idx
}

// Add validates values and appends a new row with a fresh id.
func (l *Local) Add(_ context.Context, values form.Values) form.Verdict {
	clean, errs := Validate(l.fields, values)
	if errs != nil {
		return rejection(errs)
	}
	if model.KeyOf(clean[model.IDField]) == "" {
		clean[model.IDField] = uuid.NewString()
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return form.Reject("Could not encode the record")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := sjson.SetRaw(l.doc, "-1", string(raw))
	if err != nil {
		return form.Reject("Could not store the record")
	}
	if err := l.commit(doc); err != nil {
		return form.Reject(apperrors.ToastFor(err).Message)
	}
	l.logger.Info("Added record", "id", clean[model.IDField])
	return form.Verdict{}
}

// Edit validates values and merges them into the stored row.
func (l *Local) Edit(_ context.Context, id any, values form.Values) form.Verdict {
	clean, errs := Validate(l.fields, values)
	if errs != nil {
		return rejection(errs)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return form.Reject("This record no longer exists")
	}
	path := strconv.Itoa(idx)
	merged, _ := gjson.Get(l.doc, path).Value().(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range clean {
		merged[k] = v
	}
	merged[model.IDField] = gjson.Get(l.doc, path+"."+model.IDField).Value()

	raw, err := json.Marshal(merged)
	if err != nil {
		return form.Reject("Could not encode the record")
	}
	doc, err := sjson.SetRaw(l.doc, path, string(raw))
	if err != nil {
		return form.Reject("Could not store the record")
	}
	if err := l.commit(doc); err != nil {
		return form.Reject(apperrors.ToastFor(err).Message)
	}
	l.logger.Info("Updated record", "id", id)
	return form.Verdict{}
}

// Delete removes the row id.
func (l *Local) Delete(_ context.Context, id any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteLocked(id)
}

// DeleteMany removes every listed row in one write.
func (l *Local) DeleteMany(_ context.Context, ids []any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.doc
	for _, id := range ids {
		idx := l.indexOf(id)
		if idx < 0 {
			continue
		}
		doc, err := sjson.Delete(l.doc, strconv.Itoa(idx))
		if err != nil {
			l.doc = before
			return apperrors.StorageError("ENCODE_FAILED", "Failed to update data document").WithCause(err)
		}
		l.doc = doc
	}
	doc := l.doc
	l.doc = before
	if err := l.commit(doc); err != nil {
		return err
	}
	l.logger.Info("Deleted records", "count", len(ids))
	return nil
}

func (l *Local) deleteLocked(id any) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return apperrors.New(apperrors.ErrorNotFound, "RECORD_NOT_FOUND", "Record not found").
			WithContext("id", id).
			AsRecoverable()
	}
	doc, err := sjson.Delete(l.doc, strconv.Itoa(idx))
	if err != nil {
		return apperrors.StorageError("ENCODE_FAILED", "Failed to update data document").WithCause(err)
	}
	if err := l.commit(doc); err != nil {
		return err
	}
	l.logger.Info("Deleted record", "id", id)
	return nil
}

// commit writes doc through and adopts it. Caller holds mu.
func (l *Local) commit(doc string) error {
	if l.path != "" {
		if err := store.WriteAtomic(l.path, []byte(doc)); err != nil {
			return apperrors.StorageError("WRITE_FAILED", "Failed to write data file").
				WithCause(err).
				WithContext("path", l.path)
		}
	}
	l.doc = doc
	return nil
}

// Watch reloads the document when the file changes on disk and calls
// onChange if the rows differ. Memory sources return immediately.
func (l *Local) Watch(ctx context.Context, onChange func()) error {
	if l.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.StorageError("WATCH_FAILED", "Failed to watch data file").WithCause(err)
	}
	defer watcher.Close()

	// watch the directory: editors and WriteAtomic replace the file
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return apperrors.StorageError("WATCH_FAILED", "Failed to watch data directory").
			WithCause(err).
			WithContext("dir", dir)
	}
	target := filepath.Clean(l.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			changed, err := l.reload()
			if err != nil {
				l.logger.Warn("Ignoring unreadable data file", "err", err)
				continue
			}
			if changed {
				l.logger.Debug("Data file changed on disk")
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("File watcher error", "err", err)
		}
	}
}
