// Package schema loads the entity catalog: which business entities the
// console manages, their columns, form fields, access and data source.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cblog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/darksworm/backoffice/pkg/access"
	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/model"
)

// SourceKind selects where an entity's rows come from.
type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceRemote SourceKind = "remote"
	SourceMemory SourceKind = "memory"
)

// Source describes an entity's data source.
type Source struct {
	Kind SourceKind `yaml:"kind"`
	// Path is the JSON document of a file source, relative to the catalog.
	Path string `yaml:"path,omitempty"`
	// Endpoint is the collection path of a remote source, relative to the API base URL.
	Endpoint string `yaml:"endpoint,omitempty"`
	// Rows seeds a memory source.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Entity is one managed business entity.
type Entity struct {
	Name   string            `yaml:"name"`
	Title  string            `yaml:"title"`
	Label  string            `yaml:"entity"`
	Access access.Descriptor `yaml:"access"`
	Source Source            `yaml:"source"`

	Columns []model.Column    `yaml:"columns"`
	Fields  []model.FormField `yaml:"fields,omitempty"`

	PageSize      int    `yaml:"pageSize,omitempty"`
	ViewMode      string `yaml:"viewMode,omitempty"`
	DisableEdit   bool   `yaml:"disableEdit,omitempty"`
	DisableDelete bool   `yaml:"disableDelete,omitempty"`
	DisableView   bool   `yaml:"disableView,omitempty"`
}

// DisplayTitle falls back to the entity name.
func (e Entity) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

// RequiredFields returns the keys of required form fields.
func (e Entity) RequiredFields() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Required {
			out = append(out, f.Key)
		}
	}
	return out
}

// FieldSchema returns the explicit form fields, or fields derived from the columns.
func (e Entity) FieldSchema() []model.FormField {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return model.FieldsFromColumns(e.Columns)
}

// Catalog is the parsed catalog file.
type Catalog struct {
	Entities []Entity `yaml:"entities"`
	// Dir is the directory relative source paths resolve against.
	Dir string `yaml:"-"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCatalog, "CATALOG_READ_FAILED", "Failed to read entity catalog").
			WithContext("path", path).
			WithUserAction("Check the -catalog flag or the catalog.path setting")
	}
	cat, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cblog.With("component", "schema").Info("Loaded entity catalog", "path", path, "entities", len(cat.Entities))
	return cat, nil
}

// Parse decodes and validates catalog YAML. dir anchors relative source paths.
func Parse(data []byte, dir string) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCatalog, "CATALOG_PARSE_FAILED", "Entity catalog is not valid YAML")
	}
	cat.Dir = dir
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	for i := range cat.Entities {
		cat.Entities[i].normalize()
	}
	return &cat, nil
}

func (e *Entity) normalize() {
	if e.Source.Kind == "" {
		e.Source.Kind = SourceMemory
		if e.Source.Path != "" {
			e.Source.Kind = SourceFile
		}
	}
	for i := range e.Fields {
		if e.Fields[i].InputType == "" {
			e.Fields[i].InputType = model.InputText
		}
	}
}

// Validate checks names, keys and types.
func (c *Catalog) Validate() error {
	if len(c.Entities) == 0 {
		return invalid("catalog defines no entities")
	}
	seen := map[string]bool{}
	for _, e := range c.Entities {
		if e.Name == "" {
			return invalid("entity without a name")
		}
		if seen[e.Name] {
			return invalid(fmt.Sprintf("duplicate entity %q", e.Name))
		}
		seen[e.Name] = true
		if err := e.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Entity) validate() error {
	if len(e.Columns) == 0 {
		return invalid(fmt.Sprintf("entity %q has no columns", e.Name))
	}
	keys := map[string]bool{}
	for _, col := range e.Columns {
		if col.Key == "" {
			return invalid(fmt.Sprintf("entity %q has a column without a key", e.Name))
		}
		if keys[col.Key] {
			return invalid(fmt.Sprintf("entity %q repeats column %q", e.Name, col.Key))
		}
		keys[col.Key] = true
		switch col.DataType {
		case "", model.DataText, model.DataNumber, model.DataDate, model.DataStatus:
		default:
			return invalid(fmt.Sprintf("column %s.%s has unknown dataType %q", e.Name, col.Key, col.DataType))
		}
	}
	for _, f := range e.Fields {
		if f.Key == "" {
			return invalid(fmt.Sprintf("entity %q has a field without a key", e.Name))
		}
		switch f.InputType {
		case "", model.InputText, model.InputNumber, model.InputEmail, model.InputPassword, model.InputDate, model.InputBoolean:
		case model.InputSelect, model.InputMultiSelect:
			if len(f.Options) == 0 {
				return invalid(fmt.Sprintf("field %s.%s needs options", e.Name, f.Key))
			}
		default:
			return invalid(fmt.Sprintf("field %s.%s has unknown inputType %q", e.Name, f.Key, f.InputType))
		}
	}
	switch e.Source.Kind {
	case "", SourceMemory:
	case SourceFile:
		if e.Source.Path == "" {
			return invalid(fmt.Sprintf("entity %q: file source needs a path", e.Name))
		}
	case SourceRemote:
		if e.Source.Endpoint == "" {
			return invalid(fmt.Sprintf("entity %q: remote source needs an endpoint", e.Name))
		}
	default:
		return invalid(fmt.Sprintf("entity %q: unknown source kind %q", e.Name, e.Source.Kind))
	}
	return nil
}

func invalid(msg string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrorCatalog, "CATALOG_INVALID", msg).
		WithUserAction("Fix the entity catalog and restart")
}

// Lookup finds an entity by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Entity, bool) {
	for _, e := range c.Entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entity{}, false
}

// Names lists entity names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = e.Name
	}
	return out
}

// ResolvePath anchors a source path at the catalog directory.
func (c *Catalog) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
