// Package access maps access descriptors ("full", "read-only", "hidden" or a
// per-capability object) to the capabilities a table exposes.
package access

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset names accepted by a Descriptor.
const (
	Full     = "full"
	ReadOnly = "read-only"
	Hidden   = "hidden"
)

// Capabilities is the evaluated permission set.
type Capabilities struct {
	View          bool `json:"view" yaml:"view"`
	VisualizeItem bool `json:"visualizeItem" yaml:"visualizeItem"`
	Create        bool `json:"create" yaml:"create"`
	Edit          bool `json:"edit" yaml:"edit"`
	Delete        bool `json:"delete" yaml:"delete"`
	Preview       bool `json:"preview" yaml:"preview"`
	Download      bool `json:"download" yaml:"download"`
}

// ReadOnly reports whether the capabilities allow no mutation at all.
func (c Capabilities) ReadOnly() bool {
	return !c.Create && !c.Edit && !c.Delete
}

// Custom is the object form of a descriptor. Unset fields fall back to
// false, except View which defaults to true.
type Custom struct {
	View          *bool `json:"view,omitempty" yaml:"view,omitempty"`
	VisualizeItem *bool `json:"visualizeItem,omitempty" yaml:"visualizeItem,omitempty"`
	Create        *bool `json:"create,omitempty" yaml:"create,omitempty"`
	Edit          *bool `json:"edit,omitempty" yaml:"edit,omitempty"`
	Delete        *bool `json:"delete,omitempty" yaml:"delete,omitempty"`
	Preview       *bool `json:"preview,omitempty" yaml:"preview,omitempty"`
	Download      *bool `json:"download,omitempty" yaml:"download,omitempty"`
}

// Descriptor is either a preset or a Custom object. The zero value means
// "no descriptor", which evaluates as Full.
type Descriptor struct {
	Preset string
	Custom *Custom
}

// Preset returns a preset descriptor.
func Preset(name string) Descriptor { return Descriptor{Preset: name} }

// Object returns a custom descriptor.
func Object(c Custom) Descriptor { return Descriptor{Custom: &c} }

// IsZero reports whether no descriptor was supplied.
func (d Descriptor) IsZero() bool { return d.Preset == "" && d.Custom == nil }

func (d Descriptor) String() string {
	switch {
	case d.Custom != nil:
		return "custom"
	case d.Preset == "":
		return Full
	default:
		return d.Preset
	}
}

// UnmarshalYAML accepts a scalar preset or a mapping.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d.Preset = strings.TrimSpace(node.Value)
		d.Custom = nil
		return validatePreset(d.Preset)
	case yaml.MappingNode:
		var c Custom
		if err := node.Decode(&c); err != nil {
			return fmt.Errorf("failed to decode access object: %w", err)
		}
		d.Preset, d.Custom = "", &c
		return nil
	default:
		return fmt.Errorf("access must be a preset name or an object, got %v", node.Tag)
	}
}

// UnmarshalJSON accepts a string preset or an object.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		d.Preset, d.Custom = name, nil
		return validatePreset(name)
	}
	var c Custom
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to decode access descriptor: %w", err)
	}
	d.Preset, d.Custom = "", &c
	return nil
}

// MarshalJSON writes the preset as a string and custom objects as objects.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	if d.Custom != nil {
		return json.Marshal(d.Custom)
	}
	return json.Marshal(d.String())
}

func validatePreset(name string) error {
	switch name {
	case "", Full, ReadOnly, Hidden:
		return nil
	}
	return fmt.Errorf("unknown access mode %q", name)
}

// Evaluator turns a descriptor into capabilities. Hosts may inject their own.
type Evaluator func(Descriptor) Capabilities

// Evaluate is the default Evaluator. Unknown presets evaluate as Hidden.
func Evaluate(d Descriptor) Capabilities {
	if d.Custom != nil {
		c := d.Custom
		return Capabilities{
			View:          boolOr(c.View, true),
			VisualizeItem: boolOr(c.VisualizeItem, false),
			Create:        boolOr(c.Create, false),
			Edit:          boolOr(c.Edit, false),
			Delete:        boolOr(c.Delete, false),
			Preview:       boolOr(c.Preview, false),
			Download:      boolOr(c.Download, false),
		}
	}
	switch d.Preset {
	case "", Full:
		return Capabilities{View: true, VisualizeItem: true, Create: true, Edit: true, Delete: true, Preview: true, Download: true}
	case ReadOnly:
		return Capabilities{View: true, VisualizeItem: true, Preview: true, Download: true}
	default:
		return Capabilities{}
	}
}

// Contextual narrows capabilities to what a form in the given mode may do:
// an edit form keeps Edit, an add form keeps Create as its Edit right.
func Contextual(c Capabilities, editing bool) Capabilities {
	if !editing {
		c.Edit = c.Create
	}
	return c
}

// IsReadOnlyField reports whether form inputs must be disabled.
func IsReadOnlyField(c Capabilities) bool { return !c.Edit }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
