// api/schema/schema.go

// Package schema declares the per-type metadata shape of timeline nodes and
// validates incoming meta payloads against it at the API boundary.
package schema

import (
	"fmt"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
)

type FieldKind string

const (
	KindString FieldKind = "string"
	KindText   FieldKind = "text"
	KindDate   FieldKind = "date"
	KindBool   FieldKind = "bool"
	KindList   FieldKind = "list"
)

type Field struct {
	Name        string    `json:"name"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required"`
	Overview    bool      `json:"overview"`
	Description string    `json:"description,omitempty"`
}

// Definition is the metadata schema for one node type. Fields marked
// Overview are the ones exposed at overview visibility.
type Definition struct {
	Type   model.NodeType `json:"type"`
	Fields []Field        `json:"fields"`
}

var registry = map[model.NodeType]Definition{
	model.NodeTypeJob: {
		Type: model.NodeTypeJob,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Overview: true},
			{Name: "company", Kind: KindString, Overview: true},
			{Name: "location", Kind: KindString},
			{Name: "startDate", Kind: KindDate, Overview: true},
			{Name: "endDate", Kind: KindDate, Overview: true},
			{Name: "description", Kind: KindText},
		},
	},
	model.NodeTypeEducation: {
		Type: model.NodeTypeEducation,
		Fields: []Field{
			{Name: "institution", Kind: KindString, Required: true, Overview: true},
			{Name: "degree", Kind: KindString, Overview: true},
			{Name: "field", Kind: KindString},
			{Name: "startDate", Kind: KindDate, Overview: true},
			{Name: "endDate", Kind: KindDate, Overview: true},
			{Name: "description", Kind: KindText},
		},
	},
	model.NodeTypeProject: {
		Type: model.NodeTypeProject,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Overview: true},
			{Name: "technologies", Kind: KindList},
			{Name: "startDate", Kind: KindDate, Overview: true},
			{Name: "endDate", Kind: KindDate, Overview: true},
			{Name: "description", Kind: KindText},
		},
	},
	model.NodeTypeEvent: {
		Type: model.NodeTypeEvent,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Overview: true},
			{Name: "date", Kind: KindDate, Overview: true},
			{Name: "location", Kind: KindString},
			{Name: "description", Kind: KindText},
		},
	},
	model.NodeTypeAction: {
		Type: model.NodeTypeAction,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Overview: true},
			{Name: "date", Kind: KindDate, Overview: true},
			{Name: "description", Kind: KindText},
		},
	},
	model.NodeTypeCareerTransition: {
		Type: model.NodeTypeCareerTransition,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Overview: true},
			{Name: "fromRole", Kind: KindString},
			{Name: "toRole", Kind: KindString},
			{Name: "date", Kind: KindDate, Overview: true},
			{Name: "description", Kind: KindText},
		},
	},
}

// For returns the metadata schema for a node type.
func For(t model.NodeType) (Definition, error) {
	if !t.Valid() {
		return Definition{}, lattice_errors.ErrInvalidNodeType
	}
	def, ok := registry[t]
	if !ok {
		return Definition{}, lattice_errors.ErrSchemaNotFound
	}
	return def, nil
}

// ValidateMeta checks a meta payload against the node type's schema: every
// key must be declared, every required field present, every value of the
// declared kind.
func ValidateMeta(t model.NodeType, meta map[string]interface{}) error {
	def, err := For(t)
	if err != nil {
		return err
	}

	fields := make(map[string]Field, len(def.Fields))
	for _, f := range def.Fields {
		fields[f.Name] = f
	}

	for key, value := range meta {
		f, ok := fields[key]
		if !ok {
			return lattice_errors.NewValidationError(
				fmt.Sprintf("meta.%s", key),
				fmt.Sprintf("field not declared for node type %q", t))
		}
		if value == nil {
			continue
		}
		if err := checkKind(f, value); err != nil {
			return err
		}
	}

	for _, f := range def.Fields {
		if !f.Required {
			continue
		}
		v, ok := meta[f.Name]
		if !ok || v == nil || v == "" {
			return lattice_errors.NewValidationError(
				fmt.Sprintf("meta.%s", f.Name), "required field is missing")
		}
	}

	return nil
}

// OverviewMeta trims a meta payload to the fields exposed at overview level.
func OverviewMeta(t model.NodeType, meta map[string]interface{}) map[string]interface{} {
	def, err := For(t)
	if err != nil || meta == nil {
		return nil
	}
	out := make(map[string]interface{})
	for _, f := range def.Fields {
		if !f.Overview {
			continue
		}
		if v, ok := meta[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func checkKind(f Field, value interface{}) error {
	badKind := func() error {
		return lattice_errors.NewValidationError(
			fmt.Sprintf("meta.%s", f.Name),
			fmt.Sprintf("expected %s value", f.Kind))
	}
	switch f.Kind {
	case KindString, KindText, KindDate:
		if _, ok := value.(string); !ok {
			return badKind()
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return badKind()
		}
	case KindList:
		if _, ok := value.([]interface{}); !ok {
			if _, ok := value.([]string); !ok {
				return badKind()
			}
		}
	}
	return nil
}
