package tenant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharedschema/tenantkit/pkg/validator"
)

// AttrType enumerates the value types an administrator may declare for
// tenant extra-data and settings attributes.
type AttrType string

const (
	AttrString  AttrType = "string"
	AttrNumber  AttrType = "number"
	AttrBoolean AttrType = "boolean"
	AttrList    AttrType = "list"
	AttrObject  AttrType = "object"
)

// AttrValidator is one named check in an attribute's validator chain.
type AttrValidator func(value any) error

// FieldSchema declares one attribute: its type, whether a value is
// mandatory, the default applied on creation, and an ordered validator
// chain referenced by name.
type FieldSchema struct {
	Type       AttrType `yaml:"type"`
	Required   bool     `yaml:"required"`
	Default    any      `yaml:"default"`
	Validators []string `yaml:"validators"`
}

// Schema validates tenant attribute maps (extra_data or settings) against
// administrator-declared field schemas. Writes with unknown keys or missing
// required keys are rejected; validation errors accumulate across all keys
// so the caller sees every problem at once.
type Schema struct {
	fields     map[string]FieldSchema
	validators map[string]AttrValidator
}

// SchemaOption configures schema construction.
type SchemaOption func(*Schema)

// WithValidator registers a named validator referenced by field schemas.
func WithValidator(name string, fn AttrValidator) SchemaOption {
	return func(s *Schema) { s.validators[name] = fn }
}

// NewSchema builds a Schema, failing with ErrInvalidTypeConfiguration when
// a field declares an unsupported type or references an unregistered
// validator. Configuration problems surface here, at startup, not when a
// tenant writes data.
func NewSchema(fields map[string]FieldSchema, opts ...SchemaOption) (*Schema, error) {
	s := &Schema{
		fields:     fields,
		validators: make(map[string]AttrValidator),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, field := range fields {
		switch field.Type {
		case AttrString, AttrNumber, AttrBoolean, AttrList, AttrObject:
		default:
			return nil, fmt.Errorf("%w: field %q declares type %q",
				ErrInvalidTypeConfiguration, name, field.Type)
		}
		for _, vname := range field.Validators {
			if _, ok := s.validators[vname]; !ok {
				return nil, fmt.Errorf("%w: field %q references unknown validator %q",
					ErrInvalidTypeConfiguration, name, vname)
			}
		}
	}

	return s, nil
}

// Defaults returns the initial attribute map for a new tenant.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.fields))
	for name, field := range s.fields {
		out[name] = field.Default
	}
	return out
}

// fieldNames iterates deterministically; error ordering must be stable.
func (s *Schema) fieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks data against the schema. In partial mode missing keys are
// skipped (patch semantics); otherwise required fields must be present.
// Unknown keys are always rejected. Per field the validator chain stops at
// the first failure; across fields every failure is collected.
func (s *Schema) Validate(data map[string]any, partial bool) error {
	var errs validator.ValidationErrors

	for key := range data {
		if _, ok := s.fields[key]; !ok {
			errs.Add(key, "is not a valid field")
		}
	}

	for _, key := range s.fieldNames() {
		field := s.fields[key]
		value, present := data[key]

		if !present {
			if field.Required && !partial {
				errs.Add(key, "field is required")
			}
			continue
		}

		if field.Required && isEmptyValue(value) {
			errs.Add(key, "field is required")
			continue
		}

		if value != nil && !typeMatches(field.Type, value) {
			errs.Add(key, fmt.Sprintf("must be a valid %s", field.Type))
			continue
		}

		for _, vname := range field.Validators {
			if err := s.validators[vname](value); err != nil {
				errs.Add(key, err.Error())
				break
			}
		}
	}

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// Apply merges validated data over current values. Partial updates keep
// untouched keys; full updates replace the whole map.
func (s *Schema) Apply(current, patch map[string]any, partial bool) map[string]any {
	if !partial {
		out := make(map[string]any, len(patch))
		for k, v := range patch {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(current)+len(patch))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func typeMatches(t AttrType, v any) bool {
	switch t {
	case AttrString:
		_, ok := v.(string)
		return ok
	case AttrNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case AttrBoolean:
		_, ok := v.(bool)
		return ok
	case AttrList:
		_, ok := v.([]any)
		return ok
	case AttrObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}
