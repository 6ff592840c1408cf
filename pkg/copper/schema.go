package copper

import (
	"context"
	"errors"
)

// FieldSpec names one field of a schema.
type FieldSpec struct {
	Name  string
	Field Field
}

// F pairs a field name with its converter.
func F(name string, field Field) FieldSpec {
	return FieldSpec{Name: name, Field: field}
}

// Schema is the ordered collection of named field converters that defines a
// resource's wire shape.
type Schema struct {
	specs  []FieldSpec
	byName map[string]Field
}

// NewSchema builds a schema from an ordered list of field specs. Resource
// types register their schemas once, at program start.
func NewSchema(specs ...FieldSpec) *Schema {
	byName := make(map[string]Field, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec.Field
	}

	return &Schema{specs: specs, byName: byName}
}

// Has reports whether the schema declares a field with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]

	return ok
}

// FieldNames returns the declared field names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		names = append(names, spec.Name)
	}

	return names
}

// load deserializes a wire payload field by field. Keys the schema does not
// declare are ignored; per-field failures are collected so the error can
// attribute every offending value at once. The returned *ValidationError has
// its ResourceType filled in by the owning entity.
func (s *Schema) load(ctx context.Context, r Resolver, raw map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(raw))
	failures := map[string]string{}

	for _, spec := range s.specs {
		rawValue, present := raw[spec.Name]
		if !present {
			if spec.Field.options().required {
				failures[spec.Name] = "missing required field"
			}

			continue
		}

		value, err := spec.Field.Load(ctx, r, rawValue)
		if err != nil {
			// Resolution failures are remote errors, not data mismatches.
			if !isDataError(err) {
				return nil, err
			}

			failures[spec.Name] = err.Error()

			continue
		}

		values[spec.Name] = value
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Raw: raw, Fields: failures}
	}

	return values, nil
}

// dump serializes native values back to wire shape. Nil values and empty
// repeated containers are omitted: the service treats absent and empty as
// equivalent, and re-sending them causes spurious diffs.
func (s *Schema) dump(values map[string]any) (map[string]any, error) {
	raw := make(map[string]any, len(values))
	failures := map[string]string{}

	for _, spec := range s.specs {
		value, present := values[spec.Name]
		if !present {
			continue
		}

		dumped, err := spec.Field.Dump(value)
		if err != nil {
			failures[spec.Name] = err.Error()

			continue
		}

		if emptyWireValue(dumped) {
			continue
		}

		raw[spec.Name] = dumped
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Raw: raw, Fields: failures}
	}

	return raw, nil
}

// validate checks currently-set values without serializing: required fields
// must be set and every set value must satisfy its field's constraints.
func (s *Schema) validate(values map[string]any) error {
	failures := map[string]string{}

	for _, spec := range s.specs {
		value, present := values[spec.Name]
		if !present || value == nil {
			if spec.Field.options().required {
				failures[spec.Name] = "missing required field"
			}

			continue
		}

		if _, err := spec.Field.Dump(value); err != nil {
			failures[spec.Name] = err.Error()
		}
	}

	if len(failures) > 0 {
		return &ValidationError{Raw: values, Fields: failures}
	}

	return nil
}

func emptyWireValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case []any:
		return len(value) == 0
	case []string:
		return len(value) == 0
	default:
		return false
	}
}

// isDataError distinguishes schema mismatches from remote failures raised
// while resolving references. Only errors the field converters mark as data
// errors, and nested schema failures, are attributed to the offending field;
// everything else, API errors and transport failures included, propagates
// as-is.
func isDataError(err error) bool {
	var mismatch *dataError
	if errors.As(err, &mismatch) {
		return true
	}

	verr := &ValidationError{}

	return errors.As(err, &verr)
}
