// Package schema describes the fixed field set an index is bound to.
package schema

import (
	"fmt"
	"strings"

	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
)

// Type is the storage type of a field.
type Type uint8

// Field types.
const (
	String Type = iota + 1
	Vector
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Vector:
		return "vector"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Field is an immutable field descriptor.
type Field struct {
	Name       string
	Type       Type
	Dimensions int // vector fields only
	Optional   bool
}

func (f Field) String() string {
	s := f.Name + ":" + f.Type.String()
	if f.Type == Vector {
		s += fmt.Sprintf("[%d]", f.Dimensions)
	}
	if f.Optional {
		s += "?"
	}
	return s
}

// Schema is an ordered, validated field set with exactly one id field
// and at least one vector field.
type Schema struct {
	fields []Field
}

// Default returns the schema every archive in this system uses:
// id, pageId?, url?, text, embedding[dim].
func Default(dim int) Schema {
	return Schema{fields: []Field{
		{Name: document.FieldID, Type: String},
		{Name: document.FieldPageID, Type: String, Optional: true},
		{Name: document.FieldURL, Type: String, Optional: true},
		{Name: document.FieldText, Type: String},
		{Name: document.FieldEmbedding, Type: Vector, Dimensions: dim},
	}}
}

// New validates a field list.
func New(fields []Field) (Schema, error) {
	seen := make(map[string]bool, len(fields))
	var hasID, hasVector bool
	for _, f := range fields {
		if f.Name == "" {
			return Schema{}, fmt.Errorf("field name is required")
		}
		if seen[f.Name] {
			return Schema{}, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case String:
			if f.Name == document.FieldID {
				if f.Optional {
					return Schema{}, fmt.Errorf("field %q cannot be optional", f.Name)
				}
				hasID = true
			}
		case Vector:
			if f.Dimensions <= 0 {
				return Schema{}, fmt.Errorf("vector field %q needs positive dimensions", f.Name)
			}
			hasVector = true
		default:
			return Schema{}, fmt.Errorf("field %q has unknown type %d", f.Name, f.Type)
		}
	}
	if !hasID {
		return Schema{}, fmt.Errorf("schema needs an %q string field", document.FieldID)
	}
	if !hasVector {
		return Schema{}, fmt.Errorf("schema needs a vector field")
	}
	return Schema{fields: append([]Field(nil), fields...)}, nil
}

// Fields returns a copy of the field list.
func (s Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// VectorField returns the named vector field.
func (s Schema) VectorField(name string) (Field, bool) {
	f, ok := s.Field(name)
	if !ok || f.Type != Vector {
		return Field{}, false
	}
	return f, true
}

// DefaultVectorField returns the first vector field.
func (s Schema) DefaultVectorField() Field {
	for _, f := range s.fields {
		if f.Type == Vector {
			return f
		}
	}
	return Field{}
}

// Equal reports whether both schemas declare the same fields in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// Diff describes how got differs from s, for error messages.
func (s Schema) Diff(got Schema) string {
	var parts []string
	for _, f := range s.fields {
		g, ok := got.Field(f.Name)
		switch {
		case !ok:
			parts = append(parts, "missing "+f.String())
		case g != f:
			parts = append(parts, fmt.Sprintf("%s != %s", g, f))
		}
	}
	for _, g := range got.fields {
		if _, ok := s.Field(g.Name); !ok {
			parts = append(parts, "unexpected "+g.String())
		}
	}
	if len(parts) == 0 && !s.Equal(got) {
		parts = append(parts, "field order differs")
	}
	return strings.Join(parts, "; ")
}

func (s Schema) String() string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
