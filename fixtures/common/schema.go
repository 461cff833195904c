package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Configuration errors indicate a bug in the test itself and are never retried.
var (
	ErrMultiplePrimaryKeys = errors.New("only a single primary key is supported")
	ErrUnsupportedType     = errors.New("unsupported field type")
)

type FieldType int

const (
	TypeString FieldType = iota + 1
	TypeInt
	TypeFloat
	TypeBool
	TypeVector
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeBool:
		return "BOOL"
	case TypeVector:
		return "VECTOR"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Field describes one column of an abstract table schema.
type Field struct {
	Name       string
	Type       FieldType
	Nullable   bool
	PrimaryKey bool
}

// Schema is an ordered list of fields. Use NewSchema so that the
// single-primary-key invariant is checked up front.
type Schema struct {
	fields []Field
}

func NewSchema(fields ...Field) (Schema, error) {
	primaryKeyFound := false
	for _, f := range fields {
		if f.PrimaryKey {
			if primaryKeyFound {
				return Schema{}, fmt.Errorf("field %q: %w", f.Name, ErrMultiplePrimaryKeys)
			}
			primaryKeyFound = true
		}
	}
	return Schema{fields: fields}, nil
}

// MustSchema is a convenience for tests where the schema is a literal.
func MustSchema(fields ...Field) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Fields() []Field {
	return s.fields
}

// FieldNames returns the user field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// ColumnProperties is the read-back representation of a physical column,
// produced by information-schema introspection.
type ColumnProperties struct {
	TypeName   string
	IsNullable bool
}

// RandomName generates a collision-resistant table/collection name.
func RandomName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
