package tuple

import (
	"fmt"
	"strings"

	"storedb/pkg/types"
)

// TupleDescription is the schema of a tuple: an ordered sequence of field
// types with optional field names. It is shared by every tuple of a table
// and drives the fixed-width slot layout of heap pages.
type TupleDescription struct {
	// Types contains the data type of each field in order.
	Types []types.Type
	// FieldNames contains the name of each field; nil when the schema is
	// anonymous.
	FieldNames []string
}

// NewTupleDesc creates a schema from field types and optional names.
// fieldNames may be nil; when present its length must match fieldTypes.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) == 0 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = make([]string, len(fieldNames))
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{
		Types:      typesCopy,
		FieldNames: namesCopy,
	}, nil
}

// NumFields returns the number of fields in this schema.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// FieldName returns the name of the ith field, or an empty string when the
// schema carries no names.
func (td *TupleDescription) FieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}

	if td.FieldNames == nil {
		return "", nil
	}
	return td.FieldNames[i], nil
}

// TypeAt returns the type of the ith field.
func (td *TupleDescription) TypeAt(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// Size returns the fixed on-disk width, in bytes, of a tuple conforming to
// this schema: the sum of all field type sizes.
func (td *TupleDescription) Size() uint32 {
	var size uint32
	for _, fieldType := range td.Types {
		size += fieldType.Size()
	}
	return size
}

// Equals reports whether two schemas store the same field types in the
// same order. Field names are not compared.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil {
		return false
	}
	if len(td.Types) != len(other.Types) {
		return false
	}

	for i, fieldType := range td.Types {
		if fieldType != other.Types[i] {
			return false
		}
	}
	return true
}

// FindFieldIndex locates a field by name with a case-sensitive linear
// search.
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	for i := 0; i < td.NumFields(); i++ {
		name, _ := td.FieldName(i)
		if name == fieldName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s not found", fieldName)
}

// String renders the schema as "TYPE(name),TYPE(name),...".
func (td *TupleDescription) String() string {
	parts := make([]string, 0, len(td.Types))
	for i, fieldType := range td.Types {
		name := ""
		if td.FieldNames != nil {
			name = td.FieldNames[i]
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", fieldType, name))
	}
	return strings.Join(parts, ",")
}
