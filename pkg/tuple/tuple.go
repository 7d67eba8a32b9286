package tuple

import (
	"fmt"
	"strings"

	"storedb/pkg/types"
)

// Tuple is a row of data conforming to a TupleDescription. The RecordID is
// set by the storage layer once the tuple is placed on a page; a tuple in
// flight (built by an operator, not yet inserted) carries a nil RecordID.
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The field values, indexed by schema position
	RecordID  *RecordID         // Where this tuple is stored (nil if unplaced)
}

// NewTuple creates an empty tuple for the given schema. Fields start nil
// and must be populated with SetField before the tuple is serialized.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField stores a value at schema position i. The value's type must
// match the schema's type at that position.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	expectedType, _ := t.TupleDesc.TypeAt(i)
	if field.Type() != expectedType {
		return fmt.Errorf("field type mismatch at index %d: expected %v, got %v",
			i, expectedType, field.Type())
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value at schema position i.
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Clone returns a copy of this tuple sharing field values but not the
// RecordID; the copy is unplaced.
func (t *Tuple) Clone() (*Tuple, error) {
	clone := NewTuple(t.TupleDesc)
	for i := 0; i < t.TupleDesc.NumFields(); i++ {
		field, err := t.GetField(i)
		if err != nil {
			return nil, err
		}
		if field != nil {
			if err := clone.SetField(i, field); err != nil {
				return nil, err
			}
		}
	}
	return clone, nil
}

// String renders the tuple as tab-separated field values.
func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, field := range t.fields {
		if field != nil {
			parts = append(parts, field.String())
		} else {
			parts = append(parts, "null")
		}
	}
	return strings.Join(parts, "\t")
}
