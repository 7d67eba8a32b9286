package types

import (
	"fmt"
	"io"
)

// ParseField decodes a single field of the given type from r. The reader
// must be positioned at the start of the field's fixed-width encoding.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	switch fieldType {
	case IntType:
		return ReadIntField(r)
	case StringType:
		return ReadStringField(r)
	default:
		return nil, fmt.Errorf("unknown field type: %v", fieldType)
	}
}
