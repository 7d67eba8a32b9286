package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"

	"storedb/pkg/primitives"
)

// StringField is a fixed-length byte string field, the STRING variant of
// §3's closed field-type set. Values are compared and hashed by content.
type StringField struct {
	Value string
}

// NewStringField truncates value to StringFieldMaxLength if necessary; the
// on-disk representation always occupies exactly Type.Size() bytes.
func NewStringField(value string) *StringField {
	if len(value) > StringFieldMaxLength {
		value = value[:StringFieldMaxLength]
	}
	return &StringField{Value: value}
}

func (f *StringField) Serialize(w io.Writer) error {
	if len(f.Value) > StringFieldMaxLength {
		return fmt.Errorf("string field value exceeds max length %d", StringFieldMaxLength)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f.Value)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	padded := make([]byte, StringFieldMaxLength)
	copy(padded, f.Value)
	_, err := w.Write(padded)
	return err
}

func (f *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherField, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	a, b := f.Value, otherField.Value
	switch op {
	case primitives.Equals:
		return a == b, nil
	case primitives.LessThan:
		return a < b, nil
	case primitives.GreaterThan:
		return a > b, nil
	case primitives.LessThanOrEqual:
		return a <= b, nil
	case primitives.GreaterThanOrEqual:
		return a >= b, nil
	case primitives.NotEqual:
		return a != b, nil
	default:
		return false, fmt.Errorf("unsupported predicate: %v", op)
	}
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	otherField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *StringField) Hash() (primitives.HashCode, error) {
	h := fnv.New32a()
	if _, err := h.Write([]byte(f.Value)); err != nil {
		return 0, err
	}
	return primitives.HashCode(h.Sum32()), nil
}

// ReadStringField decodes a field previously written by Serialize.
func ReadStringField(r io.Reader) (*StringField, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > StringFieldMaxLength {
		return nil, fmt.Errorf("corrupt string field: length %d exceeds max %d", n, StringFieldMaxLength)
	}

	body := make([]byte, StringFieldMaxLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return &StringField{Value: string(body[:n])}, nil
}
