package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"

	"storedb/pkg/primitives"
)

// IntField is a 32-bit signed integer field, the INT variant of §3's closed
// field-type set.
type IntField struct {
	Value int32
}

func NewIntField(value int32) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Serialize(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *IntField) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherField, ok := other.(*IntField)
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

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}

func (f *IntField) Equals(other Field) bool {
	otherField, ok := other.(*IntField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *IntField) Hash() (primitives.HashCode, error) {
	h := fnv.New32a()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	if _, err := h.Write(buf[:]); err != nil {
		return 0, err
	}
	return primitives.HashCode(h.Sum32()), nil
}

// ReadIntField decodes a field previously written by Serialize.
func ReadIntField(r io.Reader) (*IntField, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return NewIntField(int32(binary.BigEndian.Uint32(buf[:]))), nil
}
