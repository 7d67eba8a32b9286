package types

import (
	"io"

	"storedb/pkg/primitives"
)

// Field is a single typed value carried by a Tuple. IntField and
// StringField are the only implementations; the set is closed because the
// on-disk slot layout computed from Type.Size() must match exactly one of
// them.
type Field interface {
	// Serialize writes the fixed-width on-disk representation of this field.
	Serialize(w io.Writer) error

	// Compare evaluates this field against other under op. A type mismatch
	// is not an error; it simply never satisfies the predicate.
	Compare(op primitives.Predicate, other Field) (bool, error)

	// Type returns the field's type.
	Type() Type

	String() string

	Equals(other Field) bool

	// Hash returns a hash of the field's value, stable for equal values.
	Hash() (primitives.HashCode, error)
}
