package iterator

import "storedb/pkg/tuple"

// TupleIterator is the minimal iteration contract shared by operator and
// storage iterators.
type TupleIterator interface {
	// HasNext checks if there are more tuples available without consuming them.
	HasNext() (bool, error)

	// Next retrieves and returns the next tuple from the iterator.
	Next() (*tuple.Tuple, error)
}

// DbIterator is the contract for execution-engine operators: a tuple
// stream with lifecycle control and a result schema. Operators compose
// into pipelines by consuming each other through this interface.
type DbIterator interface {
	TupleIterator

	// Open initializes the iterator; it must be called before HasNext,
	// Next, or Rewind.
	Open() error

	// Rewind resets the stream to its beginning; the next Next returns the
	// first tuple again.
	Rewind() error

	// Close releases the iterator's resources; reopen with Open.
	Close() error

	// GetTupleDesc returns the schema of the tuples this iterator yields,
	// callable in any state.
	GetTupleDesc() *tuple.TupleDescription
}

// DbFileIterator is the storage-layer iteration contract used by heap
// files. It carries no schema method; the file owns the schema.
type DbFileIterator interface {
	TupleIterator

	// Open prepares the iterator; it must be called before iteration.
	Open() error

	// Rewind restarts the scan from the first tuple.
	Rewind() error

	// Close releases the iterator's resources.
	Close() error
}
