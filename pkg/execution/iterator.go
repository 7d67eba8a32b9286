// Package execution holds the query operators: the sequential scan and
// the shared iterator plumbing they build on.
package execution

import (
	"fmt"

	"storedb/pkg/tuple"
)

// ReadNextFunc produces the next tuple from an operator's underlying
// source, or nil when the source is exhausted.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator supplies the lookahead caching and open-state handling
// every operator needs, so concrete operators implement only their
// readNext function.
type BaseIterator struct {
	nextTuple    *tuple.Tuple // cached lookahead tuple
	opened       bool
	readNextFunc ReadNextFunc
}

// NewBaseIterator creates a closed base iterator over the given source
// function.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// HasNext reports whether another tuple is available, caching it for the
// following Next.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

// Next returns the cached lookahead tuple if present, otherwise reads one
// from the source.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, fmt.Errorf("iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return nil, err
		}
		if it.nextTuple == nil {
			return nil, fmt.Errorf("no more tuples")
		}
	}

	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

// Close clears the lookahead cache and marks the iterator closed.
func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	return nil
}

// MarkOpened marks the iterator open and resets the lookahead cache.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}
