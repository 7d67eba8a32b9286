package iterator

import (
	"storedb/pkg/tuple"
)

// ForEach applies process to each remaining tuple of an opened iterator,
// stopping at the first error.
func ForEach(iter DbIterator, process func(*tuple.Tuple) error) error {
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}

		tup, err := iter.Next()
		if err != nil {
			return err
		}
		if tup == nil {
			continue
		}

		if err := process(tup); err != nil {
			return err
		}
	}
}

// Reduce folds the remaining tuples of an opened iterator into a single
// value.
func Reduce[T any](iter DbIterator, initial T, accumulate func(T, *tuple.Tuple) (T, error)) (T, error) {
	result := initial
	err := ForEach(iter, func(tup *tuple.Tuple) error {
		var err error
		result, err = accumulate(result, tup)
		return err
	})
	return result, err
}
