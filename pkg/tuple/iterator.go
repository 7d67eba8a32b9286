package tuple

import (
	dberr "storedb/pkg/error"
)

// Iterator walks a materialized slice of tuples. Aggregation results and
// other operator-built tuple lists are exposed through it.
type Iterator struct {
	tuples    []*Tuple
	tupleDesc *TupleDescription
	index     int
	opened    bool
}

// NewIterator creates an iterator over tuples with the given result
// schema. The slice is not copied; callers must not mutate it while the
// iterator is live.
func NewIterator(tuples []*Tuple, desc *TupleDescription) *Iterator {
	return &Iterator{
		tuples:    tuples,
		tupleDesc: desc,
		index:     -1,
	}
}

func (it *Iterator) Open() error {
	it.opened = true
	it.index = -1
	return nil
}

func (it *Iterator) Close() error {
	it.opened = false
	return nil
}

func (it *Iterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberr.New(dberr.ErrCategoryUser, dberr.CodeIllegalArg, "iterator not opened")
	}
	return it.index+1 < len(it.tuples), nil
}

func (it *Iterator) Next() (*Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberr.New(dberr.ErrCategoryUser, dberr.CodeNoSuchElement, "iterator exhausted")
	}

	it.index++
	return it.tuples[it.index], nil
}

func (it *Iterator) Rewind() error {
	if !it.opened {
		return dberr.New(dberr.ErrCategoryUser, dberr.CodeIllegalArg, "iterator not opened")
	}
	it.index = -1
	return nil
}

func (it *Iterator) GetTupleDesc() *TupleDescription {
	return it.tupleDesc
}
