package heap

import (
	"io"

	dberr "storedb/pkg/error"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// PageIterator walks the occupied tuples of a single heap page in slot
// order. It operates on a snapshot taken when the iterator was created.
type PageIterator struct {
	tuples []*tuple.Tuple
	index  int
}

func newPageIterator(tuples []*tuple.Tuple) *PageIterator {
	return &PageIterator{tuples: tuples, index: -1}
}

// HasNext reports whether another tuple remains.
func (it *PageIterator) HasNext() (bool, error) {
	return it.index+1 < len(it.tuples), nil
}

// Next returns the next tuple, failing with NO_SUCH_ELEMENT when drained.
func (it *PageIterator) Next() (*tuple.Tuple, error) {
	if it.index+1 >= len(it.tuples) {
		return nil, dberr.New(dberr.ErrCategoryUser, dberr.CodeNoSuchElement, "page iterator exhausted")
	}
	it.index++
	return it.tuples[it.index], nil
}

// readTuple deserializes one fixed-width tuple from r according to td.
func readTuple(r io.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)

	for j := 0; j < td.NumFields(); j++ {
		fieldType, err := td.TypeAt(j)
		if err != nil {
			return nil, err
		}

		field, err := types.ParseField(r, fieldType)
		if err != nil {
			return nil, err
		}

		if err := t.SetField(j, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}
