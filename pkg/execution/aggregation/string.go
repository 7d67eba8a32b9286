package aggregation

import (
	"fmt"
	"sync"

	dberr "storedb/pkg/error"
	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// StringAggregator counts string-valued columns, optionally grouped.
// COUNT is the only aggregate defined over strings; construction with any
// other operator fails with UNSUPPORTED_OP.
type StringAggregator struct {
	gbField     int
	gbFieldType types.Type
	aField      int
	tupleDesc   *tuple.TupleDescription

	mutex       sync.Mutex
	groupFields map[string]types.Field
	results     map[string]int32
}

// NewStringAggregator creates a COUNT aggregator over a string column.
func NewStringAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp, childDesc *tuple.TupleDescription) (*StringAggregator, error) {
	if op != Count {
		return nil, dberr.Newf(dberr.ErrCategoryUser, dberr.CodeUnsupportedOp,
			"%v is not defined over string columns; only COUNT is", op)
	}

	tupleDesc, err := resultDesc(gbField, gbFieldType, Count, childDesc, aField)
	if err != nil {
		return nil, err
	}

	return &StringAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
		tupleDesc:   tupleDesc,
		groupFields: make(map[string]types.Field),
		results:     make(map[string]int32),
	}, nil
}

// Merge counts one tuple toward its group.
func (agg *StringAggregator) Merge(tup *tuple.Tuple) error {
	agg.mutex.Lock()
	defer agg.mutex.Unlock()

	key, groupField, err := groupOf(tup, agg.gbField)
	if err != nil {
		return err
	}

	aggField, err := tup.GetField(agg.aField)
	if err != nil {
		return err
	}
	if _, ok := aggField.(*types.StringField); !ok {
		return fmt.Errorf("aggregate field at index %d is not a string", agg.aField)
	}

	agg.groupFields[key] = groupField
	agg.results[key]++
	return nil
}

// Iterator materializes the per-group counts into a tuple stream.
func (agg *StringAggregator) Iterator() iterator.DbIterator {
	agg.mutex.Lock()
	defer agg.mutex.Unlock()

	return resultIterator(agg.tupleDesc, agg.gbField, agg.groupFields, agg.results)
}

// GetTupleDesc returns the result schema.
func (agg *StringAggregator) GetTupleDesc() *tuple.TupleDescription {
	return agg.tupleDesc
}
