package aggregation

import (
	"fmt"
	"math"
	"sync"

	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// noGroupKey is the sentinel map key for the single group of an ungrouped
// aggregate.
const noGroupKey = "NO_GROUPING"

// IntAggregator computes COUNT, SUM, MIN, MAX, or AVG over an integer
// column, optionally grouped by another column. Group state is keyed by
// the group field's rendered value, with the field itself kept alongside
// for result construction.
//
// Seeding quirks kept from the reference implementation: MIN starts from
// MaxInt32, but MAX starts from 0, so MAX over all-negative input
// reports 0.
type IntAggregator struct {
	gbField     int
	gbFieldType types.Type
	aField      int
	op          AggregateOp
	tupleDesc   *tuple.TupleDescription

	mutex       sync.Mutex
	groupFields map[string]types.Field // group key -> group field value
	results     map[string]int32       // group key -> current aggregate
	sums        map[string]int32       // AVG running sums
	counts      map[string]int32       // AVG running counts
}

// NewIntAggregator creates an aggregator for the given grouping and
// aggregate columns of childDesc. gbFieldType is ignored when gbField is
// NoGrouping.
func NewIntAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp, childDesc *tuple.TupleDescription) (*IntAggregator, error) {
	tupleDesc, err := resultDesc(gbField, gbFieldType, op, childDesc, aField)
	if err != nil {
		return nil, err
	}

	return &IntAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
		op:          op,
		tupleDesc:   tupleDesc,
		groupFields: make(map[string]types.Field),
		results:     make(map[string]int32),
		sums:        make(map[string]int32),
		counts:      make(map[string]int32),
	}, nil
}

// Merge folds one tuple into the group the tuple belongs to.
func (agg *IntAggregator) Merge(tup *tuple.Tuple) error {
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
	intField, ok := aggField.(*types.IntField)
	if !ok {
		return fmt.Errorf("aggregate field at index %d is not an integer", agg.aField)
	}
	value := intField.Value

	agg.groupFields[key] = groupField

	switch agg.op {
	case Count:
		agg.results[key]++
	case Sum:
		agg.results[key] += value
	case Min:
		current, seen := agg.results[key]
		if !seen {
			current = math.MaxInt32
		}
		if value < current {
			current = value
		}
		agg.results[key] = current
	case Max:
		current := agg.results[key] // missing keys seed at 0
		if value > current {
			current = value
		}
		agg.results[key] = current
	case Avg:
		agg.sums[key] += value
		agg.counts[key]++
		agg.results[key] = agg.sums[key] / agg.counts[key]
	default:
		return fmt.Errorf("unsupported aggregate operator: %v", agg.op)
	}

	return nil
}

// Iterator materializes the per-group results into a tuple stream.
func (agg *IntAggregator) Iterator() iterator.DbIterator {
	agg.mutex.Lock()
	defer agg.mutex.Unlock()

	return resultIterator(agg.tupleDesc, agg.gbField, agg.groupFields, agg.results)
}

// GetTupleDesc returns the result schema.
func (agg *IntAggregator) GetTupleDesc() *tuple.TupleDescription {
	return agg.tupleDesc
}

// resultDesc builds the output schema: INT aggregate column named
// "<OP>(<column>)", preceded by the group column when grouping.
func resultDesc(gbField int, gbFieldType types.Type, op AggregateOp, childDesc *tuple.TupleDescription, aField int) (*tuple.TupleDescription, error) {
	aggName := aggColumnName(op, childDesc, aField)

	if gbField == NoGrouping {
		return tuple.NewTupleDesc([]types.Type{types.IntType}, []string{aggName})
	}

	groupName, err := childDesc.FieldName(gbField)
	if err != nil {
		return nil, err
	}
	return tuple.NewTupleDesc([]types.Type{gbFieldType, types.IntType}, []string{groupName, aggName})
}

// groupOf extracts the group key and field of a tuple. Without grouping
// the key is the sentinel and the field is nil.
func groupOf(tup *tuple.Tuple, gbField int) (string, types.Field, error) {
	if gbField == NoGrouping {
		return noGroupKey, nil, nil
	}

	groupField, err := tup.GetField(gbField)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get grouping field: %w", err)
	}
	return groupField.String(), groupField, nil
}

// resultIterator builds the materialized result stream shared by the int
// and string aggregators.
func resultIterator(desc *tuple.TupleDescription, gbField int, groupFields map[string]types.Field, results map[string]int32) iterator.DbIterator {
	tuples := make([]*tuple.Tuple, 0, len(results))

	for key, value := range results {
		t := tuple.NewTuple(desc)
		if gbField == NoGrouping {
			t.SetField(0, types.NewIntField(value))
		} else {
			t.SetField(0, groupFields[key])
			t.SetField(1, types.NewIntField(value))
		}
		tuples = append(tuples, t)
	}

	return tuple.NewIterator(tuples, desc)
}
