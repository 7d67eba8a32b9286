package aggregation

import (
	"fmt"

	"storedb/pkg/execution"
	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// Aggregate is the aggregation operator: it drains its child stream on
// Open, folding every tuple into a per-group aggregator, then yields the
// materialized grouped results. Only single-column aggregates grouped by
// at most one column are supported.
type Aggregate struct {
	child      iterator.DbIterator
	aField     int
	gField     int
	op         AggregateOp
	aggregator Aggregator
	aggIter    iterator.DbIterator
	base       *execution.BaseIterator
}

// NewAggregate creates the operator. The aggregate column's type decides
// the aggregator: integers support every operator, strings only COUNT;
// anything else fails here, at construction.
func NewAggregate(child iterator.DbIterator, aField, gField int, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, fmt.Errorf("child iterator cannot be nil")
	}

	childDesc := child.GetTupleDesc()
	if childDesc == nil {
		return nil, fmt.Errorf("child tuple description cannot be nil")
	}

	if aField < 0 || aField >= childDesc.NumFields() {
		return nil, fmt.Errorf("invalid aggregate field index: %d", aField)
	}
	if gField != NoGrouping && (gField < 0 || gField >= childDesc.NumFields()) {
		return nil, fmt.Errorf("invalid group field index: %d", gField)
	}

	var gbFieldType types.Type
	if gField != NoGrouping {
		gbFieldType, _ = childDesc.TypeAt(gField)
	}
	aggFieldType, _ := childDesc.TypeAt(aField)

	agg := &Aggregate{
		child:  child,
		aField: aField,
		gField: gField,
		op:     op,
	}

	var err error
	switch aggFieldType {
	case types.IntType:
		agg.aggregator, err = NewIntAggregator(gField, gbFieldType, aField, op, childDesc)
	case types.StringType:
		agg.aggregator, err = NewStringAggregator(gField, gbFieldType, aField, op, childDesc)
	default:
		err = fmt.Errorf("unsupported field type for aggregation: %v", aggFieldType)
	}
	if err != nil {
		return nil, err
	}

	agg.base = execution.NewBaseIterator(agg.readNext)
	return agg, nil
}

// Open drains the child, builds the grouped state, and opens the
// materialized result stream.
func (agg *Aggregate) Open() error {
	if err := agg.child.Open(); err != nil {
		return fmt.Errorf("failed to open child iterator: %w", err)
	}

	if err := iterator.ForEach(agg.child, agg.aggregator.Merge); err != nil {
		return fmt.Errorf("failed to aggregate child stream: %w", err)
	}

	agg.aggIter = agg.aggregator.Iterator()
	if err := agg.aggIter.Open(); err != nil {
		return err
	}

	agg.base.MarkOpened()
	return nil
}

// HasNext reports whether another result tuple remains.
func (agg *Aggregate) HasNext() (bool, error) {
	return agg.base.HasNext()
}

// Next returns the next result tuple.
func (agg *Aggregate) Next() (*tuple.Tuple, error) {
	return agg.base.Next()
}

// Rewind restarts the materialized result stream. The aggregate state is
// not rebuilt; the child is not re-read.
func (agg *Aggregate) Rewind() error {
	if agg.aggIter == nil {
		return fmt.Errorf("aggregate operator not opened")
	}
	if err := agg.aggIter.Rewind(); err != nil {
		return err
	}
	agg.base.MarkOpened()
	return nil
}

// Close closes the child and the result stream.
func (agg *Aggregate) Close() error {
	if agg.child != nil {
		agg.child.Close()
	}
	if agg.aggIter != nil {
		agg.aggIter.Close()
		agg.aggIter = nil
	}
	return agg.base.Close()
}

// GetTupleDesc returns the result schema: the aggregate column named
// "<OP>(<column>)", preceded by the group column when grouping.
func (agg *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	return agg.aggregator.GetTupleDesc()
}

// AggregateField returns the index of the aggregated column in the input.
func (agg *Aggregate) AggregateField() int {
	return agg.aField
}

// GroupField returns the grouping column index, or NoGrouping.
func (agg *Aggregate) GroupField() int {
	return agg.gField
}

// Op returns the aggregation operator.
func (agg *Aggregate) Op() AggregateOp {
	return agg.op
}

// GetChildren returns the operator's single child.
func (agg *Aggregate) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{agg.child}
}

// SetChildren replaces the operator's child stream.
func (agg *Aggregate) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 1 {
		return fmt.Errorf("aggregate operator takes exactly one child, got %d", len(children))
	}
	agg.child = children[0]
	return nil
}

// readNext pulls one tuple from the materialized results.
func (agg *Aggregate) readNext() (*tuple.Tuple, error) {
	if agg.aggIter == nil {
		return nil, nil
	}

	hasNext, err := agg.aggIter.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return agg.aggIter.Next()
}
