// Package aggregation implements the group-by aggregate operator and the
// per-type aggregators it delegates to.
package aggregation

import (
	"fmt"
	"strings"

	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
)

// NoGrouping is the group-field index meaning "aggregate the whole
// stream as one group".
const NoGrouping = -1

// AggregateOp is the aggregation function applied per group.
type AggregateOp int

const (
	Count AggregateOp = iota
	Sum
	Min
	Max
	Avg
)

func (op AggregateOp) String() string {
	switch op {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregateOp converts an operator name (any case) to its
// AggregateOp.
func ParseAggregateOp(s string) (AggregateOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COUNT":
		return Count, nil
	case "SUM":
		return Sum, nil
	case "MIN":
		return Min, nil
	case "MAX":
		return Max, nil
	case "AVG":
		return Avg, nil
	default:
		return 0, fmt.Errorf("unknown aggregate operator %q", s)
	}
}

// Aggregator accumulates grouped aggregate state from a tuple stream and
// exposes the materialized result as an iterator.
type Aggregator interface {
	// Merge folds one tuple into the aggregate, grouping as configured at
	// construction.
	Merge(tup *tuple.Tuple) error

	// Iterator returns the materialized results: (groupValue, aggregateValue)
	// pairs, or single aggregateValue tuples without grouping. Result
	// order follows map iteration and is not guaranteed.
	Iterator() iterator.DbIterator

	// GetTupleDesc returns the result schema.
	GetTupleDesc() *tuple.TupleDescription
}

// aggColumnName renders the result column name, e.g. "SUM(age)".
func aggColumnName(op AggregateOp, childDesc *tuple.TupleDescription, aField int) string {
	name, _ := childDesc.FieldName(aField)
	return fmt.Sprintf("%s(%s)", op, name)
}
