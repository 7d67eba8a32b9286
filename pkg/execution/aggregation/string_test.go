package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberr "storedb/pkg/error"
	"storedb/pkg/types"
)

func TestStringAggregatorOnlySupportsCount(t *testing.T) {
	desc := groupedDesc(t)

	for _, op := range []AggregateOp{Sum, Min, Max, Avg} {
		_, err := NewStringAggregator(NoGrouping, 0, 0, op, desc)
		require.Error(t, err, "%v over strings must be rejected", op)
		assert.True(t, dberr.IsCode(err, dberr.CodeUnsupportedOp))
	}

	_, err := NewStringAggregator(NoGrouping, 0, 0, Count, desc)
	assert.NoError(t, err)
}

func TestStringCountWithoutGrouping(t *testing.T) {
	desc := groupedDesc(t)
	agg, err := NewStringAggregator(NoGrouping, 0, 0, Count, desc)
	require.NoError(t, err)

	for _, g := range []string{"x", "y", "z"} {
		require.NoError(t, agg.Merge(groupedTuple(t, desc, g, 0)))
	}

	assert.Equal(t, int32(3), singleResult(t, agg))
}

func TestStringCountGrouped(t *testing.T) {
	desc := groupedDesc(t)
	// Group by the int column, count the string column.
	agg, err := NewStringAggregator(1, types.IntType, 0, Count, desc)
	require.NoError(t, err)

	require.NoError(t, agg.Merge(groupedTuple(t, desc, "a", 1)))
	require.NoError(t, agg.Merge(groupedTuple(t, desc, "b", 1)))
	require.NoError(t, agg.Merge(groupedTuple(t, desc, "c", 2)))

	results := groupResults(t, agg)
	assert.Equal(t, map[string]int32{"1": 2, "2": 1}, results)
}

func TestStringMergeRejectsIntColumn(t *testing.T) {
	desc := groupedDesc(t)
	agg, err := NewStringAggregator(NoGrouping, 0, 1, Count, desc)
	require.NoError(t, err)

	// Column 1 is the int column.
	err = agg.Merge(groupedTuple(t, desc, "a", 1))
	assert.Error(t, err)
}
