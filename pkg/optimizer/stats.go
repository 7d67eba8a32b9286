package optimizer

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/execution"
	"storedb/pkg/iterator"
	"storedb/pkg/logging"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/heap"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// DefaultHistogramBuckets is the bucket count used when the caller does
// not choose one.
const DefaultHistogramBuckets = 100

// TableStats summarizes one table for the planner: a row count and one
// IntHistogram per integer column. String columns carry no histogram.
//
// Construction scans the table twice through the buffer pool: a first
// pass finds each column's range, a second pass populates the buckets.
type TableStats struct {
	tableID    primitives.TableID
	numTuples  int
	histograms map[int]*IntHistogram // column index -> histogram
}

// NewTableStats builds statistics for the given table on behalf of tid.
func NewTableStats(tid *transaction.TransactionID, file *heap.HeapFile, pool page.PageFetcher, numBuckets int) (*TableStats, error) {
	if numBuckets <= 0 {
		numBuckets = DefaultHistogramBuckets
	}

	scan, err := execution.NewSeqScan(tid, file, pool)
	if err != nil {
		return nil, err
	}
	if err := scan.Open(); err != nil {
		return nil, err
	}
	defer scan.Close()

	desc := file.GetTupleDesc()
	intColumns := make([]int, 0, desc.NumFields())
	for i := 0; i < desc.NumFields(); i++ {
		if desc.Types[i] == types.IntType {
			intColumns = append(intColumns, i)
		}
	}

	mins := make(map[int]int32)
	maxs := make(map[int]int32)
	numTuples := 0

	err = iterator.ForEach(scan, func(t *tuple.Tuple) error {
		numTuples++
		for _, col := range intColumns {
			v, err := intValueAt(t, col)
			if err != nil {
				return err
			}
			if cur, seen := mins[col]; !seen || v < cur {
				mins[col] = v
			}
			if cur, seen := maxs[col]; !seen || v > cur {
				maxs[col] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := &TableStats{
		tableID:    file.GetID(),
		numTuples:  numTuples,
		histograms: make(map[int]*IntHistogram),
	}

	if numTuples == 0 {
		return stats, nil
	}

	for _, col := range intColumns {
		hist, err := NewIntHistogram(numBuckets, mins[col], maxs[col])
		if err != nil {
			return nil, err
		}
		stats.histograms[col] = hist
	}

	if err := scan.Rewind(); err != nil {
		return nil, err
	}
	err = iterator.ForEach(scan, func(t *tuple.Tuple) error {
		for _, col := range intColumns {
			v, err := intValueAt(t, col)
			if err != nil {
				return err
			}
			stats.histograms[col].AddValue(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.WithComponent("TableStats").
		WithField("table", stats.tableID).
		WithField("tuples", numTuples).
		Debug("built table statistics")
	return stats, nil
}

// NumTuples returns the table's row count at build time.
func (ts *TableStats) NumTuples() int {
	return ts.numTuples
}

// EstimateSelectivity predicts the fraction of the table's rows whose
// value in the given column satisfies "value op v". Columns without a
// histogram (string columns, empty tables) cannot be estimated.
func (ts *TableStats) EstimateSelectivity(column int, op primitives.Predicate, v int32) (float64, error) {
	hist, exists := ts.histograms[column]
	if !exists {
		return 0, dberr.Newf(dberr.ErrCategoryUser, dberr.CodeIllegalArg,
			"no histogram for column %d of table %d", column, ts.tableID)
	}
	return hist.EstimateSelectivity(op, v)
}

// Histogram exposes the column's histogram, or nil when none exists.
func (ts *TableStats) Histogram(column int) *IntHistogram {
	return ts.histograms[column]
}

// intValueAt reads the int32 value of a column.
func intValueAt(t *tuple.Tuple, col int) (int32, error) {
	field, err := t.GetField(col)
	if err != nil {
		return 0, err
	}
	intField, ok := field.(*types.IntField)
	if !ok {
		return 0, fmt.Errorf("column %d is not an integer", col)
	}
	return intField.Value, nil
}

// BuildAll computes statistics for every given table concurrently, one
// build per table, all on behalf of the same transaction (scans take
// shared locks, so the builds do not conflict).
func BuildAll(tid *transaction.TransactionID, files []*heap.HeapFile, pool page.PageFetcher, numBuckets int) (map[primitives.TableID]*TableStats, error) {
	var (
		g     errgroup.Group
		mutex sync.Mutex
	)
	all := make(map[primitives.TableID]*TableStats, len(files))

	for _, file := range files {
		file := file
		g.Go(func() error {
			stats, err := NewTableStats(tid, file, pool, numBuckets)
			if err != nil {
				return err
			}

			mutex.Lock()
			all[stats.tableID] = stats
			mutex.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}
