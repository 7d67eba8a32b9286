// Package optimizer provides cardinality estimation for the query
// planner: fixed-width integer histograms and per-table statistics.
package optimizer

import (
	"fmt"

	dberr "storedb/pkg/error"
	"storedb/pkg/primitives"
)

// IntHistogram is an equi-width histogram over a known inclusive integer
// range [min, max]. Values stream in one at a time through AddValue; space
// and estimation cost are constant in the number of values.
//
// The bucket width is real-valued, (max-min+1)/numBuckets, so ranges that
// do not divide evenly still map max into the last bucket.
type IntHistogram struct {
	buckets   []int
	min       int32
	max       int32
	width     float64
	numTuples int
}

// NewIntHistogram creates a histogram with numBuckets buckets over
// [min, max]. numBuckets must be positive and min must not exceed max.
func NewIntHistogram(numBuckets int, min, max int32) (*IntHistogram, error) {
	if numBuckets < 1 {
		return nil, dberr.Newf(dberr.ErrCategoryUser, dberr.CodeIllegalArg,
			"histogram needs at least one bucket, got %d", numBuckets)
	}
	if min > max {
		return nil, dberr.Newf(dberr.ErrCategoryUser, dberr.CodeIllegalArg,
			"histogram range is empty: min %d > max %d", min, max)
	}

	return &IntHistogram{
		buckets: make([]int, numBuckets),
		min:     min,
		max:     max,
		width:   (float64(max) - float64(min) + 1) / float64(numBuckets),
	}, nil
}

// bucketOf maps an in-range value to its bucket index. Round-down with
// the real-valued width puts max in the last bucket whether or not the
// range divides evenly, as long as there are no more buckets than values
// in the range; the clamp keeps the index from running past the last
// bucket.
func (h *IntHistogram) bucketOf(v int32) int {
	idx := int(float64(v-h.min) / h.width)
	if idx >= len(h.buckets) {
		idx = len(h.buckets) - 1
	}
	return idx
}

// AddValue counts an occurrence of v. Out-of-range values are silently
// ignored.
func (h *IntHistogram) AddValue(v int32) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.bucketOf(v)]++
	h.numTuples++
}

// NumTuples returns how many values the histogram has absorbed.
func (h *IntHistogram) NumTuples() int {
	return h.numTuples
}

// EstimateSelectivity predicts the fraction of recorded values satisfying
// "value op v", in [0, 1]. LESS_THAN interpolates linearly within the
// bucket containing v; every other operator is derived from it.
func (h *IntHistogram) EstimateSelectivity(op primitives.Predicate, v int32) (float64, error) {
	switch op {
	case primitives.LessThan:
		return h.estimateLessThan(v), nil
	case primitives.LessThanOrEqual:
		return h.estimateLessThan(v + 1), nil
	case primitives.GreaterThan:
		sel, _ := h.EstimateSelectivity(primitives.LessThanOrEqual, v)
		return 1 - sel, nil
	case primitives.GreaterThanOrEqual:
		return h.EstimateSelectivity(primitives.GreaterThan, v-1)
	case primitives.Equals:
		lte, _ := h.EstimateSelectivity(primitives.LessThanOrEqual, v)
		lt, _ := h.EstimateSelectivity(primitives.LessThan, v)
		return lte - lt, nil
	case primitives.NotEqual:
		eq, _ := h.EstimateSelectivity(primitives.Equals, v)
		return 1 - eq, nil
	default:
		return 0, dberr.Newf(dberr.ErrCategoryUser, dberr.CodeIllegalArg,
			"no selectivity rule for predicate %v", op)
	}
}

// estimateLessThan computes sel(<, v): full buckets below v's bucket plus
// the linear fraction of v's own bucket below v.
func (h *IntHistogram) estimateLessThan(v int32) float64 {
	if v <= h.min {
		return 0
	}
	if v >= h.max {
		return 1
	}
	if h.numTuples == 0 {
		return 0
	}

	b := h.bucketOf(v)
	base := 0.0
	for i := 0; i < b; i++ {
		base += float64(h.buckets[i])
	}
	base += float64(h.buckets[b]) / h.width * (float64(v) - float64(b)*h.width - float64(h.min))
	return base / float64(h.numTuples)
}

// AvgSelectivity reports the average selectivity of this histogram. The
// estimate is a placeholder that always returns 1.0.
func (h *IntHistogram) AvgSelectivity() float64 {
	return 1.0
}

func (h *IntHistogram) String() string {
	return fmt.Sprintf("IntHistogram(buckets=%d, min=%d, max=%d, tuples=%d)",
		len(h.buckets), h.min, h.max, h.numTuples)
}
