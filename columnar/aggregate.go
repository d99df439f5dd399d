package columnar

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Per-group aggregation kernels. One task per group runs on the shared
// fan-out; a single-chunk no-null column reduces straight off its backing
// slice, anything else gathers the group first. A group whose values are
// all null aggregates to null. Count is the size of the index list,
// nulls included.

// AggSum sums each group. The result keeps the element type.
func AggSum(c Column, groups []Group) (Column, error) {
	switch ca := c.(type) {
	case *Chunked[int64]:
		return aggSum(ca, groups), nil
	case *Chunked[float64]:
		return aggSum(ca, groups), nil
	default:
		return nil, fmt.Errorf("sum over %s column %q: %w", c.DataType(), c.Name(), ErrInvalidOperation)
	}
}

// AggMin takes the minimum of each group.
func AggMin(c Column, groups []Group) (Column, error) {
	switch ca := c.(type) {
	case *Chunked[int64]:
		return aggCompare(ca, groups, func(a, b int64) bool { return a < b }), nil
	case *Chunked[float64]:
		return aggCompare(ca, groups, func(a, b float64) bool { return a < b }), nil
	default:
		return nil, fmt.Errorf("min over %s column %q: %w", c.DataType(), c.Name(), ErrInvalidOperation)
	}
}

// AggMax takes the maximum of each group.
func AggMax(c Column, groups []Group) (Column, error) {
	switch ca := c.(type) {
	case *Chunked[int64]:
		return aggCompare(ca, groups, func(a, b int64) bool { return a > b }), nil
	case *Chunked[float64]:
		return aggCompare(ca, groups, func(a, b float64) bool { return a > b }), nil
	default:
		return nil, fmt.Errorf("max over %s column %q: %w", c.DataType(), c.Name(), ErrInvalidOperation)
	}
}

// AggMean averages each group, promoting integer columns to float64.
// The divisor is the group size, nulls included.
func AggMean(c Column, groups []Group) (Column, error) {
	switch ca := c.(type) {
	case *Chunked[int64]:
		return aggMean(ca, groups), nil
	case *Chunked[float64]:
		return aggMean(ca, groups), nil
	default:
		return nil, fmt.Errorf("mean over %s column %q: %w", c.DataType(), c.Name(), ErrInvalidOperation)
	}
}

// AggCount counts rows per group regardless of null status. It applies
// to every column kind.
func AggCount(c Column, groups []Group) (Column, error) {
	counts := make([]int64, len(groups))
	for gi, g := range groups {
		counts[gi] = int64(len(g.Idx))
	}
	return NewChunked(c.Name(), counts), nil
}

func aggSum[T Numeric](ca *Chunked[T], groups []Group) *Chunked[T] {
	values := make([]T, len(groups))
	isNull := make([]bool, len(groups))
	slice, contiguous := ca.ContiguousSlice()
	parallelIndexes(len(groups), func(gi int) {
		g := groups[gi]
		if contiguous {
			var sum T
			for _, i := range g.Idx {
				sum += slice[i]
			}
			values[gi] = sum
			return
		}
		taken := ca.takeIdx(g.Idx).(*Chunked[T])
		sum, ok := chunkedSum(taken)
		if !ok {
			isNull[gi] = true
			return
		}
		values[gi] = sum
	})
	return assemble(ca.name, values, isNull)
}

func aggCompare[T Numeric](ca *Chunked[T], groups []Group, better func(a, b T) bool) *Chunked[T] {
	values := make([]T, len(groups))
	isNull := make([]bool, len(groups))
	slice, contiguous := ca.ContiguousSlice()
	parallelIndexes(len(groups), func(gi int) {
		g := groups[gi]
		var best T
		found := false
		if contiguous {
			for _, i := range g.Idx {
				v := slice[i]
				if !found || better(v, best) {
					best, found = v, true
				}
			}
		} else {
			taken := ca.takeIdx(g.Idx).(*Chunked[T])
			taken.forEach(span{end: taken.Len()}, func(_ int, v T, valid bool) {
				if valid && (!found || better(v, best)) {
					best, found = v, true
				}
			})
		}
		if !found {
			isNull[gi] = true
			return
		}
		values[gi] = best
	})
	return assemble(ca.name, values, isNull)
}

func aggMean[T Numeric](ca *Chunked[T], groups []Group) *Chunked[float64] {
	values := make([]float64, len(groups))
	isNull := make([]bool, len(groups))
	slice, contiguous := ca.ContiguousSlice()
	parallelIndexes(len(groups), func(gi int) {
		g := groups[gi]
		if contiguous {
			sum := 0.0
			for _, i := range g.Idx {
				sum += float64(slice[i])
			}
			values[gi] = sum / float64(len(g.Idx))
			return
		}
		taken := ca.takeIdx(g.Idx).(*Chunked[T])
		sum, ok := chunkedSum(taken)
		if !ok {
			isNull[gi] = true
			return
		}
		values[gi] = float64(sum) / float64(len(g.Idx))
	})
	return assemble(ca.name, values, isNull)
}

// chunkedSum sums the valid values of a column; false when none exist.
func chunkedSum[T Numeric](ca *Chunked[T]) (T, bool) {
	var sum T
	found := false
	ca.forEach(span{end: ca.Len()}, func(_ int, v T, valid bool) {
		if valid {
			sum += v
			found = true
		}
	})
	return sum, found
}

func assemble[T Elem](name string, values []T, isNull []bool) *Chunked[T] {
	ca := NewChunked(name, values)
	var nulls *roaring.Bitmap
	for i, n := range isNull {
		if n {
			if nulls == nil {
				nulls = roaring.New()
			}
			nulls.Add(uint32(i))
		}
	}
	ca.nulls = nulls
	return ca
}
