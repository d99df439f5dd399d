package columnar

import (
	"fmt"
	"hash/maphash"
)

// probeBuildOrder designates the shorter relation as the hash-table
// build side. swap reports that the caller's left/right order was
// reversed, so tuple constructors can restore (left, right) ordering.
// The selection is deterministic: the left relation stays the probe side
// only when it is strictly longer.
func probeBuildOrder(left, right Column) (probe, build Column, swap bool) {
	if left.Len() > right.Len() {
		return left, right, false
	}
	return right, left, true
}

// InnerJoinTuples produces (left, right) index pairs for every matching
// key pair across the two columns. Unmatched rows emit nothing.
func InnerJoinTuples(left, right Column) ([]Pair, error) {
	probe, build, swap := probeBuildOrder(left, right)
	tuples, err := probe.joinInner(build, swap)
	if err != nil {
		return nil, fmt.Errorf("inner join on %q and %q: %w", left.Name(), right.Name(), err)
	}
	return tuples, nil
}

// LeftJoinTuples produces one or more tuples per left row: a fan-out per
// match, or a single tuple with an absent right index when unmatched.
// The left relation is always the probe side.
func LeftJoinTuples(left, right Column) ([]LeftTuple, error) {
	tuples, err := left.joinLeft(right)
	if err != nil {
		return nil, fmt.Errorf("left join on %q and %q: %w", left.Name(), right.Name(), err)
	}
	return tuples, nil
}

// OuterJoinTuples produces tuples covering every row of both columns:
// one per match, and one one-sided tuple per unmatched row of either side.
func OuterJoinTuples(left, right Column) ([]OuterTuple, error) {
	probe, build, swap := probeBuildOrder(left, right)
	tuples, err := probe.joinOuter(build, swap)
	if err != nil {
		return nil, fmt.Errorf("outer join on %q and %q: %w", left.Name(), right.Name(), err)
	}
	return tuples, nil
}

// GroupTuples groups the column's rows by value. Every row index appears
// in exactly one group; group order is unspecified.
func GroupTuples(c Column) ([]Group, error) {
	groups, err := c.groupTuples()
	if err != nil {
		return nil, fmt.Errorf("group by %q: %w", c.Name(), err)
	}
	return groups, nil
}

// ZipOuterJoinColumn merges the key columns of an outer join: each tuple
// takes the left value when the left index is present, otherwise the
// right value.
func ZipOuterJoinColumn(left, right Column, tuples []OuterTuple) (Column, error) {
	out, err := left.zipOuter(right, tuples)
	if err != nil {
		return nil, fmt.Errorf("zip outer join column %q: %w", left.Name(), err)
	}
	return out, nil
}

// Typed dispatch. The receiver is the probe side; build must hold the
// same element type.

func (ca *Chunked[T]) joinInner(build Column, swap bool) ([]Pair, error) {
	cb, ok := build.(*Chunked[T])
	if !ok {
		return nil, fmt.Errorf("%s vs %s: %w", ca.DataType(), build.DataType(), ErrTypeMismatch)
	}
	if sa, isStr := any(ca).(*Chunked[string]); isStr {
		return innerTuplesKeyed(sa, any(cb).(*Chunked[string]), stringKey, swap), nil
	}
	return innerTuplesKeyed(ca, cb, scalarKey[T], swap), nil
}

func (ca *Chunked[T]) joinLeft(build Column) ([]LeftTuple, error) {
	cb, ok := build.(*Chunked[T])
	if !ok {
		return nil, fmt.Errorf("%s vs %s: %w", ca.DataType(), build.DataType(), ErrTypeMismatch)
	}
	if sa, isStr := any(ca).(*Chunked[string]); isStr {
		return leftTuplesKeyed(sa, any(cb).(*Chunked[string]), stringKey), nil
	}
	return leftTuplesKeyed(ca, cb, scalarKey[T]), nil
}

func (ca *Chunked[T]) joinOuter(build Column, swap bool) ([]OuterTuple, error) {
	cb, ok := build.(*Chunked[T])
	if !ok {
		return nil, fmt.Errorf("%s vs %s: %w", ca.DataType(), build.DataType(), ErrTypeMismatch)
	}
	if sa, isStr := any(ca).(*Chunked[string]); isStr {
		return outerTuplesKeyed(sa, any(cb).(*Chunked[string]), stringKey, swap), nil
	}
	return outerTuplesKeyed(ca, cb, scalarKey[T], swap), nil
}

// innerTuplesKeyed prepares both relations with a shared seed and runs
// the generic inner probe. Columns without nulls skip the optKey wrapper.
func innerTuplesKeyed[T Elem, K comparable](probe, build *Chunked[T], key func(T) K, swap bool) []Pair {
	n := joinThreads()
	seed := maphash.MakeSeed()
	if probe.NullCount() == 0 && build.NullCount() == 0 {
		return hashJoinTuplesInner(
			keyedPartitions(build, n, seed, key),
			keyedPartitions(probe, n, seed, key),
			swap,
		)
	}
	return hashJoinTuplesInner(
		keyedOptPartitions(build, n, seed, key),
		keyedOptPartitions(probe, n, seed, key),
		swap,
	)
}

func leftTuplesKeyed[T Elem, K comparable](probe, build *Chunked[T], key func(T) K) []LeftTuple {
	n := joinThreads()
	seed := maphash.MakeSeed()
	if probe.NullCount() == 0 && build.NullCount() == 0 {
		return hashJoinTuplesLeft(
			keyedPartitions(build, n, seed, key),
			keyedPartitions(probe, n, seed, key),
		)
	}
	return hashJoinTuplesLeft(
		keyedOptPartitions(build, n, seed, key),
		keyedOptPartitions(probe, n, seed, key),
	)
}

func outerTuplesKeyed[T Elem, K comparable](probe, build *Chunked[T], key func(T) K, swap bool) []OuterTuple {
	n := joinThreads()
	seed := maphash.MakeSeed()
	if probe.NullCount() == 0 && build.NullCount() == 0 {
		return hashJoinTuplesOuter(
			keyedPartitions(build, n, seed, key),
			keyedPartitions(probe, n, seed, key),
			swap,
		)
	}
	return hashJoinTuplesOuter(
		keyedOptPartitions(build, n, seed, key),
		keyedOptPartitions(probe, n, seed, key),
		swap,
	)
}

// hashJoinTuplesInner probes the partitioned tables in parallel, one
// worker per probe partition. Partition offsets turn local positions into
// global row indices; results are concatenated in partition order, so
// output is stable for a fixed thread count.
func hashJoinTuplesInner[K comparable](build, probe keyedRelation[K], swap bool) []Pair {
	tables := buildHashTables(build)
	n := uint64(len(tables))

	// Resolve the swap once per call, not per element.
	pair := func(a, b uint32) Pair { return Pair{Left: a, Right: b} }
	if swap {
		pair = func(a, b uint32) Pair { return Pair{Left: b, Right: a} }
	}

	results := make([][]Pair, len(probe.parts))
	parallelParts(len(probe.parts), func(p int) {
		part := probe.parts[p]
		base := probe.offsets[p]
		local := make([]Pair, 0, len(part))
		for j, hk := range part {
			idxA := base + uint32(j)
			if idxsB, ok := tables[hk.hash%n][hk.key]; ok {
				for _, idxB := range idxsB {
					local = append(local, pair(idxA, idxB))
				}
			}
		}
		results[p] = local
	})
	return concatTuples(results)
}

// hashJoinTuplesLeft is the inner traversal, but every probe element
// emits at least one tuple. No swap: the left relation is always probed.
func hashJoinTuplesLeft[K comparable](build, probe keyedRelation[K]) []LeftTuple {
	tables := buildHashTables(build)
	n := uint64(len(tables))

	results := make([][]LeftTuple, len(probe.parts))
	parallelParts(len(probe.parts), func(p int) {
		part := probe.parts[p]
		base := probe.offsets[p]
		local := make([]LeftTuple, 0, len(part))
		for j, hk := range part {
			idxA := base + uint32(j)
			if idxsB, ok := tables[hk.hash%n][hk.key]; ok {
				for _, idxB := range idxsB {
					local = append(local, LeftTuple{Left: idxA, Right: SomeIndex(idxB)})
				}
			} else {
				local = append(local, LeftTuple{Left: idxA})
			}
		}
		results[p] = local
	})
	return concatTuples(results)
}

// hashJoinTuplesOuter probes sequentially: matched entries are removed
// from their table so each build row is emitted exactly once overall,
// then the tables are drained for build rows that never matched. The
// removal makes the tables mutable, hence the single-threaded probe.
func hashJoinTuplesOuter[K comparable](build, probe keyedRelation[K], swap bool) []OuterTuple {
	tables := buildHashTables(build)
	n := uint64(len(tables))

	match := func(a, b uint32) OuterTuple { return OuterTuple{Left: SomeIndex(a), Right: SomeIndex(b)} }
	noMatch := func(a uint32) OuterTuple { return OuterTuple{Left: SomeIndex(a)} }
	drain := func(b uint32) OuterTuple { return OuterTuple{Right: SomeIndex(b)} }
	if swap {
		match = func(a, b uint32) OuterTuple { return OuterTuple{Left: SomeIndex(b), Right: SomeIndex(a)} }
		noMatch = func(a uint32) OuterTuple { return OuterTuple{Right: SomeIndex(a)} }
		drain = func(b uint32) OuterTuple { return OuterTuple{Left: SomeIndex(b)} }
	}

	results := make([]OuterTuple, 0, probe.rows()+build.rows())
	for p, part := range probe.parts {
		base := probe.offsets[p]
		for j, hk := range part {
			idxA := base + uint32(j)
			tbl := tables[hk.hash%n]
			if idxsB, ok := tbl[hk.key]; ok {
				delete(tbl, hk.key)
				for _, idxB := range idxsB {
					results = append(results, match(idxA, idxB))
				}
			} else {
				results = append(results, noMatch(idxA))
			}
		}
	}
	for _, tbl := range tables {
		for _, idxsB := range tbl {
			for _, idxB := range idxsB {
				results = append(results, drain(idxB))
			}
		}
	}
	return results
}

func concatTuples[T any](parts [][]T) []T {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
