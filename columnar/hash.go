package columnar

import (
	"hash/maphash"
	"math"
)

// OptIndex is a row index that may be absent (the null side of a left or
// outer join tuple).
type OptIndex struct {
	Idx   uint32
	Valid bool
}

// SomeIndex wraps a concrete row index.
func SomeIndex(i uint32) OptIndex { return OptIndex{Idx: i, Valid: true} }

// Pair is an inner-join tuple of concrete row indices.
type Pair struct {
	Left, Right uint32
}

// LeftTuple pairs a left row with an optional right match.
type LeftTuple struct {
	Left  uint32
	Right OptIndex
}

// OuterTuple pairs optional rows from both sides; at most one side is
// absent.
type OuterTuple struct {
	Left, Right OptIndex
}

// Group describes one distinct key: the first row index recorded for it
// and every row index sharing it, in input order.
type Group struct {
	First uint32
	Idx   []uint32
}

// hashedKey is a precomputed (hash, comparable key) element. Computing
// these up front lets the probe loops and table builders share one pass
// over the data.
type hashedKey[K comparable] struct {
	hash uint64
	key  K
}

// keyedRelation is a column rendered as hash+key vectors, one per
// contiguous partition, with each partition's global start index.
type keyedRelation[K comparable] struct {
	parts   [][]hashedKey[K]
	offsets []uint32
}

func (r keyedRelation[K]) rows() int {
	n := 0
	for _, p := range r.parts {
		n += len(p)
	}
	return n
}

// optKey wraps a key for nullable columns. The zero value is the null
// sentinel: nulls compare equal only to nulls and always hash alike.
type optKey[K comparable] struct {
	key   K
	valid bool
}

// scalarKey maps a non-string element to its comparable bit pattern.
// Floats are keyed by raw bits, so NaNs with identical payloads compare
// equal and IEEE-equal values with differing bits do not.
func scalarKey[T Elem](v T) uint64 {
	switch x := any(v).(type) {
	case int64:
		return uint64(x)
	case float64:
		return math.Float64bits(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		panic("columnar: string keys are handled by stringKey")
	}
}

func stringKey(v string) string { return v }

// keyedPartitions hashes the no-null fast path of a column into n
// contiguous partitions, in parallel. The seed must be shared between the
// build and probe relations of one join so both sides hash identically.
func keyedPartitions[T Elem, K comparable](ca *Chunked[T], n int, seed maphash.Seed, key func(T) K) keyedRelation[K] {
	spans := partitionSpans(ca.Len(), n)
	rel := keyedRelation[K]{
		parts:   make([][]hashedKey[K], len(spans)),
		offsets: make([]uint32, len(spans)),
	}
	parallelSpans(spans, func(p int, s span) {
		rel.offsets[p] = uint32(s.start)
		out := make([]hashedKey[K], 0, s.end-s.start)
		ca.forEach(s, func(_ int, v T, _ bool) {
			k := key(v)
			out = append(out, hashedKey[K]{hash: maphash.Comparable(seed, k), key: k})
		})
		rel.parts[p] = out
	})
	return rel
}

// keyedOptPartitions is the nullable variant: elements become optKeys so
// null participates in equality as its own value.
func keyedOptPartitions[T Elem, K comparable](ca *Chunked[T], n int, seed maphash.Seed, key func(T) K) keyedRelation[optKey[K]] {
	spans := partitionSpans(ca.Len(), n)
	rel := keyedRelation[optKey[K]]{
		parts:   make([][]hashedKey[optKey[K]], len(spans)),
		offsets: make([]uint32, len(spans)),
	}
	parallelSpans(spans, func(p int, s span) {
		rel.offsets[p] = uint32(s.start)
		out := make([]hashedKey[optKey[K]], 0, s.end-s.start)
		ca.forEach(s, func(_ int, v T, valid bool) {
			var k optKey[K]
			if valid {
				k = optKey[K]{key: key(v), valid: true}
			}
			out = append(out, hashedKey[optKey[K]]{hash: maphash.Comparable(seed, k), key: k})
		})
		rel.parts[p] = out
	})
	return rel
}

// buildHashTables realizes the partitioned hash table: len(rel.parts)
// independent maps from key to the build-side row indices sharing it.
// A key with hash h always lands in table h % n. Every worker scans the
// whole relation and keeps only the keys its table owns; the modulus is
// global, so probing table i later only ever needs table i.
func buildHashTables[K comparable](rel keyedRelation[K]) []map[K][]uint32 {
	n := uint64(len(rel.parts))
	tables := make([]map[K][]uint32, n)
	parallelParts(int(n), func(t int) {
		tbl := make(map[K][]uint32)
		for p, part := range rel.parts {
			base := rel.offsets[p]
			for j, hk := range part {
				if hk.hash%n == uint64(t) {
					tbl[hk.key] = append(tbl[hk.key], base+uint32(j))
				}
			}
		}
		tables[t] = tbl
	})
	return tables
}
