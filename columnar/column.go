// Package columnar implements typed chunked arrays and the relational
// kernels that operate on them: take/gather, partitioned parallel hash
// joins and group-by tuple extraction with per-group aggregation.
package columnar

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// DataType identifies the element kind of a column.
type DataType uint8

const (
	Int64Type DataType = iota
	Float64Type
	BoolType
	StringType
	ListType
)

func (dt DataType) String() string {
	switch dt {
	case Int64Type:
		return "int64"
	case Float64Type:
		return "float64"
	case BoolType:
		return "bool"
	case StringType:
		return "string"
	case ListType:
		return "list"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(dt))
	}
}

// Elem is the set of primitive element types a Chunked column can hold.
type Elem interface {
	int64 | float64 | bool | string
}

// Numeric is the subset of Elem that supports arithmetic aggregation.
type Numeric interface {
	int64 | float64
}

// Column is a named, nullable, chunked sequence of one primitive type.
type Column interface {
	Name() string
	Rename(name string)
	Len() int
	DataType() DataType
	NullCount() int
	IsNull(i int) bool
	// Value returns the element at i as an interface value. The second
	// return is false when the element is null.
	Value(i int) (any, bool)
	// Take builds a new column from the referenced values. Indices are
	// validated; an invalid index returns ErrOutOfBounds.
	Take(indices []int) (Column, error)
	// TakeOpt is like Take but a tuple without a valid index produces a
	// null element.
	TakeOpt(indices []OptIndex) (Column, error)

	// Unchecked gathers used after joins, where indices are valid by
	// construction.
	takeIdx(indices []uint32) Column
	takeOpt(indices []OptIndex) Column

	joinInner(build Column, swap bool) ([]Pair, error)
	joinLeft(build Column) ([]LeftTuple, error)
	joinOuter(build Column, swap bool) ([]OuterTuple, error)
	groupTuples() ([]Group, error)
	zipOuter(other Column, tuples []OuterTuple) (Column, error)
	appendKey(dst []byte, i int) ([]byte, error)
}

// Chunked is a column stored as one or more contiguous chunks of T.
// Null positions are tracked in a roaring bitmap over logical indices;
// a nil bitmap means the column has no nulls.
type Chunked[T Elem] struct {
	name    string
	chunks  [][]T
	offsets []int // logical start index of each chunk
	length  int
	nulls   *roaring.Bitmap
}

// NewChunked builds a single-chunk column without nulls.
func NewChunked[T Elem](name string, values []T) *Chunked[T] {
	ca := &Chunked[T]{name: name}
	ca.appendChunk(values)
	return ca
}

// NewChunkedNullable builds a single-chunk column where valid[i]==false
// marks element i as null. valid may be nil, meaning all values are valid.
func NewChunkedNullable[T Elem](name string, values []T, valid []bool) (*Chunked[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, fmt.Errorf("column %q: %d values with %d validity flags: %w",
			name, len(values), len(valid), ErrShapeMismatch)
	}
	ca := NewChunked(name, values)
	if valid != nil {
		for i, ok := range valid {
			if !ok {
				ca.setNull(i)
			}
		}
	}
	return ca, nil
}

func (ca *Chunked[T]) appendChunk(values []T) {
	ca.chunks = append(ca.chunks, values)
	ca.offsets = append(ca.offsets, ca.length)
	ca.length += len(values)
}

// AppendChunk appends a contiguous chunk of non-null values.
func (ca *Chunked[T]) AppendChunk(values []T) {
	ca.appendChunk(values)
}

func (ca *Chunked[T]) setNull(i int) {
	if ca.nulls == nil {
		ca.nulls = roaring.New()
	}
	ca.nulls.Add(uint32(i))
}

func (ca *Chunked[T]) Name() string       { return ca.name }
func (ca *Chunked[T]) Rename(name string) { ca.name = name }
func (ca *Chunked[T]) Len() int           { return ca.length }

func (ca *Chunked[T]) DataType() DataType {
	var zero T
	switch any(zero).(type) {
	case int64:
		return Int64Type
	case float64:
		return Float64Type
	case bool:
		return BoolType
	default:
		return StringType
	}
}

func (ca *Chunked[T]) NullCount() int {
	if ca.nulls == nil {
		return 0
	}
	return int(ca.nulls.GetCardinality())
}

func (ca *Chunked[T]) IsNull(i int) bool {
	return ca.nulls != nil && ca.nulls.Contains(uint32(i))
}

// Get returns the element at i and whether it is valid (non-null).
// The index must be in bounds; callers validate or guarantee it.
func (ca *Chunked[T]) Get(i int) (T, bool) {
	if ca.IsNull(i) {
		var zero T
		return zero, false
	}
	c, off := ca.chunkAt(i)
	return ca.chunks[c][off], true
}

func (ca *Chunked[T]) Value(i int) (any, bool) {
	v, ok := ca.Get(i)
	return v, ok
}

func (ca *Chunked[T]) chunkAt(i int) (chunk, offset int) {
	// Single-chunk columns are the common case.
	if len(ca.chunks) == 1 {
		return 0, i
	}
	for c := len(ca.offsets) - 1; c >= 0; c-- {
		if i >= ca.offsets[c] {
			return c, i - ca.offsets[c]
		}
	}
	return 0, i
}

// ContiguousSlice returns the backing slice when the column is a single
// chunk without nulls. This is the fast path for aggregation kernels.
func (ca *Chunked[T]) ContiguousSlice() ([]T, bool) {
	if len(ca.chunks) == 1 && ca.NullCount() == 0 {
		return ca.chunks[0], true
	}
	return nil, false
}

// forEach walks the logical range [s.start, s.end) in order, crossing
// chunk boundaries, and reports each element with its validity.
func (ca *Chunked[T]) forEach(s span, fn func(i int, v T, valid bool)) {
	for c, chunk := range ca.chunks {
		base := ca.offsets[c]
		if base+len(chunk) <= s.start || base >= s.end {
			continue
		}
		lo := 0
		if s.start > base {
			lo = s.start - base
		}
		hi := len(chunk)
		if s.end < base+len(chunk) {
			hi = s.end - base
		}
		for j := lo; j < hi; j++ {
			i := base + j
			fn(i, chunk[j], !ca.IsNull(i))
		}
	}
}
