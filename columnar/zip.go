package columnar

import (
	"encoding/binary"
	"fmt"
)

// zipOuter coalesces two same-typed columns over outer-join tuples:
// the left value when the left index is present, otherwise the right.
// Null elements stay null.
func (ca *Chunked[T]) zipOuter(other Column, tuples []OuterTuple) (Column, error) {
	cb, ok := other.(*Chunked[T])
	if !ok {
		return nil, fmt.Errorf("%s vs %s: %w", ca.DataType(), other.DataType(), ErrTypeMismatch)
	}
	b := NewBuilder[T](ca.name, len(tuples))
	for _, t := range tuples {
		if t.Left.Valid {
			b.AppendOpt(ca.Get(int(t.Left.Idx)))
		} else {
			b.AppendOpt(cb.Get(int(t.Right.Idx)))
		}
	}
	return b.Finish(), nil
}

// appendKey packs element i into a composite byte key: a validity tag,
// then the scalar bit pattern or the length-prefixed string bytes.
// Null packs as the bare tag, so null keys equal null keys, matching the
// single-key equality semantics.
func (ca *Chunked[T]) appendKey(dst []byte, i int) ([]byte, error) {
	v, ok := ca.Get(i)
	if !ok {
		return append(dst, 0), nil
	}
	dst = append(dst, 1)
	if s, isStr := any(v).(string); isStr {
		dst = binary.AppendUvarint(dst, uint64(len(s)))
		return append(dst, s...), nil
	}
	return binary.BigEndian.AppendUint64(dst, scalarKey(v)), nil
}

// PackKeyColumn concatenates the given columns row-wise into one
// composite key column, so multi-key joins and groupings reuse the
// single-key algorithms unchanged. Key construction is single threaded.
func PackKeyColumn(cols []Column) (Column, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("pack key column: no columns: %w", ErrInvalidOperation)
	}
	n := cols[0].Len()
	for _, c := range cols[1:] {
		if c.Len() != n {
			return nil, fmt.Errorf("pack key column %q length %d vs %q length %d: %w",
				cols[0].Name(), n, c.Name(), c.Len(), ErrShapeMismatch)
		}
	}
	values := make([]string, n)
	var buf []byte
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for _, c := range cols {
			var err error
			buf, err = c.appendKey(buf, i)
			if err != nil {
				return nil, fmt.Errorf("pack key column %q: %w", c.Name(), err)
			}
		}
		values[i] = string(buf)
	}
	return NewChunked("__key", values), nil
}
