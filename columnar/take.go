package columnar

import "fmt"

// Take gathers the referenced values into a new column. Every index is
// validated against the column length.
func (ca *Chunked[T]) Take(indices []int) (Column, error) {
	for _, i := range indices {
		if i < 0 || i >= ca.length {
			return nil, fmt.Errorf("take index %d on column %q of length %d: %w",
				i, ca.name, ca.length, ErrOutOfBounds)
		}
	}
	b := NewBuilder[T](ca.name, len(indices))
	for _, i := range indices {
		b.AppendOpt(ca.Get(i))
	}
	return b.Finish(), nil
}

// TakeOpt gathers by optional index: tuples without a valid index
// produce null elements. Valid indices are bounds checked.
func (ca *Chunked[T]) TakeOpt(indices []OptIndex) (Column, error) {
	for _, oi := range indices {
		if oi.Valid && int(oi.Idx) >= ca.length {
			return nil, fmt.Errorf("take index %d on column %q of length %d: %w",
				oi.Idx, ca.name, ca.length, ErrOutOfBounds)
		}
	}
	return ca.takeOpt(indices), nil
}

// TakeIdx gathers without bounds checks. It exists for callers that hold
// indices valid by construction, such as join tuple output; anything
// else belongs on Take.
func TakeIdx(c Column, indices []uint32) Column {
	return c.takeIdx(indices)
}

// TakeOptIdx is the unchecked optional-index counterpart of TakeIdx.
func TakeOptIdx(c Column, indices []OptIndex) Column {
	return c.takeOpt(indices)
}

// takeIdx is the unchecked gather used after joins, where indices are
// valid by construction. A contiguous no-null column gathers straight
// from its backing slice.
func (ca *Chunked[T]) takeIdx(indices []uint32) Column {
	if s, ok := ca.ContiguousSlice(); ok {
		values := make([]T, len(indices))
		for j, i := range indices {
			values[j] = s[i]
		}
		out := NewChunked(ca.name, values)
		return out
	}
	b := NewBuilder[T](ca.name, len(indices))
	for _, i := range indices {
		b.AppendOpt(ca.Get(int(i)))
	}
	return b.Finish()
}

// takeOpt is the unchecked optional-index gather; absent indices become
// nulls.
func (ca *Chunked[T]) takeOpt(indices []OptIndex) Column {
	b := NewBuilder[T](ca.name, len(indices))
	for _, oi := range indices {
		if !oi.Valid {
			b.AppendNull()
			continue
		}
		b.AppendOpt(ca.Get(int(oi.Idx)))
	}
	return b.Finish()
}
