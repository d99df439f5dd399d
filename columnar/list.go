package columnar

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Lists is a column of variable-length value lists. Lists support gather
// and frame membership but are not joinable, groupable or aggregatable;
// those operations report ErrInvalidOperation.
type Lists struct {
	name   string
	values [][]any
	nulls  *roaring.Bitmap
}

func NewLists(name string, values [][]any) *Lists {
	return &Lists{name: name, values: values}
}

func (ls *Lists) Name() string       { return ls.name }
func (ls *Lists) Rename(name string) { ls.name = name }
func (ls *Lists) Len() int           { return len(ls.values) }
func (ls *Lists) DataType() DataType { return ListType }

func (ls *Lists) NullCount() int {
	if ls.nulls == nil {
		return 0
	}
	return int(ls.nulls.GetCardinality())
}

func (ls *Lists) IsNull(i int) bool {
	return ls.nulls != nil && ls.nulls.Contains(uint32(i))
}

func (ls *Lists) Value(i int) (any, bool) {
	if ls.IsNull(i) {
		return nil, false
	}
	return ls.values[i], true
}

func (ls *Lists) Take(indices []int) (Column, error) {
	for _, i := range indices {
		if i < 0 || i >= len(ls.values) {
			return nil, fmt.Errorf("take index %d on column %q of length %d: %w",
				i, ls.name, len(ls.values), ErrOutOfBounds)
		}
	}
	idx := make([]uint32, len(indices))
	for j, i := range indices {
		idx[j] = uint32(i)
	}
	return ls.takeIdx(idx), nil
}

func (ls *Lists) TakeOpt(indices []OptIndex) (Column, error) {
	for _, oi := range indices {
		if oi.Valid && int(oi.Idx) >= len(ls.values) {
			return nil, fmt.Errorf("take index %d on column %q of length %d: %w",
				oi.Idx, ls.name, len(ls.values), ErrOutOfBounds)
		}
	}
	return ls.takeOpt(indices), nil
}

func (ls *Lists) takeIdx(indices []uint32) Column {
	out := &Lists{name: ls.name, values: make([][]any, 0, len(indices))}
	for j, i := range indices {
		if ls.IsNull(int(i)) {
			if out.nulls == nil {
				out.nulls = roaring.New()
			}
			out.nulls.Add(uint32(j))
			out.values = append(out.values, nil)
			continue
		}
		out.values = append(out.values, ls.values[i])
	}
	return out
}

func (ls *Lists) takeOpt(indices []OptIndex) Column {
	out := &Lists{name: ls.name, values: make([][]any, 0, len(indices))}
	for j, oi := range indices {
		if !oi.Valid || ls.IsNull(int(oi.Idx)) {
			if out.nulls == nil {
				out.nulls = roaring.New()
			}
			out.nulls.Add(uint32(j))
			out.values = append(out.values, nil)
			continue
		}
		out.values = append(out.values, ls.values[oi.Idx])
	}
	return out
}

func (ls *Lists) joinInner(Column, bool) ([]Pair, error) {
	return nil, fmt.Errorf("cannot join on list column %q: %w", ls.name, ErrInvalidOperation)
}

func (ls *Lists) joinLeft(Column) ([]LeftTuple, error) {
	return nil, fmt.Errorf("cannot join on list column %q: %w", ls.name, ErrInvalidOperation)
}

func (ls *Lists) joinOuter(Column, bool) ([]OuterTuple, error) {
	return nil, fmt.Errorf("cannot join on list column %q: %w", ls.name, ErrInvalidOperation)
}

func (ls *Lists) groupTuples() ([]Group, error) {
	return nil, fmt.Errorf("cannot group by list column %q: %w", ls.name, ErrInvalidOperation)
}

func (ls *Lists) zipOuter(Column, []OuterTuple) (Column, error) {
	return nil, fmt.Errorf("cannot zip list column %q: %w", ls.name, ErrInvalidOperation)
}

func (ls *Lists) appendKey([]byte, int) ([]byte, error) {
	return nil, fmt.Errorf("cannot use list column %q as join key: %w", ls.name, ErrInvalidOperation)
}
