// Package frame provides the Frame: an ordered collection of equal
// length, uniquely named columns, with hash joins and group-by
// aggregation over them.
package frame

import (
	"fmt"
	"strings"

	"chunkframe/columnar"
)

// Frame holds shared references to its columns; taking or joining builds
// new columns without mutating the originals.
type Frame struct {
	columns []columnar.Column
}

// New builds a frame, validating that column names are unique and
// heights agree.
func New(cols ...columnar.Column) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	height := -1
	for _, c := range cols {
		if _, dup := seen[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column name %q: %w", c.Name(), columnar.ErrInvalidOperation)
		}
		seen[c.Name()] = struct{}{}
		if height == -1 {
			height = c.Len()
		} else if c.Len() != height {
			return nil, fmt.Errorf("column %q has length %d, frame height is %d: %w",
				c.Name(), c.Len(), height, columnar.ErrShapeMismatch)
		}
	}
	return &Frame{columns: cols}, nil
}

// newUnchecked skips validation; used internally where uniqueness and
// heights hold by construction.
func newUnchecked(cols []columnar.Column) *Frame {
	return &Frame{columns: cols}
}

// Height is the number of rows.
func (f *Frame) Height() int {
	if len(f.columns) == 0 {
		return 0
	}
	return f.columns[0].Len()
}

// Width is the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the column slice in order.
func (f *Frame) Columns() []columnar.Column { return f.columns }

// Column looks a column up by name.
func (f *Frame) Column(name string) (columnar.Column, error) {
	for _, c := range f.columns {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("column %q: %w", name, columnar.ErrNotFound)
}

// Select returns a new frame holding the named columns, in the given
// order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]columnar.Column, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns a new frame without the named columns. Unknown names are
// ignored, so dropping already-removed join keys is harmless.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]columnar.Column, 0, len(f.columns))
	for _, c := range f.columns {
		if _, gone := drop[c.Name()]; !gone {
			cols = append(cols, c)
		}
	}
	return newUnchecked(cols)
}

// WithColumn appends a column, replacing any existing column of the same
// name.
func (f *Frame) WithColumn(c columnar.Column) (*Frame, error) {
	if f.Width() > 0 && c.Len() != f.Height() {
		return nil, fmt.Errorf("column %q has length %d, frame height is %d: %w",
			c.Name(), c.Len(), f.Height(), columnar.ErrShapeMismatch)
	}
	cols := make([]columnar.Column, 0, len(f.columns)+1)
	for _, existing := range f.columns {
		if existing.Name() != c.Name() {
			cols = append(cols, existing)
		}
	}
	return newUnchecked(append(cols, c)), nil
}

// hstack appends columns from another frame of the same height.
func (f *Frame) hstack(cols []columnar.Column) (*Frame, error) {
	out := f
	var err error
	for _, c := range cols {
		out, err = out.WithColumn(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Equal reports whether two frames have the same column names, types and
// element values in the same order.
func (f *Frame) Equal(other *Frame) bool {
	if f.Width() != other.Width() || f.Height() != other.Height() {
		return false
	}
	for i, a := range f.columns {
		b := other.columns[i]
		if a.Name() != b.Name() || a.DataType() != b.DataType() {
			return false
		}
		for r := 0; r < a.Len(); r++ {
			av, aok := a.Value(r)
			bv, bok := b.Value(r)
			if aok != bok || (aok && av != bv) {
				return false
			}
		}
	}
	return true
}

// String renders a small plain-text table of the frame.
func (f *Frame) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(f.Names(), "\t"))
	sb.WriteByte('\n')
	for r := 0; r < f.Height(); r++ {
		for i, c := range f.columns {
			if i > 0 {
				sb.WriteByte('\t')
			}
			if v, ok := c.Value(r); ok {
				fmt.Fprintf(&sb, "%v", v)
			} else {
				sb.WriteString("null")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
