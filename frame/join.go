package frame

import (
	"fmt"
	"sync"

	"chunkframe/columnar"
)

// JoinType selects the join algorithm.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	OuterJoin
)

func (jt JoinType) String() string {
	switch jt {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case OuterJoin:
		return "outer"
	default:
		return fmt.Sprintf("unknown(%d)", int(jt))
	}
}

// Join joins two frames on one or more key column pairs. Multi-key joins
// pack the key columns into a composite key and reuse the single-key
// algorithms. Non-key right columns whose names collide with left names
// are renamed with a "_right" suffix.
func (f *Frame) Join(other *Frame, leftOn, rightOn []string, how JoinType) (*Frame, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("join on %d left and %d right key columns: %w",
			len(leftOn), len(rightOn), columnar.ErrShapeMismatch)
	}

	selectedLeft, err := f.selectColumns(leftOn)
	if err != nil {
		return nil, err
	}
	selectedRight, err := other.selectColumns(rightOn)
	if err != nil {
		return nil, err
	}

	keyLeft, keyRight := selectedLeft[0], selectedRight[0]
	if len(selectedLeft) > 1 {
		if keyLeft, err = columnar.PackKeyColumn(selectedLeft); err != nil {
			return nil, err
		}
		if keyRight, err = columnar.PackKeyColumn(selectedRight); err != nil {
			return nil, err
		}
	}

	switch how {
	case InnerJoin:
		return f.innerJoinFrom(other, keyLeft, keyRight, rightOn)
	case LeftJoin:
		return f.leftJoinFrom(other, keyLeft, keyRight, rightOn)
	case OuterJoin:
		return f.outerJoinFrom(other, selectedLeft, selectedRight, keyLeft, keyRight, leftOn, rightOn)
	default:
		return nil, fmt.Errorf("join type %s: %w", how, columnar.ErrInvalidOperation)
	}
}

// InnerJoin joins on a single key column pair.
func (f *Frame) InnerJoin(other *Frame, leftOn, rightOn string) (*Frame, error) {
	return f.Join(other, []string{leftOn}, []string{rightOn}, InnerJoin)
}

// LeftJoin joins on a single key column pair, keeping every left row.
func (f *Frame) LeftJoin(other *Frame, leftOn, rightOn string) (*Frame, error) {
	return f.Join(other, []string{leftOn}, []string{rightOn}, LeftJoin)
}

// OuterJoin joins on a single key column pair, keeping every row from
// both sides.
func (f *Frame) OuterJoin(other *Frame, leftOn, rightOn string) (*Frame, error) {
	return f.Join(other, []string{leftOn}, []string{rightOn}, OuterJoin)
}

func (f *Frame) selectColumns(names []string) ([]columnar.Column, error) {
	cols := make([]columnar.Column, len(names))
	for i, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

func (f *Frame) innerJoinFrom(other *Frame, keyLeft, keyRight columnar.Column, rightOn []string) (*Frame, error) {
	tuples, err := columnar.InnerJoinTuples(keyLeft, keyRight)
	if err != nil {
		return nil, err
	}
	lefts := make([]uint32, len(tuples))
	rights := make([]uint32, len(tuples))
	for i, t := range tuples {
		lefts[i] = t.Left
		rights[i] = t.Right
	}

	// Gather both sides concurrently; the join columns of the right
	// frame are dropped, the left keeps its own.
	var dfLeft, dfRight *Frame
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dfLeft = f.takeIdx(lefts)
	}()
	go func() {
		defer wg.Done()
		dfRight = other.Drop(rightOn...).takeIdx(rights)
	}()
	wg.Wait()
	return finishJoin(dfLeft, dfRight)
}

func (f *Frame) leftJoinFrom(other *Frame, keyLeft, keyRight columnar.Column, rightOn []string) (*Frame, error) {
	tuples, err := columnar.LeftJoinTuples(keyLeft, keyRight)
	if err != nil {
		return nil, err
	}
	rights := make([]columnar.OptIndex, len(tuples))
	for i, t := range tuples {
		rights[i] = t.Right
	}

	var dfLeft, dfRight *Frame
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dfLeft = f.takeLeftOfTuples(tuples)
	}()
	go func() {
		defer wg.Done()
		dfRight = other.Drop(rightOn...).takeOpt(rights)
	}()
	wg.Wait()
	return finishJoin(dfLeft, dfRight)
}

func (f *Frame) outerJoinFrom(other *Frame, selectedLeft, selectedRight []columnar.Column,
	keyLeft, keyRight columnar.Column, leftOn, rightOn []string) (*Frame, error) {
	tuples, err := columnar.OuterJoinTuples(keyLeft, keyRight)
	if err != nil {
		return nil, err
	}
	lefts := make([]columnar.OptIndex, len(tuples))
	rights := make([]columnar.OptIndex, len(tuples))
	for i, t := range tuples {
		lefts[i] = t.Left
		rights[i] = t.Right
	}

	// Both key columns are dropped and replaced by zipped key columns
	// covering the rows of both sides.
	var dfLeft, dfRight *Frame
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dfLeft = f.Drop(leftOn...).takeOpt(lefts)
	}()
	go func() {
		defer wg.Done()
		dfRight = other.Drop(rightOn...).takeOpt(rights)
	}()
	wg.Wait()

	for i, sLeft := range selectedLeft {
		zipped, err := columnar.ZipOuterJoinColumn(sLeft, selectedRight[i], tuples)
		if err != nil {
			return nil, err
		}
		zipped.Rename(sLeft.Name())
		if dfLeft, err = dfLeft.WithColumn(zipped); err != nil {
			return nil, err
		}
	}
	return finishJoin(dfLeft, dfRight)
}

// takeLeftOfTuples materializes the left side of a left join. A left
// join that produced exactly one tuple per left row keeps the original
// columns; rows are already in order and shared references are cheap.
func (f *Frame) takeLeftOfTuples(tuples []columnar.LeftTuple) *Frame {
	if len(tuples) == f.Height() {
		return newUnchecked(f.columns)
	}
	lefts := make([]uint32, len(tuples))
	for i, t := range tuples {
		lefts[i] = t.Left
	}
	return f.takeIdx(lefts)
}

// takeIdx gathers every column by the same indices. Indices come from
// join tuples and are valid by construction.
func (f *Frame) takeIdx(indices []uint32) *Frame {
	cols := make([]columnar.Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = columnar.TakeIdx(c, indices)
	}
	return newUnchecked(cols)
}

func (f *Frame) takeOpt(indices []columnar.OptIndex) *Frame {
	cols := make([]columnar.Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = columnar.TakeOptIdx(c, indices)
	}
	return newUnchecked(cols)
}

// finishJoin renames colliding right columns with a "_right" suffix and
// stitches the two halves into one frame.
func finishJoin(dfLeft, dfRight *Frame) (*Frame, error) {
	leftNames := make(map[string]struct{}, dfLeft.Width())
	for _, name := range dfLeft.Names() {
		leftNames[name] = struct{}{}
	}
	cols := make([]columnar.Column, 0, dfRight.Width())
	for _, c := range dfRight.Columns() {
		if _, collides := leftNames[c.Name()]; collides {
			c.Rename(c.Name() + "_right")
		}
		cols = append(cols, c)
	}
	return dfLeft.hstack(cols)
}
