package frame

import (
	"fmt"

	"chunkframe/columnar"
)

// GroupBy holds the group descriptors of one grouping column, plus the
// column selected for aggregation.
type GroupBy struct {
	f         *Frame
	by        string
	groups    []columnar.Group
	selection string
}

// GroupBy groups the frame by the named column. Group order is
// unspecified; every row belongs to exactly one group.
func (f *Frame) GroupBy(by string) (*GroupBy, error) {
	c, err := f.Column(by)
	if err != nil {
		return nil, err
	}
	groups, err := columnar.GroupTuples(c)
	if err != nil {
		return nil, err
	}
	return &GroupBy{f: f, by: by, groups: groups}, nil
}

// Select picks the column the next aggregation runs over.
func (g *GroupBy) Select(name string) *GroupBy {
	g.selection = name
	return g
}

// Groups exposes the group descriptors (first index, all indices).
func (g *GroupBy) Groups() []columnar.Group { return g.groups }

// keys gathers the grouping column at each group's first row index.
func (g *GroupBy) keys() columnar.Column {
	byCol, _ := g.f.Column(g.by)
	firsts := make([]uint32, len(g.groups))
	for i, grp := range g.groups {
		firsts[i] = grp.First
	}
	return columnar.TakeIdx(byCol, firsts)
}

func (g *GroupBy) prepareAgg() (columnar.Column, columnar.Column, error) {
	if g.selection == "" {
		return nil, nil, fmt.Errorf("groupby aggregation without a selected column: %w",
			columnar.ErrInvalidOperation)
	}
	aggCol, err := g.f.Column(g.selection)
	if err != nil {
		return nil, nil, err
	}
	return g.keys(), aggCol, nil
}

func (g *GroupBy) finishAgg(keys, agg columnar.Column, suffix string, err error) (*Frame, error) {
	if err != nil {
		return nil, err
	}
	agg.Rename(g.selection + "_" + suffix)
	return New(keys, agg)
}

// Sum aggregates the selected column to its per-group sum.
func (g *GroupBy) Sum() (*Frame, error) {
	keys, aggCol, err := g.prepareAgg()
	if err != nil {
		return nil, err
	}
	agg, err := columnar.AggSum(aggCol, g.groups)
	return g.finishAgg(keys, agg, "sum", err)
}

// Mean aggregates the selected column to its per-group mean; integer
// columns promote to float64.
func (g *GroupBy) Mean() (*Frame, error) {
	keys, aggCol, err := g.prepareAgg()
	if err != nil {
		return nil, err
	}
	agg, err := columnar.AggMean(aggCol, g.groups)
	return g.finishAgg(keys, agg, "mean", err)
}

// Min aggregates the selected column to its per-group minimum.
func (g *GroupBy) Min() (*Frame, error) {
	keys, aggCol, err := g.prepareAgg()
	if err != nil {
		return nil, err
	}
	agg, err := columnar.AggMin(aggCol, g.groups)
	return g.finishAgg(keys, agg, "min", err)
}

// Max aggregates the selected column to its per-group maximum.
func (g *GroupBy) Max() (*Frame, error) {
	keys, aggCol, err := g.prepareAgg()
	if err != nil {
		return nil, err
	}
	agg, err := columnar.AggMax(aggCol, g.groups)
	return g.finishAgg(keys, agg, "max", err)
}

// Count aggregates to the number of rows per group, nulls included.
func (g *GroupBy) Count() (*Frame, error) {
	keys, aggCol, err := g.prepareAgg()
	if err != nil {
		return nil, err
	}
	agg, err := columnar.AggCount(aggCol, g.groups)
	return g.finishAgg(keys, agg, "count", err)
}
