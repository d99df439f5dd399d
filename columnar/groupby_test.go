package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupByFirstValue[T Elem](t *testing.T, ca *Chunked[T], groups []Group) map[any][]uint32 {
	t.Helper()
	out := make(map[any][]uint32, len(groups))
	for _, g := range groups {
		v, ok := ca.Get(int(g.First))
		key := any(v)
		if !ok {
			key = nil
		}
		out[key] = append([]uint32(nil), g.Idx...)
	}
	return out
}

func TestGroupTuplesStrings(t *testing.T) {
	ca := NewChunked("day", []string{"mo", "mo", "tue"})

	groups, err := GroupTuples(ca)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byKey := groupByFirstValue(t, ca, groups)
	assert.Equal(t, []uint32{0, 1}, byKey["mo"])
	assert.Equal(t, []uint32{2}, byKey["tue"])
}

func TestGroupTuplesPartition(t *testing.T) {
	// Groups cover every row exactly once and First is a member.
	ca := NewChunked("v", []int64{4, 1, 4, 4, 2, 1, 9})

	groups, err := GroupTuples(ca)
	require.NoError(t, err)

	seen := map[uint32]bool{}
	for _, g := range groups {
		require.NotEmpty(t, g.Idx)
		assert.Equal(t, g.Idx[0], g.First)
		for _, i := range g.Idx {
			assert.False(t, seen[i], "row %d appears in two groups", i)
			seen[i] = true
			got, _ := ca.Get(int(i))
			want, _ := ca.Get(int(g.First))
			assert.Equal(t, want, got)
		}
	}
	assert.Len(t, seen, ca.Len())
}

func TestGroupTuplesNullGroup(t *testing.T) {
	ca, err := NewChunkedNullable("v", []int64{1, 0, 1, 0}, []bool{true, false, true, false})
	require.NoError(t, err)

	groups, err := GroupTuples(ca)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byKey := groupByFirstValue(t, ca, groups)
	assert.Equal(t, []uint32{0, 2}, byKey[int64(1)])
	assert.Equal(t, []uint32{1, 3}, byKey[nil])
}

func TestAggSum(t *testing.T) {
	ca := NewChunked("v", []int64{1, 2, 3, 4})
	groups := []Group{
		{First: 0, Idx: []uint32{0, 2}},
		{First: 1, Idx: []uint32{1, 3}},
	}

	out, err := AggSum(ca, groups)
	require.NoError(t, err)
	got := out.(*Chunked[int64])
	v, _ := got.Get(0)
	assert.Equal(t, int64(4), v)
	v, _ = got.Get(1)
	assert.Equal(t, int64(6), v)
}

func TestAggSumSkipsNulls(t *testing.T) {
	ca, err := NewChunkedNullable("v", []int64{1, 0, 3}, []bool{true, false, true})
	require.NoError(t, err)
	groups := []Group{{First: 0, Idx: []uint32{0, 1, 2}}}

	out, err := AggSum(ca, groups)
	require.NoError(t, err)
	v, ok := out.Value(0)
	assert.True(t, ok)
	assert.Equal(t, int64(4), v)
}

func TestAggMinMax(t *testing.T) {
	ca := NewChunked("v", []float64{2.5, -1.0, 7.25, 0})
	groups := []Group{{First: 0, Idx: []uint32{0, 1, 2, 3}}}

	out, err := AggMin(ca, groups)
	require.NoError(t, err)
	v, _ := out.Value(0)
	assert.Equal(t, -1.0, v)

	out, err = AggMax(ca, groups)
	require.NoError(t, err)
	v, _ = out.Value(0)
	assert.Equal(t, 7.25, v)
}

func TestAggMeanPromotesAndDividesByGroupSize(t *testing.T) {
	// Integer input becomes float64, and the divisor counts nulls.
	ca, err := NewChunkedNullable("v", []int64{4, 0, 2}, []bool{true, false, true})
	require.NoError(t, err)
	groups := []Group{{First: 0, Idx: []uint32{0, 1, 2}}}

	out, err := AggMean(ca, groups)
	require.NoError(t, err)
	require.Equal(t, Float64Type, out.DataType())
	v, ok := out.Value(0)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestAggAllNullGroup(t *testing.T) {
	ca, err := NewChunkedNullable("v", []int64{0, 0}, []bool{false, false})
	require.NoError(t, err)
	groups := []Group{{First: 0, Idx: []uint32{0, 1}}}

	for _, agg := range []func(Column, []Group) (Column, error){AggSum, AggMin, AggMax, AggMean} {
		out, err := agg(ca, groups)
		require.NoError(t, err)
		assert.True(t, out.IsNull(0))
	}
}

func TestAggCountIncludesNulls(t *testing.T) {
	ca, err := NewChunkedNullable("v", []string{"a", "", "b"}, []bool{true, false, true})
	require.NoError(t, err)
	groups := []Group{
		{First: 0, Idx: []uint32{0, 1}},
		{First: 2, Idx: []uint32{2}},
	}

	out, err := AggCount(ca, groups)
	require.NoError(t, err)
	v, _ := out.Value(0)
	assert.Equal(t, int64(2), v)
	v, _ = out.Value(1)
	assert.Equal(t, int64(1), v)
}

func TestAggRejectsNonNumeric(t *testing.T) {
	ca := NewChunked("v", []string{"a"})
	groups := []Group{{First: 0, Idx: []uint32{0}}}

	_, err := AggSum(ca, groups)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = AggMean(ca, groups)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}
