package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkframe/columnar"
)

func weatherFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		columnar.NewChunked("day", []string{"mo", "mo", "tue", "wed", "tue"}),
		columnar.NewChunked("rain", []float64{0.1, 0.4, 0.0, 1.2, 0.8}),
		columnar.NewChunked("visitors", []int64{12, 9, 30, 2, 20}),
	)
	require.NoError(t, err)
	return f
}

// aggMap flattens a two-column aggregation result to key -> value.
func aggMap(t *testing.T, f *Frame, key, val string) map[any]any {
	t.Helper()
	kc, err := f.Column(key)
	require.NoError(t, err)
	vc, err := f.Column(val)
	require.NoError(t, err)

	out := make(map[any]any, f.Height())
	for i := 0; i < f.Height(); i++ {
		k, ok := kc.Value(i)
		require.True(t, ok)
		v, valid := vc.Value(i)
		if !valid {
			v = nil
		}
		out[k] = v
	}
	return out
}

func TestGroupByCount(t *testing.T) {
	f, err := New(columnar.NewChunked("day", []string{"mo", "mo", "tue"}))
	require.NoError(t, err)

	gb, err := f.GroupBy("day")
	require.NoError(t, err)
	result, err := gb.Select("day").Count()
	require.NoError(t, err)

	require.Equal(t, 2, result.Height())
	assert.Equal(t, map[any]any{"mo": int64(2), "tue": int64(1)},
		aggMap(t, result, "day", "day_count"))
}

func TestGroupBySum(t *testing.T) {
	gb, err := weatherFrame(t).GroupBy("day")
	require.NoError(t, err)
	result, err := gb.Select("visitors").Sum()
	require.NoError(t, err)

	assert.Equal(t, map[any]any{
		"mo":  int64(21),
		"tue": int64(50),
		"wed": int64(2),
	}, aggMap(t, result, "day", "visitors_sum"))
}

func TestGroupByMeanPromotesInts(t *testing.T) {
	gb, err := weatherFrame(t).GroupBy("day")
	require.NoError(t, err)
	result, err := gb.Select("visitors").Mean()
	require.NoError(t, err)

	meanCol, err := result.Column("visitors_mean")
	require.NoError(t, err)
	require.Equal(t, columnar.Float64Type, meanCol.DataType())
	assert.Equal(t, map[any]any{
		"mo":  10.5,
		"tue": 25.0,
		"wed": 2.0,
	}, aggMap(t, result, "day", "visitors_mean"))
}

func TestGroupByMinMax(t *testing.T) {
	gb, err := weatherFrame(t).GroupBy("day")
	require.NoError(t, err)

	result, err := gb.Select("rain").Min()
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"mo": 0.1, "tue": 0.0, "wed": 1.2},
		aggMap(t, result, "day", "rain_min"))

	result, err = gb.Select("rain").Max()
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"mo": 0.4, "tue": 0.8, "wed": 1.2},
		aggMap(t, result, "day", "rain_max"))
}

func TestGroupByNullableAggColumn(t *testing.T) {
	vals, err := columnar.NewChunkedNullable("v", []int64{5, 0, 7, 0},
		[]bool{true, false, true, false})
	require.NoError(t, err)
	f, err := New(
		columnar.NewChunked("g", []string{"a", "a", "b", "b"}),
		vals,
	)
	require.NoError(t, err)

	gb, err := f.GroupBy("g")
	require.NoError(t, err)

	result, err := gb.Select("v").Sum()
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": int64(5), "b": int64(7)},
		aggMap(t, result, "g", "v_sum"))

	// Count ignores validity: every group has two rows.
	result, err = gb.Select("v").Count()
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": int64(2), "b": int64(2)},
		aggMap(t, result, "g", "v_count"))

	// Mean divides by the full group size.
	result, err = gb.Select("v").Mean()
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": 2.5, "b": 3.5},
		aggMap(t, result, "g", "v_mean"))
}

func TestGroupByRowPartition(t *testing.T) {
	f := weatherFrame(t)
	gb, err := f.GroupBy("day")
	require.NoError(t, err)

	total := 0
	for _, g := range gb.Groups() {
		total += len(g.Idx)
	}
	assert.Equal(t, f.Height(), total)
}

func TestGroupByWithoutSelection(t *testing.T) {
	gb, err := weatherFrame(t).GroupBy("day")
	require.NoError(t, err)

	_, err = gb.Sum()
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)
}

func TestGroupByUnknownColumns(t *testing.T) {
	_, err := weatherFrame(t).GroupBy("nope")
	assert.ErrorIs(t, err, columnar.ErrNotFound)

	gb, err := weatherFrame(t).GroupBy("day")
	require.NoError(t, err)
	_, err = gb.Select("nope").Sum()
	assert.ErrorIs(t, err, columnar.ErrNotFound)
}

func TestGroupByNonNumericAggregation(t *testing.T) {
	gb, err := weatherFrame(t).GroupBy("rain")
	require.NoError(t, err)
	_, err = gb.Select("day").Sum()
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)
}
