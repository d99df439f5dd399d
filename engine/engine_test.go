package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkframe/columnar"
	"chunkframe/frame"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	temps, err := frame.New(
		columnar.NewChunked("days", []int64{0, 1, 2}),
		columnar.NewChunked("temp", []float64{22.1, 19.9, 7.0}),
	)
	require.NoError(t, err)
	rains, err := frame.New(
		columnar.NewChunked("days", []int64{1, 2, 3, 1}),
		columnar.NewChunked("rain", []float64{0.1, 0.2, 0.3, 0.4}),
	)
	require.NoError(t, err)
	visits, err := frame.New(
		columnar.NewChunked("day", []string{"mo", "mo", "tue"}),
		columnar.NewChunked("visitors", []int64{10, 20, 5}),
	)
	require.NoError(t, err)

	eng := New()
	eng.Register("temps", temps)
	eng.Register("rains", rains)
	eng.Register("visits", visits)
	return eng
}

func TestExecuteSelect(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute("SELECT temp FROM temps")
	require.NoError(t, err)
	assert.Equal(t, []string{"temp"}, result.Names())
	assert.Equal(t, 3, result.Height())

	result, err = eng.Execute("SELECT * FROM temps")
	require.NoError(t, err)
	assert.Equal(t, []string{"days", "temp"}, result.Names())
}

func TestExecuteInnerJoin(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute(
		"SELECT * FROM temps JOIN rains ON temps.days = rains.days")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Height())
	assert.Equal(t, []string{"days", "temp", "rain"}, result.Names())
}

func TestExecuteJoinReversedCondition(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute(
		"SELECT * FROM temps t JOIN rains r ON r.days = t.days")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Height())
}

func TestExecuteLeftAndFullJoin(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute(
		"SELECT * FROM temps LEFT JOIN rains ON temps.days = rains.days")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Height())

	result, err = eng.Execute(
		"SELECT * FROM temps FULL OUTER JOIN rains ON temps.days = rains.days")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Height())
}

func TestExecuteGroupByCount(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute("SELECT day, count(*) FROM visits GROUP BY day")
	require.NoError(t, err)
	require.Equal(t, 2, result.Height())

	day, err := result.Column("day")
	require.NoError(t, err)
	count, err := result.Column("day_count")
	require.NoError(t, err)
	got := map[string]int64{}
	for i := 0; i < result.Height(); i++ {
		d, _ := day.Value(i)
		c, _ := count.Value(i)
		got[d.(string)] = c.(int64)
	}
	assert.Equal(t, map[string]int64{"mo": 2, "tue": 1}, got)
}

func TestExecuteGroupByAggregates(t *testing.T) {
	eng := testEngine(t)

	result, err := eng.Execute("SELECT day, sum(visitors) FROM visits GROUP BY day")
	require.NoError(t, err)
	sumCol, err := result.Column("visitors_sum")
	require.NoError(t, err)
	var total int64
	for i := 0; i < sumCol.Len(); i++ {
		v, _ := sumCol.Value(i)
		total += v.(int64)
	}
	assert.Equal(t, int64(35), total)

	result, err = eng.Execute("SELECT day, avg(visitors) FROM visits GROUP BY day")
	require.NoError(t, err)
	_, err = result.Column("visitors_mean")
	assert.NoError(t, err)
}

func TestExecuteErrors(t *testing.T) {
	eng := testEngine(t)

	_, err := eng.Execute("SELECT * FROM unknown")
	assert.ErrorIs(t, err, columnar.ErrNotFound)

	_, err = eng.Execute("DELETE FROM temps")
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)

	_, err = eng.Execute("SELECT day FROM visits GROUP BY day")
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)

	_, err = eng.Execute("not sql at all")
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	eng := testEngine(t)
	names := eng.Tables()
	sort.Strings(names)
	assert.Equal(t, []string{"rains", "temps", "visits"}, names)
}
