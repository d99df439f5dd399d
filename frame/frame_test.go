package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkframe/columnar"
)

func TestNewValidatesShape(t *testing.T) {
	_, err := New(
		columnar.NewChunked("a", []int64{1, 2}),
		columnar.NewChunked("b", []int64{1}),
	)
	assert.ErrorIs(t, err, columnar.ErrShapeMismatch)

	_, err = New(
		columnar.NewChunked("a", []int64{1}),
		columnar.NewChunked("a", []int64{2}),
	)
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)
}

func TestSelectAndDrop(t *testing.T) {
	f, err := New(
		columnar.NewChunked("a", []int64{1}),
		columnar.NewChunked("b", []int64{2}),
		columnar.NewChunked("c", []int64{3}),
	)
	require.NoError(t, err)

	sel, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.Names())

	_, err = f.Select("missing")
	assert.ErrorIs(t, err, columnar.ErrNotFound)

	// Drop ignores unknown names.
	dropped := f.Drop("b", "missing")
	assert.Equal(t, []string{"a", "c"}, dropped.Names())
}

func TestWithColumnReplaces(t *testing.T) {
	f, err := New(columnar.NewChunked("a", []int64{1, 2}))
	require.NoError(t, err)

	f2, err := f.WithColumn(columnar.NewChunked("b", []string{"x", "y"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f2.Names())

	f3, err := f2.WithColumn(columnar.NewChunked("a", []int64{9, 9}))
	require.NoError(t, err)
	assert.Equal(t, 2, f3.Width())
	a, err := f3.Column("a")
	require.NoError(t, err)
	v, _ := a.Value(0)
	assert.Equal(t, int64(9), v)

	_, err = f2.WithColumn(columnar.NewChunked("c", []int64{1}))
	assert.ErrorIs(t, err, columnar.ErrShapeMismatch)
}

func TestFrameEqual(t *testing.T) {
	a, err := New(
		columnar.NewChunked("x", []int64{1, 2}),
		columnar.NewChunked("y", []string{"p", "q"}),
	)
	require.NoError(t, err)
	b, err := New(
		columnar.NewChunked("x", []int64{1, 2}),
		columnar.NewChunked("y", []string{"p", "q"}),
	)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := New(
		columnar.NewChunked("x", []int64{1, 3}),
		columnar.NewChunked("y", []string{"p", "q"}),
	)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
