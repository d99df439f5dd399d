package frameio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkframe/columnar"
	"chunkframe/frame"
)

func sampleFrame(t *testing.T) *frame.Frame {
	t.Helper()
	scores, err := columnar.NewChunkedNullable("score", []float64{1.5, 0, 3.25},
		[]bool{true, false, true})
	require.NoError(t, err)
	f, err := frame.New(
		columnar.NewChunked("id", []int64{1, 2, 3}),
		columnar.NewChunked("name", []string{"ada", "", "grace"}),
		columnar.NewChunked("active", []bool{true, false, true}),
		scores,
	)
	require.NoError(t, err)
	return f
}

func TestSnapshotRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.snap")
	want := sampleFrame(t)

	require.NoError(t, WriteSnapshot(path, want))
	got, err := ReadSnapshot(path)
	require.NoError(t, err)

	assert.True(t, want.Equal(got))
	score, err := got.Column("score")
	require.NoError(t, err)
	assert.Equal(t, 1, score.NullCount())
	assert.True(t, score.IsNull(1))
}

func TestSnapshotRejectsListColumns(t *testing.T) {
	f, err := frame.New(columnar.NewLists("l", [][]any{{int64(1)}}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bad.snap")
	err = WriteSnapshot(path, f)
	assert.ErrorIs(t, err, columnar.ErrInvalidOperation)
}

func TestSnapshotRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-snapshot")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := ReadSnapshot(path)
	assert.Error(t, err)
}
