package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{0.4, 0.1, 0.8, 0.2})
	require.NoError(t, err)

	// values from pandas Series.describe()
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 0.375, s.Mean, 1e-9)
	assert.InDelta(t, 0.30956959368344517, s.Std, 1e-9)
	assert.InDelta(t, 0.1, s.Min, 1e-9)
	assert.InDelta(t, 0.175, s.P25, 1e-9)
	assert.InDelta(t, 0.3, s.P50, 1e-9)
	assert.InDelta(t, 0.5, s.P75, 1e-9)
	assert.InDelta(t, 0.8, s.Max, 1e-9)
}

func TestDescribe_SingleValue(t *testing.T) {
	s, err := Describe([]float64{0.7})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Zero(t, s.Std)
	assert.InDelta(t, 0.7, s.P25, 1e-9)
	assert.InDelta(t, 0.7, s.P75, 1e-9)
}

func TestDescribe_Empty(t *testing.T) {
	_, err := Describe(nil)
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestDescribe_DoesNotReorderInput(t *testing.T) {
	in := []float64{0.9, 0.1, 0.5}
	_, err := Describe(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, in)
}

func TestSummarize(t *testing.T) {
	ds, err := Load(fixture, "", "")
	require.NoError(t, err)

	s, err := Summarize(ds, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, 4, s.Score.Count)
	assert.Equal(t, 1, s.Missing["score"])

	require.Len(t, s.Head, 2)
	assert.Equal(t, 2, s.Head[0].Line)
	require.Len(t, s.Tail, 2)
	assert.Equal(t, 6, s.Tail[1].Line)

	require.Len(t, s.Lowest, 2)
	assert.Equal(t, "Man please", s.Lowest[0].Text)
	assert.InDelta(t, 0.2, s.Lowest[1].Score, 1e-9)

	require.Len(t, s.Highest, 2)
	assert.Equal(t, "You a lie, preacher", s.Highest[0].Text)
	assert.InDelta(t, 0.4, s.Highest[1].Score, 1e-9)
}

func TestSummarize_TopLargerThanData(t *testing.T) {
	ds, err := Load(fixture, "", "")
	require.NoError(t, err)

	s, err := Summarize(ds, 100)
	require.NoError(t, err)
	assert.Len(t, s.Head, 5)
	assert.Len(t, s.Lowest, 4)
	assert.Len(t, s.Highest, 4)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil, 1)
	assert.Error(t, err)

	_, err = Summarize(&Dataset{Rows: []*Row{{Line: 2, Missing: true}}}, 1)
	assert.ErrorIs(t, err, ErrNoScores)
}
