package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/comments.csv"

func TestLoad(t *testing.T) {
	ds, err := Load(fixture, "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"text", "label", "score"}, ds.Columns)
	require.Len(t, ds.Rows, 5)
	assert.Equal(t, map[string]int{"text": 1, "label": 0, "score": 1}, ds.Missing)

	first := ds.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Girl, please!", first.Text)
	assert.InDelta(t, 0.4, first.Score, 1e-9)

	last := ds.Rows[4]
	assert.Equal(t, "Bless your heart", last.Text)
	assert.True(t, last.Missing)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.csv", "", "")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		text   string
		score  string
		errMsg string
	}{
		{"empty input", "", "", "", "missing header"},
		{"no text column", "comment,score\na,0.1\n", "", "", "column not found"},
		{"no score column", "text,value\na,0.1\n", "", "", "column not found"},
		{"bad score", "text,score\na,0.1\nb,high\n", "", "", "line 3"},
		{"ragged row", "text,score\na,0.1,extra\n", "", "", "failed to read record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.text, tt.score)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestParse_CustomColumns(t *testing.T) {
	in := "comment,toxicity\nhello,0.05\nworld,NaN\n"
	ds, err := Parse(strings.NewReader(in), "comment", "toxicity")
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "hello", ds.Rows[0].Text)
	assert.True(t, ds.Rows[1].Missing)
	assert.Equal(t, 1, ds.Missing["toxicity"])
}

func TestParse_ByteOrderMark(t *testing.T) {
	in := "\ufefftext,score\nhi,0.1\n"
	ds, err := Parse(strings.NewReader(in), "", "")
	require.NoError(t, err)
	assert.Equal(t, "text", ds.Columns[0])
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "hi", ds.Rows[0].Text)
}
