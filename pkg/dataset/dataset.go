package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultTextColumn  = "text"
	DefaultScoreColumn = "score"

	byteOrderMark = "\ufeff"
)

// ErrColumnNotFound is returned when a requested column is not in the header.
var ErrColumnNotFound = errors.New("column not found")

// Row is one CSV record reduced to its text and score cells.
// Line is the 1-based line number in the source file.
type Row struct {
	Line    int     `json:"line" yaml:"line"`
	Text    string  `json:"text" yaml:"text"`
	Score   float64 `json:"score" yaml:"score"`
	Missing bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Dataset holds the parsed rows plus the empty-cell count of every column.
type Dataset struct {
	Columns []string
	Rows    []*Row
	Missing map[string]int
}

// Load reads a CSV file with a header row.
func Load(path, textColumn, scoreColumn string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	ds, err := Parse(file, textColumn, scoreColumn)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, nil
}

// Parse reads CSV from r. Empty cells count as missing. A score cell that
// is not a number fails with the line it appears on.
func Parse(r io.Reader, textColumn, scoreColumn string) (*Dataset, error) {
	if textColumn == "" {
		textColumn = DefaultTextColumn
	}
	if scoreColumn == "" {
		scoreColumn = DefaultScoreColumn
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	textIdx := slices.Index(header, textColumn)
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: %s (have %v)", ErrColumnNotFound, textColumn, header)
	}
	scoreIdx := slices.Index(header, scoreColumn)
	if scoreIdx < 0 {
		return nil, fmt.Errorf("%w: %s (have %v)", ErrColumnNotFound, scoreColumn, header)
	}

	ds := &Dataset{
		Columns: header,
		Rows:    make([]*Row, 0),
		Missing: make(map[string]int, len(header)),
	}
	for _, c := range header {
		ds.Missing[c] = 0
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		for i, cell := range rec {
			if strings.TrimSpace(cell) == "" {
				ds.Missing[header[i]]++
			}
		}

		row := &Row{Line: line, Text: rec[textIdx]}
		cell := strings.TrimSpace(rec[scoreIdx])
		if cell == "" {
			row.Missing = true
		} else {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s value %q: %w", line, scoreColumn, cell, err)
			}
			if math.IsNaN(v) {
				row.Missing = true
				ds.Missing[scoreColumn]++
			} else {
				row.Score = v
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}
