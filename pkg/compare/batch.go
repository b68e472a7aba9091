package compare

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	commentPrefix = "#"
	byteOrderMark = "\ufeff"
	maxLineBytes  = 1 << 20
)

// ErrEmptyBatchFile is returned when a batch file holds no phrases.
var ErrEmptyBatchFile = errors.New("batch file contains no phrases")

// ErrInvalidEncoding is returned for a line that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8")

// Group is a named batch read from a batch file.
type Group struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Batch Batch  `json:"batch" yaml:"batch"`
}

// ReadBatchFile parses the groups of the file at path.
func ReadBatchFile(path string) ([]*Group, error) {
	if path == "" {
		return nil, errors.New("batch file path required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening batch file %s: %w", path, err)
	}
	defer f.Close()

	groups, err := ParseBatches(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing batch file %s: %w", path, err)
	}
	return groups, nil
}

// ParseBatches reads newline-delimited phrases. Blank lines separate groups,
// a leading "# title" line names its group and any later "#" line is skipped.
func ParseBatches(r io.Reader) ([]*Group, error) {
	groups := make([]*Group, 0)
	var cur *Group

	flush := func() {
		if cur != nil && len(cur.Batch) > 0 {
			groups = append(groups, cur)
		}
		cur = nil
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for n := 1; s.Scan(); n++ {
		raw := s.Text()
		if n == 1 {
			raw = strings.TrimPrefix(raw, byteOrderMark)
		}
		if !utf8.ValidString(raw) {
			return nil, fmt.Errorf("line %d: %w", n, ErrInvalidEncoding)
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}

		if cur == nil {
			cur = &Group{Batch: make(Batch, 0)}
		}

		if strings.HasPrefix(line, commentPrefix) {
			if len(cur.Batch) == 0 && cur.Name == "" {
				cur.Name = strings.TrimSpace(strings.TrimPrefix(line, commentPrefix))
			}
			continue
		}

		cur.Batch = append(cur.Batch, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("error reading batches: %w", err)
	}
	flush()

	if len(groups) == 0 {
		return nil, ErrEmptyBatchFile
	}
	return groups, nil
}
