package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/mchmarny/biascheck/pkg/dataset"
	urfave "github.com/urfave/cli/v3"
)

const (
	fileFlag        = "file"
	textColumnFlag  = "text-column"
	scoreColumnFlag = "score-column"
	topFlag         = "top"
)

func newDescribeCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "describe",
		Usage: "Prints descriptive statistics of a pre-scored comments CSV",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     fileFlag,
				Usage:    "Path to the CSV file with a header row",
				Required: true,
			},
			&urfave.StringFlag{
				Name:  textColumnFlag,
				Usage: "Name of the comment text column",
				Value: dataset.DefaultTextColumn,
			},
			&urfave.StringFlag{
				Name:  scoreColumnFlag,
				Usage: "Name of the numeric score column",
				Value: dataset.DefaultScoreColumn,
			},
			&urfave.IntFlag{
				Name:  topFlag,
				Usage: "Number of rows listed at each end",
				Value: dataset.DefaultTop,
			},
			newPrecisionFlag(),
		},
		Action: cmdDescribe,
	}
}

func cmdDescribe(_ context.Context, cmd *urfave.Command) error {
	ds, err := dataset.Load(cmd.String(fileFlag), cmd.String(textColumnFlag), cmd.String(scoreColumnFlag))
	if err != nil {
		return err
	}

	s, err := dataset.Summarize(ds, int(cmd.Int(topFlag)))
	if err != nil {
		return fmt.Errorf("describing %s: %w", cmd.String(fileFlag), err)
	}

	cfg := getConfig(cmd)
	w := writer(cmd)
	if cfg.Format != formatTable {
		return encode(w, cfg.Format, s)
	}

	precision := int(cmd.Int(precisionFlag))
	fmt.Fprintf(w, "Rows: %d\n\nMissing values\n", s.Rows)
	missing := newTable(w, "Column", "Missing")
	for _, c := range s.Columns {
		missing.Append([]string{c, strconv.Itoa(s.Missing[c])})
	}
	missing.Render()

	fmt.Fprintf(w, "\nScore (%s)\n", cmd.String(scoreColumnFlag))
	stats := newTable(w, "Stat", "Value")
	stats.AppendBulk([][]string{
		{"count", strconv.Itoa(s.Score.Count)},
		{"mean", formatScore(s.Score.Mean, precision)},
		{"std", formatScore(s.Score.Std, precision)},
		{"min", formatScore(s.Score.Min, precision)},
		{"25%", formatScore(s.Score.P25, precision)},
		{"50%", formatScore(s.Score.P50, precision)},
		{"75%", formatScore(s.Score.P75, precision)},
		{"max", formatScore(s.Score.Max, precision)},
	})
	stats.Render()

	printRows(w, "Head", s.Head, precision)
	printRows(w, "Tail", s.Tail, precision)
	printRows(w, "Lowest", s.Lowest, precision)
	printRows(w, "Highest", s.Highest, precision)
	return nil
}

func printRows(w io.Writer, title string, rows []*dataset.Row, precision int) {
	fmt.Fprintf(w, "\n%s\n", title)
	table := newTable(w, "Line", "Text", "Score")
	for _, r := range rows {
		v := "NaN"
		if !r.Missing {
			v = formatScore(r.Score, precision)
		}
		table.Append([]string{strconv.Itoa(r.Line), r.Text, v})
	}
	table.Render()
}
