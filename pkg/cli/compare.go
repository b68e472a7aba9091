package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/biascheck/pkg/compare"
	"github.com/mchmarny/biascheck/pkg/data"
	"github.com/mchmarny/biascheck/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

const (
	batchFileFlag = "batch-file"
	saveFlag      = "save"
)

// groupReport is the structured output of one compared group.
type groupReport struct {
	Group  int            `json:"group" yaml:"group"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Result compare.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  *itemReport    `json:"error,omitempty" yaml:"error,omitempty"`
}

type itemReport struct {
	Input   int    `json:"input" yaml:"input"`
	Comment string `json:"comment" yaml:"comment"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

func newCompareCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "compare",
		Usage: "Scores every group of phrase variants in a batch file",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     batchFileFlag,
				Usage:    "Path to the batch file, one phrase per line and groups separated by blank lines",
				Required: true,
			},
			&urfave.BoolFlag{
				Name:  saveFlag,
				Usage: "Saves the run results to the history database (optional, default: false)",
			},
			newPrecisionFlag(),
		},
		Action: cmdCompare,
	}
}

func cmdCompare(ctx context.Context, cmd *urfave.Command) error {
	path := cmd.String(batchFileFlag)
	groups, err := compare.ReadBatchFile(path)
	if err != nil {
		return err
	}

	cfg := getConfig(cmd)
	r, err := newRunner(cfg.Config)
	if err != nil {
		return err
	}

	run := &data.Run{
		StartedAt: time.Now().UTC(),
		BatchFile: path,
		Groups:    len(groups),
	}

	slog.Info("comparing groups", "file", path, "groups", len(groups))

	for i, g := range groups {
		rep := &groupReport{Group: i + 1, Name: g.Name}

		res, err := r.Run(ctx, g.Batch)
		if err != nil {
			if errors.Is(err, score.ErrConfiguration) || ctx.Err() != nil {
				return fmt.Errorf("group %d: %w", i+1, err)
			}
			rep.Error = newItemReport(err)
			run.Failed++
			slog.Error("group failed",
				"group", i+1,
				"name", g.Name,
				"input", rep.Error.Input,
				"comment", rep.Error.Comment,
				"kind", rep.Error.Kind,
				"error", err,
			)
		} else {
			rep.Result = res
			run.Results = append(run.Results, &data.GroupResult{Index: i, Name: g.Name, Result: res})
		}

		if err := printGroup(cmd, rep); err != nil {
			return err
		}
	}

	if cmd.Bool(saveFlag) {
		db, err := cfg.getDB()
		if err != nil {
			return err
		}
		id, err := data.SaveRun(ctx, db, run)
		if err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		slog.Info("run saved", "id", id, "db", cfg.DBPath)
	}

	if run.Failed > 0 {
		return fmt.Errorf("%d of %d groups failed", run.Failed, run.Groups)
	}
	return nil
}

func newItemReport(err error) *itemReport {
	rep := &itemReport{
		Kind:    score.KindOf(err),
		Message: err.Error(),
	}
	var ie *compare.ItemError
	if errors.As(err, &ie) {
		rep.Input = ie.Index + 1
		rep.Comment = ie.Comment
		rep.Message = ie.Err.Error()
	}
	return rep
}

func printGroup(cmd *urfave.Command, rep *groupReport) error {
	cfg := getConfig(cmd)
	w := writer(cmd)
	if cfg.Format != formatTable {
		return encode(w, cfg.Format, rep)
	}

	title := fmt.Sprintf("Group %d", rep.Group)
	if rep.Name != "" {
		title = fmt.Sprintf("%s: %s", title, rep.Name)
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}

	if rep.Error != nil {
		_, err := fmt.Fprintf(w, "failed at input %d (%q): %s error: %s\n",
			rep.Error.Input, rep.Error.Comment, rep.Error.Kind, rep.Error.Message)
		return err
	}

	printResult(cmd, rep.Result)
	return nil
}
