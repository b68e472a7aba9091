package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mchmarny/biascheck/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const (
	limitFlag = "limit"
	runFlag   = "run"
)

func newHistoryCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "history",
		Usage: "Lists saved comparison runs or prints the results of one",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  limitFlag,
				Usage: "Limits number of runs listed",
				Value: data.DefaultListLimit,
			},
			&urfave.IntFlag{
				Name:  runFlag,
				Usage: "ID of the run to print",
			},
			newPrecisionFlag(),
		},
		Action: cmdHistory,
	}
}

func cmdHistory(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	db, err := cfg.getDB()
	if err != nil {
		return err
	}

	w := writer(cmd)

	if cmd.IsSet(runFlag) {
		r, err := data.GetRun(ctx, db, int64(cmd.Int(runFlag)))
		if err != nil {
			return err
		}
		if cfg.Format != formatTable {
			return encode(w, cfg.Format, r)
		}
		fmt.Fprintf(w, "Run %d: %s (%s), %d groups, %d failed\n",
			r.ID, r.BatchFile, r.StartedAt.Local().Format(time.RFC3339), r.Groups, r.Failed)
		for _, g := range r.Results {
			title := fmt.Sprintf("Group %d", g.Index+1)
			if g.Name != "" {
				title = fmt.Sprintf("%s: %s", title, g.Name)
			}
			fmt.Fprintf(w, "\n%s\n", title)
			printResult(cmd, g.Result)
		}
		return nil
	}

	list, err := data.ListRuns(ctx, db, int(cmd.Int(limitFlag)))
	if err != nil {
		return err
	}
	if cfg.Format != formatTable {
		return encode(w, cfg.Format, list)
	}

	table := newTable(w, "ID", "Started", "Batch File", "Groups", "Failed")
	for _, r := range list {
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format(time.RFC3339),
			r.BatchFile,
			strconv.Itoa(r.Groups),
			strconv.Itoa(r.Failed),
		})
	}
	table.Render()
	return nil
}
