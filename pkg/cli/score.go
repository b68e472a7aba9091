package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/mchmarny/biascheck/pkg/compare"
	"github.com/mchmarny/biascheck/pkg/config"
	"github.com/mchmarny/biascheck/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

const precisionFlag = "precision"

func newPrecisionFlag() urfave.Flag {
	return &urfave.IntFlag{
		Name:  precisionFlag,
		Usage: "Number of decimals in table output, -1 prints the full value",
		Value: defaultPrecision,
	}
}

func newScoreCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "score",
		Usage:     "Scores each text argument once",
		ArgsUsage: "<text>...",
		Flags: []urfave.Flag{
			newPrecisionFlag(),
		},
		Action: cmdScore,
	}
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	batch := compare.Batch(cmd.Args().Slice())
	if len(batch) == 0 {
		return errors.New("at least one text argument is required")
	}
	for i, text := range batch {
		if !utf8.ValidString(text) {
			return fmt.Errorf("argument %d: %w", i+1, compare.ErrInvalidEncoding)
		}
	}

	cfg := getConfig(cmd)
	r, err := newRunner(cfg.Config)
	if err != nil {
		return err
	}

	res, err := r.Run(ctx, batch)
	if err != nil {
		return fmt.Errorf("scoring failed (%s): %w", score.KindOf(err), err)
	}

	w := writer(cmd)
	if cfg.Format != formatTable {
		return encode(w, cfg.Format, res)
	}
	printResult(cmd, res)
	return nil
}

// newScorer builds the Perspective client from the resolved API key.
func newScorer(cfg *config.Config) (score.Scorer, error) {
	key, err := config.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	return score.NewPerspectiveClient(score.PerspectiveConfig{
		APIKey:     key,
		Endpoint:   cfg.Endpoint,
		Timeout:    cfg.Timeout,
		Languages:  cfg.Languages,
		DoNotStore: cfg.DoNotStore,
	})
}

func newRunner(cfg *config.Config) (*compare.Runner, error) {
	s, err := newScorer(cfg)
	if err != nil {
		return nil, err
	}
	return compare.NewRunner(s,
		compare.WithPacer(compare.NewIntervalPacer(cfg.Delay)),
		compare.WithBackOff(compare.ExponentialBackOff(cfg.BackoffInitial, cfg.BackoffMax)),
		compare.WithMaxRetries(cfg.MaxRetries),
	)
}

func printResult(cmd *urfave.Command, res compare.Result) {
	precision := int(cmd.Int(precisionFlag))
	table := newTable(writer(cmd), "#", "Comment", "Toxicity")
	for i, p := range res {
		table.Append([]string{strconv.Itoa(i + 1), p.Comment, formatScore(p.Score, precision)})
	}
	table.Render()
}
