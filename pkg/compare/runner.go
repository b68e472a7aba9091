package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mchmarny/biascheck/pkg/score"
)

const (
	// DefaultMaxRetries bounds the retries of a single item on transient errors.
	DefaultMaxRetries = 3
	// DefaultBackoffInitial is the first retry wait of the default policy.
	DefaultBackoffInitial = 500 * time.Millisecond
	// DefaultBackoffMax caps a single retry wait of the default policy.
	DefaultBackoffMax = 10 * time.Second
)

// Batch is an ordered group of related comments scored together.
type Batch []string

// Pair is one scored comment.
type Pair struct {
	Comment string  `json:"comment" yaml:"comment"`
	Score   float64 `json:"score" yaml:"score"`
}

// Result holds one Pair per batch item in batch order.
type Result []Pair

// Comments returns the comments of the result in order.
func (r Result) Comments() Batch {
	b := make(Batch, len(r))
	for i, p := range r {
		b[i] = p.Comment
	}
	return b
}

// ItemError identifies the batch item that failed the batch.
type ItemError struct {
	Index   int
	Comment string
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %v", e.Index+1, e.Comment, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Runner scores batches sequentially through a single Scorer.
type Runner struct {
	scorer     score.Scorer
	pacer      Pacer
	backOff    func() backoff.BackOff
	maxRetries uint64
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPacer replaces the default interval pacer.
func WithPacer(p Pacer) Option {
	return func(r *Runner) {
		if p != nil {
			r.pacer = p
		}
	}
}

// WithBackOff replaces the default exponential retry policy. The function is
// called once per item so stateful policies start fresh.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(r *Runner) {
		if f != nil {
			r.backOff = f
		}
	}
}

// WithMaxRetries sets how many times a transient failure of one item is retried.
func WithMaxRetries(n uint64) Option {
	return func(r *Runner) {
		r.maxRetries = n
	}
}

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// ExponentialBackOff returns a retry policy factory growing from initial up to maxInterval.
func ExponentialBackOff(initial, maxInterval time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = maxInterval
		b.MaxElapsedTime = 0
		return b
	}
}

// NewRunner creates a Runner with a one second pacer and exponential retries.
func NewRunner(s score.Scorer, opts ...Option) (*Runner, error) {
	if s == nil {
		return nil, errors.New("scorer is required")
	}

	r := &Runner{
		scorer:     s,
		pacer:      NewIntervalPacer(DefaultDelay),
		backOff:    ExponentialBackOff(DefaultBackoffInitial, DefaultBackoffMax),
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run scores every comment of the batch in order. It returns either a
// complete result or no result at all, so a failed item never leaves a gap
// in the comparison.
func (r *Runner) Run(ctx context.Context, batch Batch) (Result, error) {
	res := make(Result, 0, len(batch))
	for i, c := range batch {
		v, err := r.scoreItem(ctx, i, c)
		if err != nil {
			return nil, &ItemError{Index: i, Comment: c, Err: err}
		}
		res = append(res, Pair{Comment: c, Score: v})
	}
	return res, nil
}

func (r *Runner) scoreItem(ctx context.Context, i int, c string) (float64, error) {
	var v float64
	attempt := 0

	op := func() error {
		attempt++
		if err := r.pacer.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		s, err := r.scorer.Score(ctx, c)
		if err != nil {
			if score.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if !score.InRange(s) {
			return backoff.Permanent(score.ProtocolError(fmt.Errorf("score out of range: %v", s)))
		}
		v = s
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("retrying comment",
			"item", i+1,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.backOff(), r.maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return 0, err
	}

	r.logger.Debug("scored comment", "item", i+1, "attempts", attempt, "score", v)
	return v, nil
}
