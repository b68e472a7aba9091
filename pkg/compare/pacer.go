package compare

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the minimum interval between two scoring calls.
const DefaultDelay = time.Second

// Pacer blocks until the next external call is allowed.
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFunc adapts a plain function to the Pacer interface.
type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// NewIntervalPacer lets the first call through at once and spaces every
// following call at least delay apart. A non-positive delay disables pacing.
func NewIntervalPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return PacerFunc(func(ctx context.Context) error { return ctx.Err() })
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
