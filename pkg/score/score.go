package score

import (
	"context"
	"errors"
	"fmt"
)

const (
	// MinScore is the lowest toxicity score a scorer may return.
	MinScore = 0.0
	// MaxScore is the highest toxicity score a scorer may return.
	MaxScore = 1.0
)

// Scorer returns the toxicity score of a single comment.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, text string) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

var (
	// ErrConfiguration marks invalid or missing credentials. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks rate limiting, timeouts and connection failures.
	ErrTransient = errors.New("transient service error")
	// ErrProtocol marks a response that does not match the expected contract.
	ErrProtocol = errors.New("protocol error")
)

// Error is returned by scorers for every classified failure.
// Kind is one of ErrConfiguration, ErrTransient or ErrProtocol.
type Error struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (status: %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, status int, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf(format, args...),
	}
}

// ConfigurationError creates a non-retryable credential error.
func ConfigurationError(err error) error {
	return &Error{Kind: ErrConfiguration, Err: err}
}

// TransientError creates a retryable service error.
func TransientError(err error) error {
	return &Error{Kind: ErrTransient, Err: err}
}

// ProtocolError creates a non-retryable response contract error.
func ProtocolError(err error) error {
	return &Error{Kind: ErrProtocol, Err: err}
}

// IsRetryable reports whether err may succeed when the same call is repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// KindOf returns a short name of the error kind for reporting.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// InRange reports whether v is a valid toxicity score.
func InRange(v float64) bool {
	// NaN fails both comparisons
	return v >= MinScore && v <= MaxScore
}
