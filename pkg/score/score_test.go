package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorerFunc(t *testing.T) {
	var s Scorer = ScorerFunc(func(_ context.Context, text string) (float64, error) {
		if text == "Damn straight!" {
			return 0.64, nil
		}
		return 0.1, nil
	})

	v, err := s.Score(context.Background(), "Damn straight!")
	assert.NoError(t, err)
	assert.Equal(t, 0.64, v)
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"configuration", ConfigurationError(errors.New("bad key")), ErrConfiguration},
		{"transient", TransientError(errors.New("reset")), ErrTransient},
		{"protocol", ProtocolError(errors.New("missing field")), ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("scoring item 2: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			for _, other := range []error{ErrConfiguration, ErrTransient, ErrProtocol} {
				if other != tt.kind {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := TransientError(cause)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "transient", KindOf(err))
}

func TestError_Message(t *testing.T) {
	err := newError(ErrTransient, 429, "service throttled request: %s", "quota")
	assert.Equal(t, "transient service error (status: 429): service throttled request: quota", err.Error())

	err = &Error{Kind: ErrProtocol, Err: errors.New("no value")}
	assert.Equal(t, "protocol error: no value", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(TransientError(errors.New("x"))))
	assert.False(t, IsRetryable(ConfigurationError(errors.New("x"))))
	assert.False(t, IsRetryable(ProtocolError(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("x")))
	assert.False(t, IsRetryable(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, "configuration", KindOf(ConfigurationError(errors.New("x"))))
	assert.Equal(t, "protocol", KindOf(ProtocolError(errors.New("x"))))
	assert.Equal(t, "canceled", KindOf(context.Canceled))
	assert.Equal(t, "unknown", KindOf(errors.New("x")))
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0))
	assert.True(t, InRange(1))
	assert.True(t, InRange(0.86))
	assert.False(t, InRange(-0.01))
	assert.False(t, InRange(1.01))
	assert.False(t, InRange(math.NaN()))
	assert.False(t, InRange(math.Inf(1)))
}
