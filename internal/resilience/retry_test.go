package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), "save", func(context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("busy"), 0)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(5), "save", func(context.Context) error {
		calls++
		return errors.New("constraint violation")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(2), "save", func(context.Context) error {
		calls++
		return NewTransientError(errors.New("busy"), 0)
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fastRetry(5), "save", func(context.Context) error {
		calls++
		return NewTransientError(errors.New("busy"), 0)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
