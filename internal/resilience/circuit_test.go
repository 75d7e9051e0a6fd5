package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_DisabledAlwaysAllows(t *testing.T) {
	b := NewBreaker("email", BreakerConfig{})
	for i := 0; i < 10; i++ {
		b.Record(errors.New("fail"))
	}
	assert.NoError(t, b.Allow())

	var nilBreaker *Breaker
	assert.NoError(t, nilBreaker.Allow())
	nilBreaker.Record(errors.New("fail"))
	assert.Equal(t, CircuitClosed, nilBreaker.State())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("sms", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.NoError(t, b.Allow())
		b.Record(errors.New("fail"))
	}
	assert.Equal(t, CircuitOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker("sms", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	b.Record(errors.New("fail"))
	b.Record(nil)
	b.Record(errors.New("fail"))
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_HalfOpenSingleProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("email", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	b.nowFunc = func() time.Time { return now.Add(2 * time.Second) }
	assert.NoError(t, b.Allow())
	assert.Equal(t, CircuitHalfOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "only one probe in flight")

	b.Record(nil)
	assert.Equal(t, CircuitClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("email", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.nowFunc = func() time.Time { return now }
	b.Record(errors.New("fail"))

	b.nowFunc = func() time.Time { return now.Add(2 * time.Second) }
	assert.NoError(t, b.Allow())
	b.Record(errors.New("still failing"))
	assert.Equal(t, CircuitOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}
