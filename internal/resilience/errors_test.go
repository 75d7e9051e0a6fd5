package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsFatal(t *testing.T) {
	fe := NewFatalError("twilio", 401, "bad token")
	assert.True(t, IsFatal(fe))
	assert.True(t, IsFatal(eris.Wrap(fe, "send sms")))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", ErrFatalAuth)))
	assert.False(t, IsFatal(errors.New("boom")))
	assert.False(t, IsFatal(nil))
	assert.Equal(t, "twilio: transport authentication failed: bad token", fe.Error())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(errors.New("rate limited"), 429)))
	assert.True(t, IsTransient(fmt.Errorf("post: %w", NewTransientError(errors.New("x"), 503))))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.True(t, IsTransient(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsTransient(errors.New("invalid phone number")))
	assert.False(t, IsTransient(nil))
}

func TestHTTPStatusClassification(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
	assert.True(t, IsAuthHTTPStatus(401))
	assert.True(t, IsAuthHTTPStatus(403))
	assert.False(t, IsAuthHTTPStatus(400))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "none", Classify(nil))
	assert.Equal(t, "fatal", Classify(NewFatalError("mailjet", 401, "")))
	assert.Equal(t, "transient", Classify(NewTransientError(errors.New("x"), 500)))
	assert.Equal(t, "permanent", Classify(errors.New("x")))
}
