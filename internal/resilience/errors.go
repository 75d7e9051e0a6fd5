package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// ErrFatalAuth signals that a transport rejected the campaign's credentials.
// Dispatch stops admitting new candidates when it sees this error.
var ErrFatalAuth = eris.New("transport authentication failed")

// TransientError marks a delivery failure that might succeed on a later
// campaign (429, 5xx, network timeouts).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// FatalError carries the provider detail behind an ErrFatalAuth.
type FatalError struct {
	Service    string
	StatusCode int
	Detail     string
}

func (e *FatalError) Error() string {
	msg := e.Service + ": " + ErrFatalAuth.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is makes errors.Is(err, ErrFatalAuth) hold for every FatalError.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatalAuth
}

// NewFatalError builds a FatalError for service.
func NewFatalError(service string, statusCode int, detail string) *FatalError {
	return &FatalError{Service: service, StatusCode: statusCode, Detail: detail}
}

// IsFatal reports whether err (or anything it wraps) ends the campaign.
func IsFatal(err error) bool {
	return err != nil && errors.Is(err, ErrFatalAuth)
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or matches common network failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"tls handshake timeout",
		"database is locked",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus returns true for status codes worth trying again later.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsAuthHTTPStatus returns true for status codes that mean the credentials
// themselves were refused.
func IsAuthHTTPStatus(statusCode int) bool {
	return statusCode == 401 || statusCode == 403
}

// Classify names an error for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsFatal(err):
		return "fatal"
	case IsTransient(err):
		return "transient"
	default:
		return "permanent"
	}
}
