package model

import "github.com/rotisserie/eris"

var (
	// ErrInvalidInput marks a malformed candidate snapshot or procurement
	// request. It aborts a run before any dispatch begins.
	ErrInvalidInput = eris.New("invalid input")

	// ErrNoChannels is returned when neither outreach channel is configured.
	ErrNoChannels = eris.New("no outreach channel configured")
)
