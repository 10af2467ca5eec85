package llms

import "errors"

var (
	// ErrRequestFailed matches errors of a completion request that could not
	// reach the server or was refused by it.
	ErrRequestFailed = errors.New("completion request failed")

	// ErrMalformedResponse matches errors caused by a reply that could not be
	// understood.
	ErrMalformedResponse = errors.New("malformed completion response")
)
