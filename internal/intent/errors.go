package intent

import "errors"

var (
	// ErrMalformedRequest is returned when an inbound envelope cannot be decoded.
	ErrMalformedRequest = errors.New("intent: malformed request")

	// ErrInvalidNumber is returned when a number entity has no integer value.
	ErrInvalidNumber = errors.New("intent: invalid number")
)
