package device

import "errors"

// Domain errors for the device package.
var (
	// ErrInvalidDevice is returned when a registry entry fails validation.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidSeed is returned when a seed file cannot be parsed.
	ErrInvalidSeed = errors.New("device: invalid seed file")
)
