package skill

import "errors"

// Domain errors for the skill runtime.
var (
	// ErrInvalidConfig is returned by NewRuntime for unusable settings.
	ErrInvalidConfig = errors.New("skill: invalid runtime config")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("skill: runtime already started")
)
