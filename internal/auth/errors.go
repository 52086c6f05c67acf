package auth

import "errors"

// Token errors. Use errors.Is to check for them.
var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrForbidden    = errors.New("auth: insufficient scope")
	ErrNoSecret     = errors.New("auth: signing secret not configured")
)
