package command

import "errors"

// Validation errors. Validate wraps these with the offending detail.
var (
	ErrMissingField  = errors.New("command: missing required field")
	ErrInvalidAction = errors.New("command: action not allowed")
	ErrRateLimited   = errors.New("command: session rate limit exceeded")
)
