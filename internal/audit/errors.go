package audit

import "errors"

// Domain errors for audit operations.
var (
	// ErrInvalidSeverity is returned when a severity name is not recognised.
	ErrInvalidSeverity = errors.New("audit: invalid severity")

	// ErrFindingNotFound is returned when a finding lookup has no match.
	ErrFindingNotFound = errors.New("audit: finding not found")
)
