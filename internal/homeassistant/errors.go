package homeassistant

import (
	"errors"
	"fmt"
)

// Sentinel errors for device-control API calls.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, homeassistant.ErrTimeout) {
//	    // Upstream too slow
//	}
var (
	// ErrTimeout indicates the request did not complete within the timeout.
	ErrTimeout = errors.New("homeassistant: request timeout")

	// ErrConnection indicates the API could not be reached.
	ErrConnection = errors.New("homeassistant: cannot connect")

	// ErrInvalidResponse indicates a success status with an undecodable body.
	ErrInvalidResponse = errors.New("homeassistant: invalid response")
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// StatusError is returned for any status other than 200 or 201.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("homeassistant: status %d", e.StatusCode)
	}
	return fmt.Sprintf("homeassistant: status %d - %s", e.StatusCode, e.Body)
}
