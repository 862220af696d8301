package credentials

import "errors"

var (
	// ErrConfiguration marks every credential failure: unreachable store,
	// missing secret, malformed document or missing fields.
	ErrConfiguration = errors.New("credentials: configuration error")

	// ErrSecretNotFound is returned by stores when the id does not exist.
	ErrSecretNotFound = errors.New("credentials: secret not found")
)
