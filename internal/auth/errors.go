package auth

import "errors"

var (
	// ErrInvalidHash is returned for a malformed or non-Argon2id PHC string.
	ErrInvalidHash = errors.New("auth: invalid key hash")

	// ErrNoKey is returned when neither a key nor a key hash is configured.
	ErrNoKey = errors.New("auth: no api key configured")
)
