package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"
)

// Verifier checks presented API keys.
//
// With a plain key, candidates are compared by SHA-256 digest in constant
// time. With an Argon2id hash, the first successful candidate's digest is
// remembered so later requests skip the 64 MiB key derivation.
//
// Thread Safety:
//   - Verify is safe for concurrent use.
type Verifier struct {
	hash string

	mu       sync.RWMutex
	digest   [sha256.Size]byte
	haveHash bool
}

// NewVerifier builds a Verifier. key takes precedence over hash when both are
// set. A hash is parsed up front so a bad value fails at startup.
func NewVerifier(key, hash string) (*Verifier, error) {
	switch {
	case key != "":
		return &Verifier{digest: sha256.Sum256([]byte(key)), haveHash: true}, nil
	case hash != "":
		if _, _, _, err := decodePHC(hash); err != nil {
			return nil, err
		}
		return &Verifier{hash: hash}, nil
	default:
		return nil, ErrNoKey
	}
}

// Verify reports whether candidate is the configured key.
func (v *Verifier) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	sum := sha256.Sum256([]byte(candidate))

	v.mu.RLock()
	digest, known := v.digest, v.haveHash
	v.mu.RUnlock()

	if known {
		return subtle.ConstantTimeCompare(sum[:], digest[:]) == 1
	}

	ok, err := VerifyKey(candidate, v.hash)
	if err != nil || !ok {
		return false
	}

	v.mu.Lock()
	v.digest, v.haveHash = sum, true
	v.mu.Unlock()
	return true
}
