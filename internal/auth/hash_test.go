package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashKey_RoundTrip(t *testing.T) {
	key := "correct-horse-battery-staple"

	hash, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash should start with $argon2id$, got %q", hash)
	}

	ok, err := VerifyKey(key, hash)
	if err != nil {
		t.Fatalf("VerifyKey() error = %v", err)
	}
	if !ok {
		t.Error("VerifyKey() should return true for correct key")
	}

	ok, err = VerifyKey("wrong-key", hash)
	if err != nil {
		t.Fatalf("VerifyKey() error = %v", err)
	}
	if ok {
		t.Error("VerifyKey() should return false for wrong key")
	}
}

func TestHashKey_UniqueSalts(t *testing.T) {
	hash1, err := HashKey("same-key")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}
	hash2, err := HashKey("same-key")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("two hashes of the same key should have different salts")
	}
}

func TestHashKey_PHCFormat(t *testing.T) {
	hash, err := HashKey("test")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("PHC format should have 6 $-delimited parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" || parts[2] != "v=19" || parts[3] != "m=65536,t=3,p=1" {
		t.Errorf("unexpected PHC header %q", strings.Join(parts[1:4], "$"))
	}
}

func TestVerifyKey_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not PHC", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$salt$hash"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=1"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyKey("key", tt.hash)
			if !errors.Is(err, ErrInvalidHash) {
				t.Errorf("VerifyKey() error = %v, want ErrInvalidHash", err)
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	b, _ := GenerateKey()

	if len(a) != 2*generatedKeyBytes {
		t.Errorf("len(GenerateKey()) = %d, want %d", len(a), 2*generatedKeyBytes)
	}
	if a == b {
		t.Error("GenerateKey() returned the same key twice")
	}
}
