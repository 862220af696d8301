package auth

import (
	"errors"
	"sync"
	"testing"
)

const testKey = "test-api-key-0123456789"

func TestNewVerifier(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		hash    string
		wantErr error
	}{
		{name: "plain key", key: testKey},
		{name: "neither", wantErr: ErrNoKey},
		{name: "bad hash", hash: "plaintext", wantErr: ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifier(tt.key, tt.hash)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewVerifier() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifier_PlainKey(t *testing.T) {
	v, err := NewVerifier(testKey, "")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	tests := []struct {
		candidate string
		want      bool
	}{
		{testKey, true},
		{"", false},
		{"wrong", false},
		{testKey + "x", false},
	}
	for _, tt := range tests {
		if got := v.Verify(tt.candidate); got != tt.want {
			t.Errorf("Verify(%q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestVerifier_Hash(t *testing.T) {
	hash, err := HashKey(testKey)
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}
	v, err := NewVerifier("", hash)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	if v.Verify("wrong") {
		t.Error("Verify(wrong) = true before any success")
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !v.Verify(testKey) {
				t.Error("Verify(testKey) = false")
			}
		}()
	}
	wg.Wait()

	// After a success the cached digest still rejects other keys.
	if v.Verify("wrong") {
		t.Error("Verify(wrong) = true after caching")
	}
}
