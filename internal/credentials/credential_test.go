package credentials

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    Credential
		wantErr bool
	}{
		{
			name: "json",
			doc:  `{"url": "http://ha.local:8123", "token": "abc123"}`,
			want: Credential{BaseURL: "http://ha.local:8123", Token: "abc123"},
		},
		{
			name: "yaml",
			doc:  "url: http://ha.local:8123\ntoken: abc123\n",
			want: Credential{BaseURL: "http://ha.local:8123", Token: "abc123"},
		},
		{
			name: "prefixed keys",
			doc:  `{"ha_url": "https://ha.example.com/", "ha_token": "tok"}`,
			want: Credential{BaseURL: "https://ha.example.com", Token: "tok"},
		},
		{
			name:    "missing token",
			doc:     `{"url": "http://ha.local:8123"}`,
			wantErr: true,
		},
		{
			name:    "missing url",
			doc:     `{"token": "abc"}`,
			wantErr: true,
		},
		{
			name:    "blank values",
			doc:     `{"url": "  ", "token": ""}`,
			wantErr: true,
		},
		{
			name:    "malformed",
			doc:     `{"url": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocument([]byte(tt.doc))
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("ParseDocument() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDocument() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCredential_MaskedURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://homeassistant.local:8123", "http://homeassistant..."},
		{"http://ha:8123", "http://ha:8123..."},
		{"", "..."},
		{"http://häüsautomatiön.example:8123", "http://häüsautomatiö..."},
	}
	for _, tt := range tests {
		if got := (Credential{BaseURL: tt.url}).MaskedURL(); got != tt.want {
			t.Errorf("MaskedURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCredential_NeverPrintsToken(t *testing.T) {
	c := Credential{BaseURL: "http://ha.local:8123", Token: "super-secret-token"}

	for _, s := range []string{c.String(), fmt.Sprintf("%v", c), fmt.Sprintf("%s", c), c.LogValue().String()} {
		if strings.Contains(s, c.Token) {
			t.Errorf("formatted credential %q leaks token", s)
		}
	}
}
