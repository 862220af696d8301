package credentials

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// maskedURLLength is how much of the base URL survives masking.
const maskedURLLength = 20

// Credential is the device-control endpoint and bearer token.
//
// String and LogValue never include the token.
type Credential struct {
	BaseURL string
	Token   string
}

// MaskedURL returns at most the first 20 characters of the base URL followed
// by "...".
func (c Credential) MaskedURL() string {
	r := []rune(c.BaseURL)
	if len(r) <= maskedURLLength {
		return c.BaseURL + "..."
	}
	return string(r[:maskedURLLength]) + "..."
}

// String implements fmt.Stringer without exposing the token.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{url=%s token=[redacted]}", c.MaskedURL())
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("url", c.MaskedURL()))
}

// secretDocument accepts both the short and the prefixed field names.
type secretDocument struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	HAURL   string `yaml:"ha_url"`
	HAToken string `yaml:"ha_token"`
}

// ParseDocument decodes a JSON or YAML secret document. Trailing slashes on
// the URL are removed.
func ParseDocument(data []byte) (Credential, error) {
	var doc secretDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Credential{}, fmt.Errorf("%w: decoding secret document: %w", ErrConfiguration, err)
	}

	c := Credential{
		BaseURL: firstNonEmpty(doc.URL, doc.HAURL),
		Token:   firstNonEmpty(doc.Token, doc.HAToken),
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)

	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "url")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return Credential{}, fmt.Errorf("%w: secret document missing %s", ErrConfiguration, strings.Join(missing, " and "))
	}

	return c, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
