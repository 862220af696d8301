package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testAPIKey = "test-api-key-0123456789"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
api:
  host: "127.0.0.1"
  port: 9090
device_control:
  timeout_seconds: 5
  media_player: "media_player.kitchen"
secrets:
  backend: "file"
  secret_id: "home/ha"
  file:
    path: "/tmp/secrets.yaml"
pipeline:
  max_commands_per_session: 3
security:
  api_key: "test-api-key-0123456789"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.DeviceControl.MediaPlayer != "media_player.kitchen" {
		t.Errorf("DeviceControl.MediaPlayer = %q, want %q", cfg.DeviceControl.MediaPlayer, "media_player.kitchen")
	}
	if got := cfg.DeviceControlTimeout(); got != 5*time.Second {
		t.Errorf("DeviceControlTimeout() = %v, want 5s", got)
	}
	if cfg.Pipeline.MaxCommandsPerSession != 3 {
		t.Errorf("Pipeline.MaxCommandsPerSession = %d, want 3", cfg.Pipeline.MaxCommandsPerSession)
	}

	// Unset values keep their defaults.
	if cfg.DeviceControl.WeatherEntity != "weather.home" {
		t.Errorf("DeviceControl.WeatherEntity = %q, want default", cfg.DeviceControl.WeatherEntity)
	}
	if cfg.Audit.EscalationThreshold != "HIGH" {
		t.Errorf("Audit.EscalationThreshold = %q, want HIGH", cfg.Audit.EscalationThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
api:
  port: 8080
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for missing api key, got nil")
	}
	if !strings.Contains(err.Error(), "security.api_key") {
		t.Errorf("error = %v, want mention of security.api_key", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JARVIS_SECURITY_API_KEY", testAPIKey)
	t.Setenv("JARVIS_API_PORT", "7070")
	t.Setenv("JARVIS_SECRETS_BACKEND", "aws")
	t.Setenv("JARVIS_SECRETS_AWS_REGION", "eu-west-2")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Security.APIKey != testAPIKey {
		t.Errorf("Security.APIKey not overridden from environment")
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port = %d, want 7070", cfg.API.Port)
	}
	if cfg.Secrets.Backend != "aws" || cfg.Secrets.AWS.Region != "eu-west-2" {
		t.Errorf("Secrets = %+v, want aws backend in eu-west-2", cfg.Secrets)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults with api key",
			mutate: func(c *Config) {},
		},
		{
			name: "api key hash only",
			mutate: func(c *Config) {
				c.Security.APIKey = ""
				c.Security.APIKeyHash = "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"
			},
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Security.APIKey = "" },
			wantErr: "security.api_key",
		},
		{
			name:    "short api key",
			mutate:  func(c *Config) { c.Security.APIKey = "short" },
			wantErr: "at least 16 characters",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "zero session ceiling",
			mutate:  func(c *Config) { c.Pipeline.MaxCommandsPerSession = 0 },
			wantErr: "pipeline.max_commands_per_session",
		},
		{
			name:    "unknown secrets backend",
			mutate:  func(c *Config) { c.Secrets.Backend = "vault" },
			wantErr: "secrets.backend",
		},
		{
			name:    "file backend without path",
			mutate:  func(c *Config) { c.Secrets.File.Path = "" },
			wantErr: "secrets.file.path",
		},
		{
			name:    "unknown escalation threshold",
			mutate:  func(c *Config) { c.Audit.EscalationThreshold = "SEVERE" },
			wantErr: "audit.escalation_threshold",
		},
		{
			name:   "lower-case escalation threshold",
			mutate: func(c *Config) { c.Audit.EscalationThreshold = "medium" },
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "brightness out of range",
			mutate:  func(c *Config) { c.DeviceControl.DefaultBrightness = 300 },
			wantErr: "default_brightness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.APIKey = testAPIKey
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.Port = -1
	cfg.Database.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"api.port", "database.path", "security.api_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.DeviceControlTimeout(); got != 10*time.Second {
		t.Errorf("DeviceControlTimeout() = %v, want 10s", got)
	}
}
