package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Jarvis Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API           APIConfig           `yaml:"api"`
	WebSocket     WebSocketConfig     `yaml:"websocket"`
	DeviceControl DeviceControlConfig `yaml:"device_control"`
	Secrets       SecretsConfig       `yaml:"secrets"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Audit         AuditConfig         `yaml:"audit"`
	Database      DatabaseConfig      `yaml:"database"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Logging       LoggingConfig       `yaml:"logging"`
	Security      SecurityConfig      `yaml:"security"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	TLS          TLSConfig        `yaml:"tls"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	CORS         CORSConfig       `yaml:"cors"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains settings for the live audit event stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// DeviceControlConfig contains settings for the outbound device-control API.
type DeviceControlConfig struct {
	// TimeoutSeconds bounds every outbound HTTP call. Default: 10
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MediaPlayer is the entity targeted by play/stop media intents.
	MediaPlayer string `yaml:"media_player"`

	// WeatherEntity is read for weather queries.
	WeatherEntity string `yaml:"weather_entity"`

	// DefaultTemperature applies when a temperature intent carries no value.
	DefaultTemperature int `yaml:"default_temperature"`

	// DefaultCommandTemperature applies to direct set_temperature commands.
	DefaultCommandTemperature int `yaml:"default_command_temperature"`

	// DefaultBrightness applies to set_brightness commands without a value (0-255).
	DefaultBrightness int `yaml:"default_brightness"`
}

// SecretsConfig selects where device-control credentials are fetched from.
type SecretsConfig struct {
	// Backend is "file" or "aws".
	Backend  string            `yaml:"backend"`
	SecretID string            `yaml:"secret_id"`
	File     SecretsFileConfig `yaml:"file"`
	AWS      SecretsAWSConfig  `yaml:"aws"`
}

// SecretsFileConfig contains settings for the local secret file backend.
type SecretsFileConfig struct {
	Path string `yaml:"path"`
	// Watch invalidates the cached credential when the file changes.
	Watch bool `yaml:"watch"`
}

// SecretsAWSConfig contains settings for the AWS Secrets Manager backend.
type SecretsAWSConfig struct {
	Region string `yaml:"region"`
}

// PipelineConfig contains command pipeline limits.
type PipelineConfig struct {
	MaxCommandsPerSession int `yaml:"max_commands_per_session"`
	MaxInputLength        int `yaml:"max_input_length"`
	MaxBatchSize          int `yaml:"max_batch_size"`
}

// AuditConfig contains security event handling settings.
type AuditConfig struct {
	// EscalationThreshold is the minimum severity forwarded to the compliance sink.
	EscalationThreshold string `yaml:"escalation_threshold"`
	QueueSize           int    `yaml:"queue_size"`
	MetricNamespace     string `yaml:"metric_namespace"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// TelemetryConfig contains OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	Insecure     bool   `yaml:"insecure"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains the inbound shared-secret settings.
//
// Exactly one of APIKey or APIKeyHash is normally set. APIKeyHash holds an
// Argon2id PHC string produced by `jarvis hash-key`.
type SecurityConfig struct {
	APIKey     string `yaml:"api_key"`
	APIKeyHash string `yaml:"api_key_hash"`
}

// severities mirrors audit.Severity without importing it.
var severities = []string{"INFO", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: JARVIS_SECTION_KEY
// For example: JARVIS_DATABASE_PATH, JARVIS_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in defaults with environment overrides applied.
// It is used by CLI subcommands that run without a config file.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
			},
			MaxBodyBytes: 1 << 20,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		DeviceControl: DeviceControlConfig{
			TimeoutSeconds:            10,
			MediaPlayer:               "media_player.spotify",
			WeatherEntity:             "weather.home",
			DefaultTemperature:        70,
			DefaultCommandTemperature: 20,
			DefaultBrightness:         255,
		},
		Secrets: SecretsConfig{
			Backend:  "file",
			SecretID: "jarvis/homeassistant",
			File: SecretsFileConfig{
				Path:  "./configs/secrets.yaml",
				Watch: true,
			},
		},
		Pipeline: PipelineConfig{
			MaxCommandsPerSession: 100,
			MaxInputLength:        5000,
			MaxBatchSize:          100,
		},
		Audit: AuditConfig{
			EscalationThreshold: "HIGH",
			QueueSize:           256,
			MetricNamespace:     "JarvisAI/Commands",
		},
		Database: DatabaseConfig{
			Path:        "./data/jarvis.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "jarvis-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "jarvis-core",
			Insecure:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: JARVIS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("JARVIS_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("JARVIS_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Secrets
	if v := os.Getenv("JARVIS_SECRETS_BACKEND"); v != "" {
		cfg.Secrets.Backend = v
	}
	if v := os.Getenv("JARVIS_SECRETS_SECRET_ID"); v != "" {
		cfg.Secrets.SecretID = v
	}
	if v := os.Getenv("JARVIS_SECRETS_FILE_PATH"); v != "" {
		cfg.Secrets.File.Path = v
	}
	if v := os.Getenv("JARVIS_SECRETS_AWS_REGION"); v != "" {
		cfg.Secrets.AWS.Region = v
	}

	// Database
	if v := os.Getenv("JARVIS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("JARVIS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("JARVIS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("JARVIS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("JARVIS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Telemetry
	if v := os.Getenv("JARVIS_TELEMETRY_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}

	// Security: the shared secret should never live in the config file in production.
	if v := os.Getenv("JARVIS_SECURITY_API_KEY"); v != "" {
		cfg.Security.APIKey = v
	}
	if v := os.Getenv("JARVIS_SECURITY_API_KEY_HASH"); v != "" {
		cfg.Security.APIKeyHash = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.DeviceControl.TimeoutSeconds < 1 {
		errs = append(errs, "device_control.timeout_seconds must be positive")
	}
	if c.DeviceControl.DefaultBrightness < 0 || c.DeviceControl.DefaultBrightness > 255 {
		errs = append(errs, "device_control.default_brightness must be between 0 and 255")
	}

	switch c.Secrets.Backend {
	case "file":
		if c.Secrets.File.Path == "" {
			errs = append(errs, "secrets.file.path is required for the file backend")
		}
	case "aws":
	default:
		errs = append(errs, "secrets.backend must be \"file\" or \"aws\"")
	}
	if c.Secrets.SecretID == "" {
		errs = append(errs, "secrets.secret_id is required")
	}

	if c.Pipeline.MaxCommandsPerSession < 1 {
		errs = append(errs, "pipeline.max_commands_per_session must be positive")
	}
	if c.Pipeline.MaxInputLength < 1 {
		errs = append(errs, "pipeline.max_input_length must be positive")
	}
	if c.Pipeline.MaxBatchSize < 1 {
		errs = append(errs, "pipeline.max_batch_size must be positive")
	}

	if !validSeverity(c.Audit.EscalationThreshold) {
		errs = append(errs, "audit.escalation_threshold must be one of "+strings.Join(severities, ", "))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// A device-control gateway that can unlock doors is never exposed without a key.
	const minAPIKeyLength = 16
	switch {
	case c.Security.APIKey == "" && c.Security.APIKeyHash == "":
		errs = append(errs, "security.api_key or security.api_key_hash is required (set JARVIS_SECURITY_API_KEY)")
	case c.Security.APIKey != "" && len(c.Security.APIKey) < minAPIKeyLength:
		errs = append(errs, "security.api_key must be at least 16 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validSeverity(s string) bool {
	for _, v := range severities {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// DeviceControlTimeout returns the outbound request timeout as a Duration.
func (c *Config) DeviceControlTimeout() time.Duration {
	return time.Duration(c.DeviceControl.TimeoutSeconds) * time.Second
}
