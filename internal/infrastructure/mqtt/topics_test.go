package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/config"
)

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"AuditEvent", topics.AuditEvent("RATE_LIMIT_EXCEEDED"), "jarvis/audit/event/rate_limit_exceeded"},
		{"AuditEvent empty", topics.AuditEvent(""), "jarvis/audit/event/unknown"},
		{"AuditEvent wildcard", topics.AuditEvent("a/b+#"), "jarvis/audit/event/a_b__"},
		{"ComplianceFinding", topics.ComplianceFinding("HIGH"), "jarvis/compliance/finding/high"},
		{"SystemStatus", topics.SystemStatus(), "jarvis/system/status"},
		{"AllAuditEvents", topics.AllAuditEvents(), "jarvis/audit/event/+"},
		{"AllComplianceFindings", topics.AllComplianceFindings(), "jarvis/compliance/finding/+"},
		{"AllTopics", topics.AllTopics(), "jarvis/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("jarvis-core"), "online", ""},
		{"offline", buildOfflinePayload("jarvis-core"), "offline", "graceful_shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p statusPayload
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("payload %q is not JSON: %v", tt.payload, err)
			}
			if p.Status != tt.wantStatus || p.Reason != tt.wantReason || p.ClientID != "jarvis-core" {
				t.Errorf("payload = %+v", p)
			}
			if p.Timestamp == "" {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 8883, TLS: true, ClientID: "jarvis-test"},
		Auth:   config.MQTTAuthConfig{Username: "jarvis", Password: "secret"},
	}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.local:8883" {
		t.Errorf("Servers = %v, want ssl://broker.local:8883", opts.Servers)
	}
	if opts.ClientID != "jarvis-test" || opts.Username != "jarvis" {
		t.Errorf("ClientID/Username = %q/%q", opts.ClientID, opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set for TLS broker")
	}
	if opts.ConnectRetryInterval.Seconds() != 1 || opts.MaxReconnectInterval.Seconds() != 60 {
		t.Errorf("reconnect intervals = %v/%v, want 1s/60s defaults", opts.ConnectRetryInterval, opts.MaxReconnectInterval)
	}
}

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.MQTTConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: config.MQTTConfig{QoS: 1}}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "jarvis/x", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "jarvis/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "jarvis/x", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := c.PublishJSON("jarvis/x", map[string]any{"bad": make(chan int)}); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON() with unencodable value error = %v, want ErrPublishFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
