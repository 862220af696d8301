package audit

import (
	"context"
	"time"
)

// Event types raised by the pipeline.
const (
	EventCommandReceived         = "COMMAND_RECEIVED"
	EventIntentParsed            = "INTENT_PARSED"
	EventUnknownCommand          = "UNKNOWN_COMMAND"
	EventSuspiciousInput         = "SUSPICIOUS_INPUT_DETECTED"
	EventInputTooLong            = "INPUT_TOO_LONG"
	EventCommandRejected         = "COMMAND_REJECTED"
	EventCommandValidationFailed = "COMMAND_VALIDATION_FAILED"
	EventInvalidAction           = "INVALID_ACTION"
	EventRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	EventUnsupportedType         = "UNSUPPORTED_COMMAND_TYPE"
	EventConfigRetrieved         = "HA_CONFIG_RETRIEVED"
	EventConfigError             = "HA_CONFIG_ERROR"
	EventCredentialsInvalidated  = "HA_CONFIG_INVALIDATED"
	EventCommandExecuting        = "HA_COMMAND_EXECUTING"
	EventCommandSuccess          = "HA_COMMAND_SUCCESS"
	EventCommandFailed           = "HA_COMMAND_FAILED"
	EventStateRetrieved          = "HA_STATE_RETRIEVED"
	EventUnauthorizedAccess      = "UNAUTHORIZED_ACCESS"
	EventInternalError           = "INTERNAL_ERROR"
)

// Event is a single security-relevant occurrence.
//
// Context must never carry credentials. Callers mask URLs before adding them.
type Event struct {
	Type      string         `json:"event_type"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	SessionID string         `json:"session_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Recorder accepts security events. Implementations must not block.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Nop is a Recorder that discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) {}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Event)

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, e Event) { f(ctx, e) }
