package command

import (
	"context"
	"fmt"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
)

// DefaultMaxCommandsPerSession is the session ceiling used when none is configured.
const DefaultMaxCommandsPerSession = 100

// Validator checks commands against the schema, the action allow-list and
// the per-session ceiling.
type Validator struct {
	allowed  map[string]bool
	ceiling  int
	recorder audit.Recorder
}

// NewValidator returns a Validator. A non-positive ceiling selects the
// default; a nil recorder discards events.
func NewValidator(ceiling int, recorder audit.Recorder) *Validator {
	if ceiling <= 0 {
		ceiling = DefaultMaxCommandsPerSession
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}

	allowed := make(map[string]bool, len(AllowedActions))
	for _, a := range AllowedActions {
		allowed[a] = true
	}

	return &Validator{allowed: allowed, ceiling: ceiling, recorder: recorder}
}

// Ceiling returns the maximum number of commands a session may validate.
func (v *Validator) Ceiling() int {
	return v.ceiling
}

// Validate reports whether cmd may be executed within s. It returns nil when
// the command is valid, or an error wrapping ErrMissingField,
// ErrInvalidAction or ErrRateLimited.
//
// The session counter is incremented on every call, before any check. Once
// the counter passes the ceiling every later call on s is rejected.
func (v *Validator) Validate(ctx context.Context, s *Session, cmd Command) error {
	s.CommandCount++

	required := []struct{ field, value string }{
		{"action", cmd.Action},
		{"target", cmd.Target},
	}
	for _, r := range required {
		if r.value == "" {
			v.recorder.Record(ctx, audit.Event{
				Type:      audit.EventCommandValidationFailed,
				Message:   "Missing required field: " + r.field,
				Severity:  audit.SeverityHigh,
				SessionID: s.ID,
				Context:   map[string]any{"missing_field": r.field, "action": cmd.Action, "target": cmd.Target},
			})
			return fmt.Errorf("%w: %s", ErrMissingField, r.field)
		}
	}

	if !v.allowed[cmd.Action] {
		v.recorder.Record(ctx, audit.Event{
			Type:      audit.EventInvalidAction,
			Message:   "Invalid action attempted: " + cmd.Action,
			Severity:  audit.SeverityHigh,
			SessionID: s.ID,
			Context:   map[string]any{"action": cmd.Action, "target": cmd.Target},
		})
		return fmt.Errorf("%w: %s", ErrInvalidAction, cmd.Action)
	}

	if s.CommandCount > v.ceiling {
		v.recorder.Record(ctx, audit.Event{
			Type:      audit.EventRateLimitExceeded,
			Message:   "Session rate limit exceeded",
			Severity:  audit.SeverityHigh,
			SessionID: s.ID,
			Context:   map[string]any{"command_count": s.CommandCount, "limit": v.ceiling},
		})
		return fmt.Errorf("%w: %d > %d", ErrRateLimited, s.CommandCount, v.ceiling)
	}

	return nil
}
