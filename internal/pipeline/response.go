package pipeline

import (
	"time"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/executor"
)

// Code is a machine-readable failure reason.
type Code string

// Error codes carried in Response.ErrorCode.
const (
	CodeInvalidCommand  Code = "INVALID_COMMAND"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"
	CodeMissingBody     Code = "MISSING_BODY"
	CodeInvalidJSON     Code = "INVALID_JSON"
	CodeInternalError   Code = "INTERNAL_ERROR"
	CodeUnknownCommand  Code = "UNKNOWN_COMMAND"
	CodeUpstreamError   Code = "UPSTREAM_ERROR"
)

// Response is the envelope returned for a single command.
type Response struct {
	executor.Result
	ErrorCode Code      `json:"error_code,omitempty"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchResponse is the envelope for a batch of structured commands.
// Success is true only when every command succeeded.
type BatchResponse struct {
	Success   bool        `json:"success"`
	Results   []*Response `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// RequestInfo describes where a request came from, for audit context.
type RequestInfo struct {
	SourceIP  string
	UserAgent string
	RequestID string
}

// Context returns a fresh audit context map describing the request.
func (ri RequestInfo) Context() map[string]any {
	return map[string]any{
		"source_ip":  orUnknown(ri.SourceIP),
		"user_agent": orUnknown(ri.UserAgent),
		"request_id": ri.RequestID,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// codeFor maps an executor failure onto a response code.
func codeFor(f executor.Failure) Code {
	switch f {
	case executor.FailureNone:
		return ""
	case executor.FailureUnknown:
		return CodeUnknownCommand
	case executor.FailureUpstream:
		return CodeUpstreamError
	default:
		return CodeInvalidCommand
	}
}
