package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/pipeline"
)

// Error is the envelope for failures raised by the HTTP layer itself, before
// a command reaches the pipeline. It shares success/error/error_code with
// pipeline.Response.
type Error struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorCode string    `json:"error_code"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTP-layer error codes. Pipeline codes are reused where they apply.
const (
	CodeMissingBody      = string(pipeline.CodeMissingBody)
	CodeInvalidJSON      = string(pipeline.CodeInvalidJSON)
	CodeInvalidCommand   = string(pipeline.CodeInvalidCommand)
	CodeInternal         = string(pipeline.CodeInternalError)
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Success:   false,
		Error:     message,
		ErrorCode: code,
		Timestamp: time.Now().UTC(),
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusBadRequest, code, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

// writeInternalError writes a 500 error response. The message is generic;
// callers log the cause.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
}
