package command

import "github.com/google/uuid"

// Session scopes rate limiting to one inbound request (or one batch).
//
// A Session is owned by a single request and is not safe for concurrent use.
type Session struct {
	ID           string `json:"session_id"`
	CommandCount int    `json:"command_count"`
}

// NewSession returns a session with a fresh random id and a zero counter.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}
