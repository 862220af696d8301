package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/pipeline"
)

// missingCommandMessage matches the pipeline's blank-input rejection.
const missingCommandMessage = "Bad Request: command parameter is required"

// intentRequest is the body of POST /api/v1/intent.
type intentRequest struct {
	Command string `json:"command"`
}

// handleIntent runs a natural-language command through the pipeline.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req intentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, CodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	resp, err := s.pipeline.ProcessText(r.Context(), req.Command, s.requestInfo(r))
	if err != nil {
		s.logger.Error("intent processing failed", "request_id", requestID(r.Context()), "error", err)
		writeInternalError(w)
		return
	}

	s.writeResponse(w, resp)
}

// handleCommands runs one structured command, or a batch when the body has
// a "commands" array. A batch shares one session.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		writeBadRequest(w, CodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	if raw, isBatch := envelope["commands"]; isBatch {
		s.handleBatch(w, r, raw)
		return
	}

	var cmd command.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		writeBadRequest(w, CodeInvalidJSON, fmt.Sprintf("Invalid command: %v", err))
		return
	}

	resp, err := s.pipeline.ProcessCommand(r.Context(), cmd, s.requestInfo(r))
	if err != nil {
		s.logger.Error("command processing failed", "request_id", requestID(r.Context()), "error", err)
		writeInternalError(w)
		return
	}

	s.writeResponse(w, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var cmds []command.Command
	if err := json.Unmarshal(raw, &cmds); err != nil {
		writeBadRequest(w, CodeInvalidJSON, fmt.Sprintf("Invalid commands array: %v", err))
		return
	}
	if len(cmds) == 0 {
		writeBadRequest(w, CodeMissingBody, "Bad Request: commands must not be empty")
		return
	}

	resp, err := s.pipeline.ProcessBatch(r.Context(), cmds, s.requestInfo(r))
	switch {
	case errors.Is(err, pipeline.ErrBatchTooLarge):
		writeBadRequest(w, CodeInvalidCommand, err.Error())
		return
	case err != nil:
		s.logger.Error("batch processing failed", "request_id", requestID(r.Context()), "error", err)
		writeInternalError(w)
		return
	}

	w.Header().Set("X-Session-ID", resp.SessionID)
	writeJSON(w, http.StatusOK, resp)
}

// readBody reads the whole request body. It writes the error response and
// returns false for an empty, oversized or unreadable body.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		writeBadRequest(w, CodeMissingBody, missingCommandMessage)
		return nil, false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeBadRequest(w, CodeMissingBody, "Could not read request body")
		return nil, false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		writeBadRequest(w, CodeMissingBody, missingCommandMessage)
		return nil, false
	}
	return body, true
}

// writeResponse writes a pipeline response with the status its outcome maps to.
func (s *Server) writeResponse(w http.ResponseWriter, resp *pipeline.Response) {
	w.Header().Set("X-Session-ID", resp.SessionID)
	writeJSON(w, StatusFor(resp), resp)
}

// StatusFor maps a pipeline response onto an HTTP status code.
func StatusFor(resp *pipeline.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.ErrorCode {
	case pipeline.CodeUpstreamError:
		return http.StatusBadGateway
	case pipeline.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
