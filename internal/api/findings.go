package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
)

// handleListFindings returns paginated compliance findings with optional filters.
//
// Query parameters:
//   - event_type: exact event type (e.g. UNAUTHORIZED_ACCESS)
//   - min_severity: only findings at or above this level (INFO..CRITICAL)
//   - session_id: findings raised within one session
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	if s.findings == nil {
		s.logger.Error("findings requested but no findings store is configured")
		writeInternalError(w)
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		EventType: q.Get("event_type"),
		SessionID: q.Get("session_id"),
	}

	if v := q.Get("min_severity"); v != "" {
		sev := audit.Severity(strings.ToUpper(v))
		if !sev.Valid() {
			writeBadRequest(w, "INVALID_SEVERITY", "min_severity must be one of INFO, LOW, MEDIUM, HIGH, CRITICAL")
			return
		}
		filter.MinSeverity = sev
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.findings.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list findings", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetFinding returns one finding by id.
func (s *Server) handleGetFinding(w http.ResponseWriter, r *http.Request) {
	if s.findings == nil {
		s.logger.Error("findings requested but no findings store is configured")
		writeInternalError(w)
		return
	}

	f, err := s.findings.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audit.ErrFindingNotFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, "finding not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get finding", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

// handleInvalidateCredentials drops the cached device-control credential so
// the next command fetches it again.
func (s *Server) handleInvalidateCredentials(w http.ResponseWriter, _ *http.Request) {
	if s.credentials == nil {
		s.logger.Error("credential invalidation requested but no provider is configured")
		writeInternalError(w)
		return
	}

	s.credentials.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Credential cache cleared",
	})
}
