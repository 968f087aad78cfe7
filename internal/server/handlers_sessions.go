package server

import (
	"net/http"

	"github.com/google/uuid"
)

// handleListSessions lists recent evaluation runs, newest first
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50, 200)

	sessions, err := s.db.ListSessions(r.Context(), limit)
	if err != nil {
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleGetSession retrieves one evaluation run by session ID
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := s.db.GetSession(r.Context(), sessionID)
	if err != nil {
		s.dbError(w, err)
		return
	}
	if session == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, session)
}
