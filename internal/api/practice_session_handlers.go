package api

import (
	"errors"
	"net/http"
	"strconv"

	"podium/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	_ "podium/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

func pageParams(r *http.Request) (limit, offset int, err error) {
	limit = defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset")
		}
	}
	return limit, offset, nil
}

// @Summary      List practice history
// @Description  Returns the user's recorded sessions, newest first.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Number of sessions to skip"
// @Success      200     {array}   models.PracticeSession
// @Failure      400     {object}  MessageResponse
// @Failure      401     {string}  string "Unauthorized"
// @Failure      500     {object}  MessageResponse
// @Router       /sessions [get]
func (s *Server) ListPracticeSessionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	limit, offset, err := pageParams(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	sessions, err := s.store.ListPracticeSessions(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to list practice sessions")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// @Summary      Get one practice session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID" format(uuid)
// @Success      200        {object}  models.PracticeSession
// @Failure      401        {object}  MessageResponse
// @Failure      404        {object}  MessageResponse
// @Failure      500        {object}  MessageResponse
// @Router       /sessions/{sessionId} [get]
func (s *Server) GetPracticeSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Session not found")
		return
	}

	session, err := s.store.GetPracticeSession(r.Context(), sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to load practice session")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if session == nil {
		writeMessage(w, http.StatusNotFound, "Session not found")
		return
	}
	if session.UserID != claims.UserID {
		writeMessage(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// @Summary      Delete a practice session
// @Description  Removes one of the user's own sessions. Points and badges already earned are kept.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID" format(uuid)
// @Success      200        {object}  MessageResponse
// @Failure      401        {object}  MessageResponse
// @Failure      404        {object}  MessageResponse
// @Failure      500        {object}  MessageResponse
// @Router       /sessions/{sessionId} [delete]
func (s *Server) DeletePracticeSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	// A malformed id cannot name an existing session.
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Session not found")
		return
	}

	err = s.store.DeletePracticeSession(r.Context(), sessionID, claims.UserID)
	switch {
	case errors.Is(err, database.ErrSessionNotFound):
		writeMessage(w, http.StatusNotFound, "Session not found")
		return
	case errors.Is(err, database.ErrNotSessionOwner):
		writeMessage(w, http.StatusUnauthorized, "User not authorized")
		return
	case err != nil:
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to delete practice session")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeMessage(w, http.StatusOK, "Session removed")
}
