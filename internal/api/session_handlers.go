package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	_ "podium/internal/models"
)

// @Summary      List signed-in devices
// @Description  Gets the active refresh sessions of the current user so they can manage devices.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.AuthSession
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {object}  MessageResponse
// @Router       /auth/sessions [get]
func (s *Server) ListAuthSessionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sessions, err := s.store.ListAuthSessionsForUser(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to list auth sessions")
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// @Summary      Sign out one device
// @Description  Revokes one of the current user's refresh sessions.
// @Tags         auth
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "ID of the session to terminate" format(uuid)
// @Success      204        {null}    nil     "No Content"
// @Failure      400        {object}  MessageResponse
// @Failure      401        {string}  string "Unauthorized"
// @Failure      500        {object}  MessageResponse
// @Router       /auth/sessions/{sessionId} [delete]
func (s *Server) DeleteAuthSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if err := s.store.DeleteAuthSessionByID(r.Context(), sessionID, claims.UserID); err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to delete auth session")
		writeMessage(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Sign out everywhere
// @Description  Revokes every refresh session of the current user.
// @Tags         auth
// @Security     BearerAuth
// @Success      204  {null}    nil "No Content"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {object}  MessageResponse
// @Router       /auth/sessions/terminate_all [post]
func (s *Server) TerminateAllAuthSessionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	if err := s.store.DeleteAllAuthSessionsForUser(r.Context(), claims.UserID); err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to terminate auth sessions")
		writeMessage(w, http.StatusInternalServerError, "Failed to terminate all sessions")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
