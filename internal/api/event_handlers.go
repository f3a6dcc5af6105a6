package api

import (
	"net/http"
	"strconv"

	"podium/internal/database"
)

// @Summary      Get new events
// @Description  Retrieves reward events recorded since a given event ID. Used to catch up after a websocket reconnect.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int  false  "The ID of the last event received. Omit or use 0 to get all events."
// @Param        limit  query     int  false  "Page size, at most 100"
// @Success      200    {array}   database.Event
// @Failure      400    {object}  MessageResponse
// @Failure      401    {string}  string "Unauthorized"
// @Failure      500    {object}  MessageResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid 'since' parameter, must be a number")
		return
	}

	limit := database.MaxEventPage
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}

	events, err := s.store.GetEventsSince(r.Context(), claims.UserID, sinceID, limit)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to load events")
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}
