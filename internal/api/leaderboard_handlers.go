package api

import (
	"net/http"

	_ "podium/internal/models"
)

const leaderboardSize = 20

// @Summary      Leaderboard
// @Description  Top users by points. Ties keep the earlier account first.
// @Tags         leaderboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.LeaderboardEntry
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {object}  MessageResponse
// @Router       /leaderboard [get]
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Leaderboard(r.Context(), leaderboardSize)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load leaderboard")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
