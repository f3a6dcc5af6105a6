package api

import (
	"net/http"

	"podium/internal/auth"
	"podium/internal/websocket"
)

// ServeWsHandler upgrades an authenticated connection. Browsers cannot set
// headers on websocket requests, so the access token comes as ?token=.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "token query parameter required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
	if err != nil {
		s.log.Debug().Err(err).Msg("ws connection attempt with invalid token")
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.UserID)
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
