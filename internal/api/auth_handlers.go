package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"podium/internal/auth"
	"podium/internal/database"
	"podium/internal/models"

	"github.com/google/uuid"
)

const (
	refreshTokenTTL   = 7 * 24 * time.Hour
	minPasswordLength = 6
)

type RegisterRequest struct {
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"password123"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyX2lkIjoxLCJlbWFpbCI6ImFkYUBleGFtcGxlLmNvbSJ9...."`
	RefreshToken string       `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q"`
	User         *models.User `json:"user,omitempty"`
}

// issueTokens signs an access token and stores a fresh refresh session.
func (s *Server) issueTokens(r *http.Request, q *database.Queries, user *models.User) (TokenResponse, error) {
	accessToken, err := auth.GenerateJWT(user, s.config.JWT.Secret)
	if err != nil {
		return TokenResponse{}, err
	}

	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		return TokenResponse{}, err
	}

	err = q.CreateAuthSession(r.Context(), database.CreateAuthSessionParams{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// @Summary      Register a new account
// @Description  Creates a user and signs them in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Account details"
// @Success      201              {object}  TokenResponse
// @Failure      400              {object}  MessageResponse
// @Failure      409              {object}  MessageResponse
// @Failure      500              {object}  MessageResponse
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Please enter all fields.")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	var resp TokenResponse
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		user, err := q.CreateUser(r.Context(), database.CreateUserParams{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		resp, err = s.issueTokens(r, q, user)
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrEmailTaken) {
			writeMessage(w, http.StatusConflict, "User already exists.")
			return
		}
		s.log.Error().Err(txErr).Msg("registration failed")
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.log.Info().Int64("user_id", resp.User.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, resp)
}

// @Summary      Logs a user in
// @Description  Authenticates a user and returns a short-lived access token and a long-lived refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {object}  MessageResponse
// @Failure      401            {object}  MessageResponse
// @Failure      500            {object}  MessageResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user for login")
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	resp, err := s.issueTokens(r, s.store.Queries, user)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create login session")
		writeMessage(w, http.StatusInternalServerError, "Failed to process login session")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q"`
}

// @Summary      Refresh access token
// @Description  Exchanges a valid refresh token for a new token pair. The old refresh token stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshTokenRequest   body      RefreshTokenRequest  true  "Refresh Token"
// @Success      200                   {object}  TokenResponse
// @Failure      400                   {object}  MessageResponse
// @Failure      401                   {object}  MessageResponse
// @Failure      500                   {object}  MessageResponse
// @Router       /auth/refresh [post]
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	var resp TokenResponse
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		user, err := q.ConsumeRefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			return err
		}
		if user == nil {
			return database.ErrInvalidRefreshToken
		}

		resp, err = s.issueTokens(r, q, user)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrInvalidRefreshToken) {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		s.log.Error().Err(txErr).Msg("refresh token transaction failed")
		writeMessage(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	resp.User = nil
	writeJSON(w, http.StatusOK, resp)
}

// @Summary      Log out
// @Description  Revokes the given refresh token. Unknown tokens are ignored.
// @Tags         auth
// @Accept       json
// @Param        refreshTokenRequest   body      RefreshTokenRequest  true  "Refresh Token"
// @Success      204                   {null}    nil "No Content"
// @Failure      400                   {object}  MessageResponse
// @Failure      500                   {object}  MessageResponse
// @Router       /auth/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	if err := s.store.DeleteAuthSessionByRefreshToken(r.Context(), req.RefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed to revoke refresh token")
		writeMessage(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
