package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"podium/internal/database"
	"podium/internal/feedback"
	"podium/internal/logger"
	"podium/internal/models"
)

// ProfileResponse is the user row without secrets, plus whether a personal
// key is on file.
type ProfileResponse struct {
	*models.User
	HasAPIKey bool `json:"has_api_key"`
}

// @Summary      Get current user profile
// @Description  Returns the signed-in user's profile, progress and badges. Secrets are never included.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {object}  MessageResponse
// @Failure      500  {object}  MessageResponse
// @Router       /user/me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to load profile")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{User: user, HasAPIKey: user.HasVerifiedAPIKey()})
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" example:"Ada Lovelace"`
	Username *string `json:"username,omitempty" example:"ada"`
}

// @Summary      Update profile
// @Description  Changes the display name and/or username. Send an empty username to clear it.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updateProfileRequest  body      UpdateProfileRequest  true  "Fields to change"
// @Success      200                   {object}  ProfileResponse
// @Failure      400                   {object}  MessageResponse
// @Failure      404                   {object}  MessageResponse
// @Failure      409                   {object}  MessageResponse
// @Failure      500                   {object}  MessageResponse
// @Router       /user/me [patch]
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeMessage(w, http.StatusBadRequest, "Name cannot be empty.")
			return
		}
		req.Name = &name
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		req.Username = &username
	}

	user, err := s.store.UpdateProfile(r.Context(), database.UpdateProfileParams{
		UserID:   claims.UserID,
		Name:     req.Name,
		Username: req.Username,
	})
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, "Username is already taken.")
		return
	case errors.Is(err, database.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	case err != nil:
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to update profile")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{User: user, HasAPIKey: user.HasVerifiedAPIKey()})
}

type APIKeyRequest struct {
	APIKey string `json:"api_key" example:"AIzaSy..."`
}

// @Summary      Save a personal Gemini key
// @Description  Verifies the key with a small probe request and stores it. A verified key removes the daily limit.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        apiKeyRequest  body      APIKeyRequest  true  "Gemini API key"
// @Success      200            {object}  MessageResponse
// @Failure      400            {object}  MessageResponse
// @Failure      502            {object}  MessageResponse
// @Failure      500            {object}  MessageResponse
// @Router       /user/api-key [put]
func (s *Server) SetAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req APIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		writeMessage(w, http.StatusBadRequest, "API key is required.")
		return
	}

	if err := s.verifier.Verify(r.Context(), key); err != nil {
		if errors.Is(err, feedback.ErrInvalidKey) {
			writeMessage(w, http.StatusBadRequest, "Invalid API key. Please check your Gemini API key and try again.")
			return
		}
		s.log.Warn().
			Err(err).
			Int64("user_id", claims.UserID).
			Str("api_key", logger.MaskSecret(key)).
			Msg("could not verify api key")
		writeMessage(w, http.StatusBadGateway, "Could not verify the API key right now. Please try again.")
		return
	}

	if err := s.store.SetAPIKey(r.Context(), claims.UserID, key, time.Now()); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to store api key")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	s.log.Info().Int64("user_id", claims.UserID).Str("api_key", logger.MaskSecret(key)).Msg("api key saved")
	writeMessage(w, http.StatusOK, "API key saved and verified.")
}

// @Summary      Remove the personal Gemini key
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      500  {object}  MessageResponse
// @Router       /user/api-key [delete]
func (s *Server) ClearAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	if err := s.store.ClearAPIKey(r.Context(), claims.UserID); err != nil && !errors.Is(err, database.ErrUserNotFound) {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to clear api key")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeMessage(w, http.StatusOK, "API key removed.")
}
