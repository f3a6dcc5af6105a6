package api

import (
	"errors"
	"fmt"
	"net/http"

	"podium/internal/database"
	"podium/internal/feedback"
	"podium/internal/gamification"
	"podium/internal/quota"
	"podium/internal/speech"
	"podium/internal/storage"

	"github.com/google/uuid"
)

const (
	multipartMemory = 32 << 20
	apiKeyHeader    = "X-Gemini-Api-Key"

	msgMissingInput   = "Missing audio file or question text."
	msgAnalyzeFailed  = "Error analyzing audio."
	msgFeedbackFailed = "Error generating AI feedback. Please try again."
	msgInvalidUserKey = "Your custom API key is invalid. Please check your Gemini API key in Settings and try again."
	msgNeedAPIKey     = "No Gemini API key available. Please add your own API key in Settings to use this feature."
	msgRewardWarning  = "Your session was saved but rewards could not be updated."
)

type UsageInfo struct {
	CurrentUsage int  `json:"current_usage" example:"4"`
	DailyLimit   int  `json:"daily_limit" example:"10"`
	Unlimited    bool `json:"unlimited"`
}

type AnalysisResponse struct {
	SessionID       uuid.UUID            `json:"session_id" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
	Transcript      string               `json:"transcript"`
	WPM             int                  `json:"wpm" example:"142"`
	FillerWordCount int                  `json:"filler_word_count" example:"3"`
	FoundFillers    []string             `json:"found_fillers"`
	Feedback        string               `json:"feedback"`
	Improvements    string               `json:"improvements"`
	Reward          *gamification.Reward `json:"reward,omitempty"`
	Usage           UsageInfo            `json:"usage"`
	Warnings        []string             `json:"warnings,omitempty"`
}

// @Summary      Submit a recorded answer
// @Description  Transcribes the audio, measures pace and filler words, asks the AI for feedback, stores the session and grants rewards. Uses the daily free allowance unless a verified personal Gemini key is available.
// @Tags         interview
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        audio          formData  file    true   "Recorded answer"
// @Param        question_text  formData  string  true   "Question that was answered"
// @Param        api_key        formData  string  false  "Personal Gemini API key for this request"
// @Success      200            {object}  AnalysisResponse
// @Failure      400            {object}  MessageResponse
// @Failure      403            {object}  MessageResponse
// @Failure      413            {object}  MessageResponse
// @Failure      429            {object}  MessageResponse
// @Failure      500            {object}  MessageResponse
// @Failure      502            {object}  MessageResponse
// @Router       /interview/submit [post]
func (s *Server) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	maxBytes := s.config.Storage.MaxUploadBytes

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Audio file is too large.")
			return
		}
		writeMessage(w, http.StatusBadRequest, msgMissingInput)
		return
	}
	defer r.MultipartForm.RemoveAll()

	question := formValue(r, "question_text", "questionText")
	file, header, err := r.FormFile("audio")
	if err != nil || question == "" {
		if file != nil {
			file.Close()
		}
		writeMessage(w, http.StatusBadRequest, msgMissingInput)
		return
	}
	defer file.Close()
	if header.Size > maxBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, "Audio file is too large.")
		return
	}

	requestKey := formValue(r, "api_key", "geminiApiKey")
	if requestKey == "" {
		requestKey = r.Header.Get(apiKeyHeader)
	}

	decision, err := s.gate.Admit(r.Context(), claims.UserID, requestKey)
	if err != nil {
		s.writeGateError(w, claims.UserID, decision, err)
		return
	}
	s.metrics.quotaDecision(quotaOutcome(decision))

	uploadID := s.storage.NewID()
	if _, err := s.storage.Save(uploadID, file, maxBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Audio file is too large.")
			return
		}
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to store upload")
		writeMessage(w, http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}
	defer func() {
		if err := s.storage.Delete(uploadID); err != nil {
			s.log.Warn().Err(err).Str("upload_id", uploadID).Msg("failed to remove temporary upload")
		}
	}()

	audio, err := s.storage.Open(uploadID)
	if err != nil {
		s.log.Error().Err(err).Str("upload_id", uploadID).Msg("failed to reopen upload")
		writeMessage(w, http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}
	transcript, err := s.transcriber.Transcribe(r.Context(), audio)
	audio.Close()
	if err != nil {
		s.metrics.submission("transcription_failed")
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("transcription failed")
		writeMessage(w, http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}

	delivery := speech.Analyze(transcript.WordTexts(), transcript.DurationMs)

	result, err := s.feedback.Generate(r.Context(), decision.Credential.Key, question, transcript.Text)
	if err != nil {
		s.metrics.submission("feedback_failed")
		if errors.Is(err, feedback.ErrInvalidKey) && decision.Credential.IsUserSupplied() {
			writeMessage(w, http.StatusBadRequest, msgInvalidUserKey)
			return
		}
		s.log.Error().
			Err(err).
			Int64("user_id", claims.UserID).
			Str("credential_source", string(decision.Credential.Source)).
			Msg("feedback generation failed")
		writeMessage(w, http.StatusBadGateway, msgFeedbackFailed)
		return
	}
	if result.Fallback {
		s.metrics.feedbackFallback()
	}

	session, err := s.store.CreatePracticeSession(r.Context(), database.CreatePracticeSessionParams{
		UserID:          claims.UserID,
		QuestionText:    question,
		Transcript:      transcript.Text,
		WPM:             delivery.WPM,
		FillerWordCount: delivery.FillerWordCount,
		FoundFillers:    delivery.FoundFillers,
		Feedback:        result.Feedback,
		Improvements:    result.Improvements,
	})
	if err != nil {
		s.metrics.submission("persist_failed")
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to save practice session")
		writeMessage(w, http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}

	resp := AnalysisResponse{
		SessionID:       session.ID,
		Transcript:      session.Transcript,
		WPM:             session.WPM,
		FillerWordCount: session.FillerWordCount,
		FoundFillers:    session.FoundFillers,
		Feedback:        session.Feedback,
		Improvements:    session.Improvements,
		Usage: UsageInfo{
			CurrentUsage: decision.Usage,
			DailyLimit:   decision.Limit,
			Unlimited:    decision.Unlimited,
		},
	}

	reward, err := s.updater.Apply(r.Context(), claims.UserID, gamification.Metrics{
		WPM:             delivery.WPM,
		FillerWordCount: delivery.FillerWordCount,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to apply rewards")
		resp.Warnings = append(resp.Warnings, msgRewardWarning)
	} else {
		resp.Reward = &reward
		s.metrics.badges(reward.NewBadges)
	}

	s.metrics.submission("ok")
	s.log.Info().
		Int64("user_id", claims.UserID).
		Str("session_id", session.ID.String()).
		Int("wpm", delivery.WPM).
		Int("fillers", delivery.FillerWordCount).
		Bool("fallback_feedback", result.Fallback).
		Msg("answer analyzed")

	writeJSON(w, http.StatusOK, resp)
}

func quotaOutcome(d quota.Decision) string {
	if d.Unlimited {
		return "unlimited"
	}
	return "admitted"
}

func (s *Server) writeGateError(w http.ResponseWriter, userID int64, d quota.Decision, err error) {
	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		s.metrics.quotaDecision("exceeded")
		writeMessage(w, http.StatusTooManyRequests, fmt.Sprintf(
			"Daily limit of %d free submissions reached. Add your own Gemini API key in Settings or try again tomorrow.", d.Limit))
	case errors.Is(err, quota.ErrInvalidCredential):
		s.metrics.quotaDecision("invalid_credential")
		writeMessage(w, http.StatusBadRequest, msgInvalidUserKey)
	case errors.Is(err, quota.ErrCredentialRequired):
		s.metrics.quotaDecision("credential_required")
		writeMessage(w, http.StatusForbidden, msgNeedAPIKey)
	case errors.Is(err, quota.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found.")
	default:
		s.log.Error().Err(err).Int64("user_id", userID).Msg("usage gate failed")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
	}
}

// @Summary      Check the daily allowance
// @Description  Reports how many free submissions the user made today. Users with a verified personal key are unlimited.
// @Tags         interview
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  quota.Status
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {object}  MessageResponse
// @Failure      500  {object}  MessageResponse
// @Router       /interview/check-quota [get]
func (s *Server) CheckQuotaHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	status, err := s.gate.Status(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, quota.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to read quota status")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
