package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podium/internal/feedback"
	"podium/internal/models"
	"podium/internal/quota"
	"podium/internal/transcription"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// twelveWords spoken over five seconds is 144 wpm with no filler words.
func twelveWords() *transcription.Transcript {
	text := "I led the migration of our billing system to a new platform"
	words := strings.Fields(text)
	tw := make([]transcription.Word, len(words))
	for i, w := range words {
		tw[i] = transcription.Word{Text: w, Start: int64(i * 400), End: int64(i*400 + 300)}
	}
	return &transcription.Transcript{ID: "tx-1", Text: text, Words: tw[:12], DurationMs: 5000}
}

func goodFeedback() feedback.Result {
	return feedback.Result{Feedback: "Clear and structured.", Improvements: "Quantify the impact."}
}

type submitForm struct {
	question string
	apiKey   string
	audio    []byte
	noAudio  bool
	legacy   bool
}

func newSubmitRequest(t *testing.T, u *testUser, f submitForm) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	questionField, keyField := "question_text", "api_key"
	if f.legacy {
		questionField, keyField = "questionText", "geminiApiKey"
	}
	if f.question != "" {
		require.NoError(t, writer.WriteField(questionField, f.question))
	}
	if f.apiKey != "" {
		require.NoError(t, writer.WriteField(keyField, f.apiKey))
	}
	if !f.noAudio {
		audio := f.audio
		if audio == nil {
			audio = []byte("RIFF....WAVEfmt fake audio")
		}
		part, err := writer.CreateFormFile("audio", "answer.webm")
		require.NoError(t, err)
		part.Write(audio)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/interview/submit", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(context.WithValue(req.Context(), userContextKey, u.Claims))
}

func submit(t *testing.T, u *testUser, f submitForm) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.SubmitAnswerHandler).ServeHTTP(rr, newSubmitRequest(t, u, f))
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var msg MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	return msg.Msg
}

func loadUser(t *testing.T, id int64) *models.User {
	t.Helper()
	user, err := testServer.store.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func TestSubmitAnswer_Success(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)
	testFeedback.set(goodFeedback(), nil)

	rr := submit(t, u, submitForm{question: "Tell me about a migration you led."})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res AnalysisResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, 144, res.WPM)
	require.Zero(t, res.FillerWordCount)
	require.Equal(t, "Clear and structured.", res.Feedback)
	require.Equal(t, "Quantify the impact.", res.Improvements)
	require.Equal(t, UsageInfo{CurrentUsage: 1, DailyLimit: testDailyLimit}, res.Usage)
	require.Empty(t, res.Warnings)

	require.NotNil(t, res.Reward)
	require.Equal(t, 20, res.Reward.PointsAwarded)
	require.Equal(t, 1, res.Reward.Streak)
	require.ElementsMatch(t, []string{models.BadgeFirstStep, models.BadgeEloquent}, res.Reward.NewBadges)
	require.Equal(t, testServerKey, testFeedback.lastKey())

	user := loadUser(t, u.ID)
	require.Equal(t, 20, user.Points)
	require.Equal(t, 1, user.UsageCount)

	sessions, err := testServer.store.ListPracticeSessions(context.Background(), u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, res.SessionID, sessions[0].ID)

	events, err := testServer.store.GetEventsSince(context.Background(), u.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "reward_granted", events[0].EventType)

	require.Zero(t, uploadedFiles(t), "temporary audio must be removed")
}

func TestSubmitAnswer_LegacyFieldNames(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)
	testFeedback.set(goodFeedback(), nil)

	rr := submit(t, u, submitForm{question: "Why this company?", apiKey: testValidKey, legacy: true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, testValidKey, testFeedback.lastKey())

	var res AnalysisResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.True(t, res.Usage.Unlimited)
	require.Zero(t, loadUser(t, u.ID).UsageCount, "a verified key must not consume the allowance")
}

func TestSubmitAnswer_MissingInputDoesNotConsumeQuota(t *testing.T) {
	u := createTestUser(t)

	testCases := []struct {
		name string
		form submitForm
	}{
		{"no question", submitForm{}},
		{"blank question", submitForm{question: "   "}},
		{"no audio", submitForm{question: "Why?", noAudio: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := submit(t, u, tc.form)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Equal(t, msgMissingInput, decodeMessage(t, rr))
		})
	}
	require.Zero(t, loadUser(t, u.ID).UsageCount)
}

func TestSubmitAnswer_QuotaExceeded(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)
	testFeedback.set(goodFeedback(), nil)

	for i := 1; i <= testDailyLimit; i++ {
		rr := submit(t, u, submitForm{question: fmt.Sprintf("Question %d", i)})
		require.Equal(t, http.StatusOK, rr.Code, "submission %d", i)
	}

	rr := submit(t, u, submitForm{question: "One too many"})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, testDailyLimit, loadUser(t, u.ID).UsageCount)
	require.Zero(t, uploadedFiles(t))
}

func TestSubmitAnswer_InvalidKeyFallsBackToDefault(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)
	testFeedback.set(goodFeedback(), nil)

	rr := submit(t, u, submitForm{question: "Strengths?", apiKey: "not-a-real-key"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, testServerKey, testFeedback.lastKey())
	require.Equal(t, 1, loadUser(t, u.ID).UsageCount)
}

func TestSubmitAnswer_NoDefaultCredential(t *testing.T) {
	original := testServer.gate
	testServer.gate = quota.NewGate(testServer.store, testVerifier, quota.Options{
		DailyLimit: testDailyLimit,
		Logger:     zerolog.Nop(),
	})
	t.Cleanup(func() { testServer.gate = original })

	u := createTestUser(t)

	rr := submit(t, u, submitForm{question: "Weaknesses?"})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = submit(t, u, submitForm{question: "Weaknesses?", apiKey: "bogus"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, msgInvalidUserKey, decodeMessage(t, rr))

	req := httptest.NewRequest("GET", "/api/v1/interview/check-quota", nil)
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, u.Claims))
	qr := httptest.NewRecorder()
	http.HandlerFunc(testServer.CheckQuotaHandler).ServeHTTP(qr, req)
	require.Equal(t, http.StatusOK, qr.Code)

	var status quota.Status
	require.NoError(t, json.Unmarshal(qr.Body.Bytes(), &status))
	require.True(t, status.RequiresAPIKey)
	require.NotEmpty(t, status.Message)
}

func TestSubmitAnswer_TranscriptionFailureRemovesUpload(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(nil, fmt.Errorf("%w: %v", transcription.ErrTranscriptionFailed, errTranscriptionDown))
	t.Cleanup(func() { testTranscriber.set(twelveWords(), nil) })

	rr := submit(t, u, submitForm{question: "Describe a conflict."})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, msgAnalyzeFailed, decodeMessage(t, rr))
	require.Zero(t, uploadedFiles(t))

	sessions, err := testServer.store.ListPracticeSessions(context.Background(), u.ID, 10, 0)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestSubmitAnswer_FeedbackFailures(t *testing.T) {
	testTranscriber.set(twelveWords(), nil)
	t.Cleanup(func() { testFeedback.set(goodFeedback(), nil) })

	testCases := []struct {
		name       string
		apiKey     string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"user key rejected", testValidKey, feedback.ErrInvalidKey, http.StatusBadRequest, msgInvalidUserKey},
		{"default key rejected", "", feedback.ErrInvalidKey, http.StatusBadGateway, msgFeedbackFailed},
		{"provider down", "", feedback.ErrProvider, http.StatusBadGateway, msgFeedbackFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := createTestUser(t)
			testFeedback.set(feedback.Result{}, tc.err)

			rr := submit(t, u, submitForm{question: "Where do you see yourself?", apiKey: tc.apiKey})
			require.Equal(t, tc.wantStatus, rr.Code)
			require.Equal(t, tc.wantMsg, decodeMessage(t, rr))
			require.Zero(t, uploadedFiles(t))
		})
	}
}

func TestSubmitAnswer_MalformedModelOutput(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Sure! Here is my take: great answer"}]}}]}`)
	}))
	defer gemini.Close()

	original := testServer.feedback
	testServer.feedback = feedback.NewClient(feedback.Options{BaseURL: gemini.URL, HTTPClient: gemini.Client()})
	t.Cleanup(func() { testServer.feedback = original })

	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)

	rr := submit(t, u, submitForm{question: "What motivates you?"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res AnalysisResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, feedback.PlaceholderFeedback, res.Feedback)
	require.Equal(t, feedback.PlaceholderImprovements, res.Improvements)
	require.NotNil(t, res.Reward)
}

func TestSubmitAnswer_TooLarge(t *testing.T) {
	u := createTestUser(t)
	audio := bytes.Repeat([]byte("a"), int(testServer.config.Storage.MaxUploadBytes)+1)

	rr := submit(t, u, submitForm{question: "Big answer", audio: audio})
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Zero(t, uploadedFiles(t))
	require.Zero(t, loadUser(t, u.ID).UsageCount)
}

func TestCheckQuotaHandler(t *testing.T) {
	u := createTestUser(t)
	testTranscriber.set(twelveWords(), nil)
	testFeedback.set(goodFeedback(), nil)

	check := func() quota.Status {
		req := httptest.NewRequest("GET", "/api/v1/interview/check-quota", nil)
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, u.Claims))
		rr := httptest.NewRecorder()
		http.HandlerFunc(testServer.CheckQuotaHandler).ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var status quota.Status
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		return status
	}

	require.Equal(t, quota.Status{CurrentUsage: 0, DailyLimit: testDailyLimit}, check())

	require.Equal(t, http.StatusOK, submit(t, u, submitForm{question: "Q"}).Code)
	require.Equal(t, quota.Status{CurrentUsage: 1, DailyLimit: testDailyLimit}, check())

	require.NoError(t, testServer.store.SetAPIKey(context.Background(), u.ID, testValidKey, loadUser(t, u.ID).CreatedAt))
	require.True(t, check().Unlimited)
}
