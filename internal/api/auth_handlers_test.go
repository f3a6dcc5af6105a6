package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podium/internal/models"

	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func registerForTest(t *testing.T, email, password string) TokenResponse {
	t.Helper()
	rr := postJSON(t, testServer.RegisterHandler, "/api/v1/auth/register",
		RegisterRequest{Name: "Registered User", Email: email, Password: password})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func loginUserForTest(t *testing.T, email, password string) TokenResponse {
	t.Helper()
	rr := postJSON(t, testServer.LoginHandler, "/api/v1/auth/login", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rr.Code)

	var res TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func TestRegisterHandler(t *testing.T) {
	t.Run("creates account and signs in", func(t *testing.T) {
		res := registerForTest(t, "register-ok@example.com", "secret1")
		require.NotEmpty(t, res.AccessToken)
		require.NotEmpty(t, res.RefreshToken)
		require.NotNil(t, res.User)
		require.Equal(t, "register-ok@example.com", res.User.Email)

		raw := postJSON(t, testServer.LoginHandler, "/api/v1/auth/login",
			LoginRequest{Email: "register-ok@example.com", Password: "secret1"})
		require.NotContains(t, raw.Body.String(), "password_hash")
		require.NotContains(t, raw.Body.String(), "api_key\"")
	})

	t.Run("duplicate email differing in case", func(t *testing.T) {
		registerForTest(t, "dupe@example.com", "secret1")
		rr := postJSON(t, testServer.RegisterHandler, "/api/v1/auth/register",
			RegisterRequest{Name: "Again", Email: "DUPE@example.com", Password: "secret1"})
		require.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("validation", func(t *testing.T) {
		testCases := []struct {
			name string
			req  RegisterRequest
		}{
			{"missing name", RegisterRequest{Email: "a@example.com", Password: "secret1"}},
			{"missing email", RegisterRequest{Name: "A", Password: "secret1"}},
			{"short password", RegisterRequest{Name: "A", Email: "short@example.com", Password: "12345"}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rr := postJSON(t, testServer.RegisterHandler, "/api/v1/auth/register", tc.req)
				require.Equal(t, http.StatusBadRequest, rr.Code)
			})
		}
	})
}

func TestLoginHandler_Integration(t *testing.T) {
	registered := registerForTest(t, "login-user@example.com", "password")

	t.Run("successful login", func(t *testing.T) {
		res := loginUserForTest(t, "Login-User@example.com", "password")
		require.NotEmpty(t, res.AccessToken)
		require.NotEmpty(t, res.RefreshToken)

		var sessionCount int
		err := testServer.store.GetPool().QueryRow(context.Background(),
			"SELECT COUNT(*) FROM auth_sessions WHERE user_id = $1", registered.User.ID).Scan(&sessionCount)
		require.NoError(t, err)
		require.Equal(t, 2, sessionCount, "register and login each create a session")
	})

	t.Run("invalid password", func(t *testing.T) {
		rr := postJSON(t, testServer.LoginHandler, "/api/v1/auth/login",
			LoginRequest{Email: "login-user@example.com", Password: "wrong_password"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := postJSON(t, testServer.LoginHandler, "/api/v1/auth/login",
			LoginRequest{Email: "nobody@example.com", Password: "password"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRefreshTokenHandler_Integration(t *testing.T) {
	registerForTest(t, "refresh-user@example.com", "strongpassword123")
	loginResp := loginUserForTest(t, "refresh-user@example.com", "strongpassword123")

	rr := postJSON(t, testServer.RefreshTokenHandler, "/api/v1/auth/refresh",
		RefreshTokenRequest{RefreshToken: loginResp.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code)

	var rotated TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, loginResp.RefreshToken, rotated.RefreshToken)

	rr = postJSON(t, testServer.RefreshTokenHandler, "/api/v1/auth/refresh",
		RefreshTokenRequest{RefreshToken: loginResp.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code, "old refresh token must stop working")

	rr = postJSON(t, testServer.LogoutHandler, "/api/v1/auth/logout",
		RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = postJSON(t, testServer.RefreshTokenHandler, "/api/v1/auth/refresh",
		RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code, "logged out token must stop working")
}

func TestAuthSessionHandlers_Integration(t *testing.T) {
	registered := registerForTest(t, "devices@example.com", "password123")
	loginResp := loginUserForTest(t, "devices@example.com", "password123")
	router := testServer.Routes(nil)

	reqList := httptest.NewRequest("GET", "/api/v1/auth/sessions", nil)
	reqList.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	rrList := httptest.NewRecorder()
	router.ServeHTTP(rrList, reqList)

	require.Equal(t, http.StatusOK, rrList.Code)
	var sessions []models.AuthSession
	require.NoError(t, json.Unmarshal(rrList.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)

	reqDelete := httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/auth/sessions/%s", sessions[1].ID), nil)
	reqDelete.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	rrDelete := httptest.NewRecorder()
	router.ServeHTTP(rrDelete, reqDelete)
	require.Equal(t, http.StatusNoContent, rrDelete.Code)

	remaining, err := testServer.store.ListAuthSessionsForUser(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	reqTerminate := httptest.NewRequest("POST", "/api/v1/auth/sessions/terminate_all", nil)
	reqTerminate.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	rrTerminate := httptest.NewRecorder()
	router.ServeHTTP(rrTerminate, reqTerminate)
	require.Equal(t, http.StatusNoContent, rrTerminate.Code)

	remaining, err = testServer.store.ListAuthSessionsForUser(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestAuthMiddleware(t *testing.T) {
	router := testServer.Routes(nil)

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}
