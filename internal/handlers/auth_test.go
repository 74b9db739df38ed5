package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aydintok/gatehouse/internal/auth"
	"github.com/aydintok/gatehouse/internal/models"
	"github.com/aydintok/gatehouse/internal/services"
	pkghttp "github.com/aydintok/gatehouse/pkg/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIPExtractor() *pkghttp.ClientIPExtractor {
	return pkghttp.NewClientIPExtractor(nil)
}

func loginRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:51000"
	return req
}

func admittedResult(username string) *services.LoginResult {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &services.LoginResult{
		Token: "signed-token",
		Claims: &models.SessionClaims{
			Username:  username,
			Company:   "acme",
			IsAdmin:   false,
			ClientIP:  "203.0.113.7",
			LoginTime: now,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			},
		},
		QuotaStatus: models.QuotaAcceptedExisting,
	}
}

func TestAuthHandler_Login_Admitted(t *testing.T) {
	var gotIP, gotUA string
	svc := &MockAdmissionService{
		LoginFunc: func(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error) {
			gotIP = ip
			gotUA = userAgent
			return admittedResult(username), nil
		},
	}
	h := NewAuthHandler(svc, testIPExtractor())

	req := loginRequest(t, LoginRequest{Username: "alice", Password: "s3cret"})
	req.Header.Set("User-Agent", "curl/8.0")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "203.0.113.7", gotIP)
	assert.Equal(t, "curl/8.0", gotUA)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "acme", resp.Company)
	assert.False(t, resp.ExpiresAt.IsZero())
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&MockAdmissionService{}, testIPExtractor())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	h := NewAuthHandler(&MockAdmissionService{}, testIPExtractor())

	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, LoginRequest{Username: "alice"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_UnknownAndBadPasswordLookIdentical(t *testing.T) {
	responses := make([]*httptest.ResponseRecorder, 0, 2)
	for _, denial := range []error{models.ErrAccountNotFound, models.ErrBadCredentials} {
		denial := denial
		h := NewAuthHandler(&MockAdmissionService{
			LoginFunc: func(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error) {
				return nil, denial
			},
		}, testIPExtractor())

		rec := httptest.NewRecorder()
		h.Login(rec, loginRequest(t, LoginRequest{Username: "alice", Password: "x"}))
		responses = append(responses, rec)
	}

	assert.Equal(t, http.StatusUnauthorized, responses[0].Code)
	assert.Equal(t, responses[0].Code, responses[1].Code)
	assert.Equal(t, responses[0].Body.String(), responses[1].Body.String())
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", models.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"disabled", models.ErrAccountDisabled, http.StatusForbidden, "account_disabled"},
		{"ip not allowed", models.ErrIPNotAllowed, http.StatusForbidden, "ip_not_allowed"},
		{"trial expired", models.ErrTrialExpired, http.StatusForbidden, "trial_expired"},
		{"quota exceeded", models.ErrIPQuotaExceeded, http.StatusForbidden, "ip_quota_exceeded"},
		{"ip blocked", models.ErrIPBlocked, http.StatusForbidden, "ip_blocked"},
		{"store unavailable", models.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&MockAdmissionService{
				LoginFunc: func(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error) {
					return nil, tt.err
				},
			}, testIPExtractor())

			rec := httptest.NewRecorder()
			h.Login(rec, loginRequest(t, LoginRequest{Username: "alice", Password: "x"}))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp pkghttp.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	sm := auth.NewSessionManager("test-secret-key-32-characters-xx")
	token, _, err := sm.Issue(&models.Account{ID: "acct-1", Username: "alice"}, "203.0.113.7", time.Now())
	require.NoError(t, err)

	var loggedOut string
	h := NewAuthHandler(&MockAdmissionService{
		LogoutFunc: func(ctx context.Context, username, ip string) error {
			loggedOut = username
			return nil
		},
	}, testIPExtractor())

	handler := auth.Middleware(sm)(http.HandlerFunc(h.Logout))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "203.0.113.7:51000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", loggedOut)
}

func TestAuthHandler_Logout_NoSession(t *testing.T) {
	h := NewAuthHandler(&MockAdmissionService{}, testIPExtractor())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Session(t *testing.T) {
	sm := auth.NewSessionManager("test-secret-key-32-characters-xx")
	token, _, err := sm.Issue(&models.Account{ID: "acct-1", Username: "alice", Company: "acme", IsAdmin: true}, "203.0.113.7", time.Now())
	require.NoError(t, err)

	h := NewAuthHandler(&MockAdmissionService{}, testIPExtractor())
	handler := auth.Middleware(sm)(http.HandlerFunc(h.Session))

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "acme", resp.Company)
	assert.True(t, resp.IsAdmin)
	assert.Equal(t, "203.0.113.7", resp.ClientIP)
}
