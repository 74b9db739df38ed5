package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedRequest(t *testing.T, sm *SessionManager, acct *models.Account) *http.Request {
	t.Helper()
	token, _, err := sm.Issue(acct, "203.0.113.7", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMiddleware_ValidToken(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")

	var gotClaims *models.SessionClaims
	handler := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest(t, sm, testSessionAccount()))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "alice", gotClaims.Username)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	handler := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	handler := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	handler := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	handler := Middleware(sm)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	admin := testSessionAccount()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest(t, sm, admin))
	assert.Equal(t, http.StatusOK, rec.Code)

	regular := testSessionAccount()
	regular.IsAdmin = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest(t, sm, regular))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
