package auth

import (
	"testing"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSessionAccount() *models.Account {
	return &models.Account{
		ID:       "acct-1",
		Username: "alice",
		Company:  "acme",
		IsAdmin:  true,
	}
}

func TestSessionManager_IssueAndValidate(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, issued, err := sm.Issue(testSessionAccount(), "203.0.113.7", now)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "alice", issued.Username)
	assert.NotEmpty(t, issued.ID)

	claims, err := sm.Validate(token, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "acme", claims.Company)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "203.0.113.7", claims.ClientIP)
	assert.Equal(t, "acct-1", claims.Subject)
	assert.True(t, claims.LoginTime.Equal(now))
}

func TestSessionManager_Validate_Expired(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, _, err := sm.Issue(testSessionAccount(), "203.0.113.7", now)
	require.NoError(t, err)

	// Valid one minute before expiry, rejected one minute after.
	_, err = sm.Validate(token, now.Add(SessionTTL-time.Minute))
	assert.NoError(t, err)

	_, err = sm.Validate(token, now.Add(SessionTTL+time.Minute))
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionManager_Validate_WrongSecret(t *testing.T) {
	now := time.Now()
	token, _, err := NewSessionManager("test-secret-key-32-characters-xx").Issue(testSessionAccount(), "203.0.113.7", now)
	require.NoError(t, err)

	_, err = NewSessionManager("another-secret-key-32-chars-xxxx").Validate(token, now)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionManager_Validate_Garbage(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")

	_, err := sm.Validate("not-a-token", time.Now())
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionManager_Validate_NotYetValid(t *testing.T) {
	sm := NewSessionManager("test-secret-key-32-characters-xx")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, _, err := sm.Issue(testSessionAccount(), "203.0.113.7", now)
	require.NoError(t, err)

	_, err = sm.Validate(token, now.Add(-time.Hour))
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
