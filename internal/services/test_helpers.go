package services

import (
	"context"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
)

// MockAccountDirectory implements AccountDirectory for testing
type MockAccountDirectory struct {
	LookupFunc func(ctx context.Context, username string) (*models.Account, error)
}

func (m *MockAccountDirectory) Lookup(ctx context.Context, username string) (*models.Account, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

// MockRateLimiter implements RateLimiter for testing
type MockRateLimiter struct {
	CheckFunc         func(ctx context.Context, ip string, now time.Time) error
	RecordFailureFunc func(ctx context.Context, ip string, now time.Time) error
}

func (m *MockRateLimiter) Check(ctx context.Context, ip string, now time.Time) error {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, ip, now)
	}
	return nil
}

func (m *MockRateLimiter) RecordFailure(ctx context.Context, ip string, now time.Time) error {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, ip, now)
	}
	return nil
}

// MockQuotaTracker implements QuotaTracker for testing
type MockQuotaTracker struct {
	RecordAttemptFunc func(ctx context.Context, accountID, ip string, maxIPCount int, trackingEnabled bool, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error)
}

func (m *MockQuotaTracker) RecordAttempt(ctx context.Context, accountID, ip string, maxIPCount int, trackingEnabled bool, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error) {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, accountID, ip, maxIPCount, trackingEnabled, now)
	}
	return &models.IPQuotaRecord{AccountID: accountID, IPAddress: ip}, models.QuotaAcceptedExisting, nil
}

// MockAuditTrail implements AuditTrail for testing
type MockAuditTrail struct {
	RecordLoginFunc  func(ctx context.Context, username, ip, userAgent string, loginTime time.Time) (*models.AuditEntry, error)
	RecordLogoutFunc func(ctx context.Context, username string, logoutTime time.Time) (*models.AuditEntry, error)
}

func (m *MockAuditTrail) RecordLogin(ctx context.Context, username, ip, userAgent string, loginTime time.Time) (*models.AuditEntry, error) {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, username, ip, userAgent, loginTime)
	}
	return &models.AuditEntry{Username: username, IPAddress: ip, UserAgent: userAgent, LoginTime: loginTime}, nil
}

func (m *MockAuditTrail) RecordLogout(ctx context.Context, username string, logoutTime time.Time) (*models.AuditEntry, error) {
	if m.RecordLogoutFunc != nil {
		return m.RecordLogoutFunc(ctx, username, logoutTime)
	}
	return nil, models.ErrNotFound
}

// MockSessionIssuer implements SessionIssuer for testing
type MockSessionIssuer struct {
	IssueFunc func(acct *models.Account, clientIP string, now time.Time) (string, *models.SessionClaims, error)
}

func (m *MockSessionIssuer) Issue(acct *models.Account, clientIP string, now time.Time) (string, *models.SessionClaims, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(acct, clientIP, now)
	}
	return "token", &models.SessionClaims{Username: acct.Username, ClientIP: clientIP}, nil
}

// MockRateLimitStore implements RateLimitStore for testing
type MockRateLimitStore struct {
	RecordFailureFunc      func(ctx context.Context, ip string, failedAt, expiresAt time.Time) error
	CountFailuresSinceFunc func(ctx context.Context, ip string, since time.Time) (int, error)
}

func (m *MockRateLimitStore) RecordFailure(ctx context.Context, ip string, failedAt, expiresAt time.Time) error {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, ip, failedAt, expiresAt)
	}
	return nil
}

func (m *MockRateLimitStore) CountFailuresSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.CountFailuresSinceFunc != nil {
		return m.CountFailuresSinceFunc(ctx, ip, since)
	}
	return 0, nil
}

// MockQuotaStore implements QuotaStore for testing
type MockQuotaStore struct {
	GetFunc                func(ctx context.Context, accountID, ip string) (*models.IPQuotaRecord, error)
	TouchFunc              func(ctx context.Context, accountID, ip string, now time.Time) (*models.IPQuotaRecord, error)
	CreateIfUnderQuotaFunc func(ctx context.Context, accountID, ip string, maxIPCount int, now time.Time) (*models.IPQuotaRecord, bool, error)
	SetBlockedFunc         func(ctx context.Context, accountID, ip string, blocked bool) error
	DeleteFunc             func(ctx context.Context, accountID, ip string) error
	ListByAccountFunc      func(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error)
}

func (m *MockQuotaStore) Get(ctx context.Context, accountID, ip string) (*models.IPQuotaRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID, ip)
	}
	return nil, models.ErrNotFound
}

func (m *MockQuotaStore) Touch(ctx context.Context, accountID, ip string, now time.Time) (*models.IPQuotaRecord, error) {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, accountID, ip, now)
	}
	return nil, models.ErrNotFound
}

func (m *MockQuotaStore) CreateIfUnderQuota(ctx context.Context, accountID, ip string, maxIPCount int, now time.Time) (*models.IPQuotaRecord, bool, error) {
	if m.CreateIfUnderQuotaFunc != nil {
		return m.CreateIfUnderQuotaFunc(ctx, accountID, ip, maxIPCount, now)
	}
	return &models.IPQuotaRecord{AccountID: accountID, IPAddress: ip, FirstSeen: now, LastSeen: now, LoginCount: 1}, true, nil
}

func (m *MockQuotaStore) SetBlocked(ctx context.Context, accountID, ip string, blocked bool) error {
	if m.SetBlockedFunc != nil {
		return m.SetBlockedFunc(ctx, accountID, ip, blocked)
	}
	return nil
}

func (m *MockQuotaStore) Delete(ctx context.Context, accountID, ip string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, accountID, ip)
	}
	return nil
}

func (m *MockQuotaStore) ListByAccount(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	return []*models.IPQuotaRecord{}, nil
}

// MockAuditStore implements AuditStore for testing
type MockAuditStore struct {
	CreateFunc         func(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error)
	LatestOpenFunc     func(ctx context.Context, username string) (*models.AuditEntry, error)
	CloseFunc          func(ctx context.Context, id string, logoutTime time.Time, durationSeconds int64) (*models.AuditEntry, error)
	ListByUsernameFunc func(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error)
}

func (m *MockAuditStore) Create(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	created := *entry
	created.ID = "audit-1"
	return &created, nil
}

func (m *MockAuditStore) LatestOpen(ctx context.Context, username string) (*models.AuditEntry, error) {
	if m.LatestOpenFunc != nil {
		return m.LatestOpenFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAuditStore) Close(ctx context.Context, id string, logoutTime time.Time, durationSeconds int64) (*models.AuditEntry, error) {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, id, logoutTime, durationSeconds)
	}
	return nil, models.ErrNotFound
}

func (m *MockAuditStore) ListByUsername(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error) {
	if m.ListByUsernameFunc != nil {
		return m.ListByUsernameFunc(ctx, username, limit)
	}
	return []*models.AuditEntry{}, nil
}
