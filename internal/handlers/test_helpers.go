package handlers

import (
	"context"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/aydintok/gatehouse/internal/services"
)

// MockAdmissionService implements AdmissionServiceInterface for testing
type MockAdmissionService struct {
	LoginFunc  func(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error)
	LogoutFunc func(ctx context.Context, username, ip string) error
}

func (m *MockAdmissionService) Login(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, ip, userAgent)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAdmissionService) Logout(ctx context.Context, username, ip string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, username, ip)
	}
	return nil
}

// MockAuditTrail implements AuditTrailInterface for testing
type MockAuditTrail struct {
	TrailFunc func(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error)
}

func (m *MockAuditTrail) Trail(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error) {
	if m.TrailFunc != nil {
		return m.TrailFunc(ctx, username, limit)
	}
	return nil, nil
}

// MockQuotaAdmin implements QuotaAdminInterface for testing
type MockQuotaAdmin struct {
	ListFunc    func(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error)
	BlockFunc   func(ctx context.Context, accountID, ip string) error
	UnblockFunc func(ctx context.Context, accountID, ip string) error
	RemoveFunc  func(ctx context.Context, accountID, ip string) error
}

func (m *MockQuotaAdmin) List(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, accountID)
	}
	return []*models.IPQuotaRecord{}, nil
}

func (m *MockQuotaAdmin) Block(ctx context.Context, accountID, ip string) error {
	if m.BlockFunc != nil {
		return m.BlockFunc(ctx, accountID, ip)
	}
	return nil
}

func (m *MockQuotaAdmin) Unblock(ctx context.Context, accountID, ip string) error {
	if m.UnblockFunc != nil {
		return m.UnblockFunc(ctx, accountID, ip)
	}
	return nil
}

func (m *MockQuotaAdmin) Remove(ctx context.Context, accountID, ip string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, accountID, ip)
	}
	return nil
}
