package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
)

// AuditStore defines the storage operations for audit entries.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error)
	LatestOpen(ctx context.Context, username string) (*models.AuditEntry, error)
	Close(ctx context.Context, id string, logoutTime time.Time, durationSeconds int64) (*models.AuditEntry, error)
	ListByUsername(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error)
}

// AuditService maintains the login/logout trail. Every admitted login
// opens an entry; a logout closes the account's most recent open entry
// and stamps the session duration.
type AuditService struct {
	store  AuditStore
	logger *slog.Logger
}

func NewAuditService(store AuditStore, logger *slog.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger,
	}
}

// RecordLogin opens an audit entry for an admitted login.
func (s *AuditService) RecordLogin(ctx context.Context, username, ip, userAgent string, loginTime time.Time) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		Username:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		LoginTime: loginTime,
	}

	created, err := s.store.Create(ctx, entry)
	if err != nil {
		s.logger.Error("failed to create audit entry",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	return created, nil
}

// RecordLogout closes the account's most recent open entry. Returns
// ErrNotFound when no entry is open; callers treat that as a no-op.
// Duration is clamped to zero if clock skew puts logout before login.
func (s *AuditService) RecordLogout(ctx context.Context, username string, logoutTime time.Time) (*models.AuditEntry, error) {
	open, err := s.store.LatestOpen(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to find open audit entry",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	duration := int64(logoutTime.Sub(open.LoginTime).Seconds())
	if duration < 0 {
		duration = 0
	}

	closed, err := s.store.Close(ctx, open.ID, logoutTime, duration)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Entry closed concurrently between lookup and update.
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to close audit entry",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	return closed, nil
}

// Trail returns an account's recent audit entries.
func (s *AuditService) Trail(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	entries, err := s.store.ListByUsername(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}

	return entries, nil
}
