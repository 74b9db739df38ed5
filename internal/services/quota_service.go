package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
)

// QuotaStore defines the storage operations for per-account IP quota
// records.
type QuotaStore interface {
	Get(ctx context.Context, accountID, ip string) (*models.IPQuotaRecord, error)
	Touch(ctx context.Context, accountID, ip string, now time.Time) (*models.IPQuotaRecord, error)
	CreateIfUnderQuota(ctx context.Context, accountID, ip string, maxIPCount int, now time.Time) (*models.IPQuotaRecord, bool, error)
	SetBlocked(ctx context.Context, accountID, ip string, blocked bool) error
	Delete(ctx context.Context, accountID, ip string) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error)
}

// QuotaService enforces the per-account cap on distinct source IPs.
// Each account may log in from at most maxIPCount distinct addresses;
// returning addresses are admitted and counted, new addresses beyond
// the cap are rejected, and individually blocked addresses are rejected
// even when the account is under its cap.
type QuotaService struct {
	store  QuotaStore
	logger *slog.Logger
}

func NewQuotaService(store QuotaStore, logger *slog.Logger) *QuotaService {
	return &QuotaService{
		store:  store,
		logger: logger,
	}
}

// RecordAttempt admits or rejects a login against the account's IP
// quota and commits the tracking side effects. It must run as the last
// admission gate: a record is created or touched only when every other
// check has already passed.
func (s *QuotaService) RecordAttempt(ctx context.Context, accountID, ip string, maxIPCount int, trackingEnabled bool, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error) {
	if !trackingEnabled {
		return nil, models.QuotaSkipped, nil
	}

	rec, err := s.store.Get(ctx, accountID, ip)
	if err == nil {
		return s.admitExisting(ctx, rec, now)
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up quota record", slog.Any("error", err))
		return nil, "", models.ErrStoreUnavailable
	}

	created, ok, err := s.store.CreateIfUnderQuota(ctx, accountID, ip, maxIPCount, now)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Another login from this IP created the record between our
			// lookup and insert; treat it as a returning address.
			return s.retryAsExisting(ctx, accountID, ip, now)
		}
		s.logger.Error("failed to create quota record", slog.Any("error", err))
		return nil, "", models.ErrStoreUnavailable
	}

	if !ok {
		s.logger.Warn("IP quota exceeded",
			slog.String("account_id", accountID),
			slog.String("ip_address", ip),
			slog.Int("max_ip_count", maxIPCount))
		return nil, models.QuotaExceeded, models.ErrIPQuotaExceeded
	}

	return created, models.QuotaAcceptedNew, nil
}

func (s *QuotaService) admitExisting(ctx context.Context, rec *models.IPQuotaRecord, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error) {
	if rec.IsBlocked {
		s.logger.Warn("login from blocked IP",
			slog.String("account_id", rec.AccountID),
			slog.String("ip_address", rec.IPAddress))
		return rec, models.QuotaBlocked, models.ErrIPBlocked
	}

	touched, err := s.store.Touch(ctx, rec.AccountID, rec.IPAddress, now)
	if err != nil {
		s.logger.Error("failed to touch quota record", slog.Any("error", err))
		return nil, "", models.ErrStoreUnavailable
	}

	return touched, models.QuotaAcceptedExisting, nil
}

func (s *QuotaService) retryAsExisting(ctx context.Context, accountID, ip string, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error) {
	rec, err := s.store.Get(ctx, accountID, ip)
	if err != nil {
		s.logger.Error("failed to reload quota record after conflict", slog.Any("error", err))
		return nil, "", models.ErrStoreUnavailable
	}

	return s.admitExisting(ctx, rec, now)
}

// Block marks an (account, ip) pair so future logins from it are
// rejected. Blocked records do not count against the account's quota.
func (s *QuotaService) Block(ctx context.Context, accountID, ip string) error {
	return s.store.SetBlocked(ctx, accountID, ip, true)
}

// Unblock clears the block flag on an (account, ip) pair.
func (s *QuotaService) Unblock(ctx context.Context, accountID, ip string) error {
	return s.store.SetBlocked(ctx, accountID, ip, false)
}

// Remove deletes an (account, ip) record, freeing one quota slot.
func (s *QuotaService) Remove(ctx context.Context, accountID, ip string) error {
	return s.store.Delete(ctx, accountID, ip)
}

// List returns all quota records for an account.
func (s *QuotaService) List(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error) {
	return s.store.ListByAccount(ctx, accountID)
}
