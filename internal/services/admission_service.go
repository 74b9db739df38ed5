package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/aydintok/gatehouse/pkg/auth"
	"github.com/aydintok/gatehouse/pkg/logger"
)

// AccountDirectory defines the account lookup used during admission.
type AccountDirectory interface {
	Lookup(ctx context.Context, username string) (*models.Account, error)
}

// RateLimiter defines the per-IP failure tracking used during admission.
type RateLimiter interface {
	Check(ctx context.Context, ip string, now time.Time) error
	RecordFailure(ctx context.Context, ip string, now time.Time) error
}

// QuotaTracker defines the per-account IP quota gate.
type QuotaTracker interface {
	RecordAttempt(ctx context.Context, accountID, ip string, maxIPCount int, trackingEnabled bool, now time.Time) (*models.IPQuotaRecord, models.QuotaStatus, error)
}

// AuditTrail defines the login/logout bookkeeping.
type AuditTrail interface {
	RecordLogin(ctx context.Context, username, ip, userAgent string, loginTime time.Time) (*models.AuditEntry, error)
	RecordLogout(ctx context.Context, username string, logoutTime time.Time) (*models.AuditEntry, error)
}

// SessionIssuer mints session tokens for admitted logins.
type SessionIssuer interface {
	Issue(acct *models.Account, clientIP string, now time.Time) (string, *models.SessionClaims, error)
}

// LoginResult is returned for an admitted login.
type LoginResult struct {
	Token       string
	Claims      *models.SessionClaims
	QuotaStatus models.QuotaStatus
}

// AdmissionService runs the login pipeline. Gates run in a fixed order
// and short-circuit on the first denial:
//
//	rate limit, directory lookup, password, active flag,
//	IP allow-list, trial expiry, IP quota.
//
// The quota gate runs last so its side effects (creating or touching a
// tracking record) are committed only for logins that passed every
// other check. A failed password is the only outcome that counts
// against the rate limiter.
type AdmissionService struct {
	directory AccountDirectory
	verifier  auth.PasswordVerifier
	limiter   RateLimiter
	quota     QuotaTracker
	audit     AuditTrail
	sessions  SessionIssuer
	events    *logger.AuditLogger
	logger    *slog.Logger
	now       func() time.Time
}

func NewAdmissionService(
	directory AccountDirectory,
	verifier auth.PasswordVerifier,
	limiter RateLimiter,
	quota QuotaTracker,
	audit AuditTrail,
	sessions SessionIssuer,
	events *logger.AuditLogger,
	log *slog.Logger,
) *AdmissionService {
	return &AdmissionService{
		directory: directory,
		verifier:  verifier,
		limiter:   limiter,
		quota:     quota,
		audit:     audit,
		sessions:  sessions,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// Login admits or denies a login attempt. Denials return one of the
// sentinel admission errors; models.ErrStoreUnavailable is the only
// retryable outcome.
func (s *AdmissionService) Login(ctx context.Context, username, password, ip, userAgent string) (*LoginResult, error) {
	now := s.now()

	if err := s.limiter.Check(ctx, ip, now); err != nil {
		return nil, s.deny(ctx, username, ip, userAgent, err)
	}

	acct, err := s.directory.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.deny(ctx, username, ip, userAgent, models.ErrAccountNotFound)
		}
		s.logger.Error("account lookup failed", slog.Any("error", err))
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrStoreUnavailable)
	}

	if err := s.verifier.Verify(acct.PasswordSecret, password); err != nil {
		// The only gate that feeds the rate limiter.
		if recErr := s.limiter.RecordFailure(ctx, ip, now); recErr != nil {
			s.logger.Error("failed to record rate limit failure", slog.Any("error", recErr))
		}
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrBadCredentials)
	}

	if !acct.IsActive {
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrAccountDisabled)
	}

	if !acct.AllowsIP(ip) {
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrIPNotAllowed)
	}

	if acct.TrialExpired(now) {
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrTrialExpired)
	}

	_, status, err := s.quota.RecordAttempt(ctx, acct.ID, ip, acct.MaxIPCount, acct.IPTrackingEnabled, now)
	if err != nil {
		return nil, s.deny(ctx, username, ip, userAgent, err)
	}

	if _, err := s.audit.RecordLogin(ctx, acct.Username, ip, userAgent, now); err != nil {
		return nil, s.deny(ctx, username, ip, userAgent, models.ErrStoreUnavailable)
	}

	token, claims, err := s.sessions.Issue(acct, ip, now)
	if err != nil {
		s.logger.Error("failed to issue session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.events.LogAdmission(logger.AdmissionEvent{
		EventType: "login",
		Username:  acct.Username,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})

	return &LoginResult{
		Token:       token,
		Claims:      claims,
		QuotaStatus: status,
	}, nil
}

// Logout closes the account's most recent open audit entry. A logout
// with no open entry is a no-op, not an error.
func (s *AdmissionService) Logout(ctx context.Context, username, ip string) error {
	_, err := s.audit.RecordLogout(ctx, username, s.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("logout with no open session",
				slog.String("username", logger.SanitizedUsername(username)))
			return nil
		}
		return err
	}

	s.events.LogAdmission(logger.AdmissionEvent{
		EventType: "logout",
		Username:  username,
		IPAddress: ip,
		Success:   true,
	})

	return nil
}

func (s *AdmissionService) deny(ctx context.Context, username, ip, userAgent string, err error) error {
	s.events.LogAdmission(logger.AdmissionEvent{
		EventType:    "login",
		Username:     username,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      false,
		DenialReason: denialReason(err),
	})
	return err
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, models.ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, models.ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, models.ErrIPNotAllowed):
		return "ip_not_allowed"
	case errors.Is(err, models.ErrTrialExpired):
		return "trial_expired"
	case errors.Is(err, models.ErrIPQuotaExceeded):
		return "ip_quota_exceeded"
	case errors.Is(err, models.ErrIPBlocked):
		return "ip_blocked"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
