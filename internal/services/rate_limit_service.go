package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
)

// RateLimitStore defines the storage operations for failure tracking.
// Satisfied by the Postgres and Redis backed implementations.
type RateLimitStore interface {
	RecordFailure(ctx context.Context, ip string, failedAt, expiresAt time.Time) error
	CountFailuresSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// RateLimitService tracks failed logins per source IP over a trailing
// window and blocks further attempts once the threshold is reached.
type RateLimitService struct {
	store       RateLimitStore
	maxFailures int
	window      time.Duration
	logger      *slog.Logger
}

func NewRateLimitService(store RateLimitStore, maxFailures int, window time.Duration, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		store:       store,
		maxFailures: maxFailures,
		window:      window,
		logger:      logger,
	}
}

// Check returns ErrRateLimited when the IP has reached the failure
// threshold within the trailing window. Store errors fail open so a
// degraded store does not lock out legitimate users; the threshold
// itself still fails closed.
func (s *RateLimitService) Check(ctx context.Context, ip string, now time.Time) error {
	windowStart := now.Add(-s.window)

	count, err := s.store.CountFailuresSince(ctx, ip, windowStart)
	if err != nil {
		s.logger.Error("failed to check rate limit", slog.Any("error", err))
		return nil
	}

	if count >= s.maxFailures {
		s.logger.Warn("IP rate limited",
			slog.String("ip_address", ip),
			slog.Int("failed_attempts", count))
		return models.ErrRateLimited
	}

	return nil
}

// RecordFailure stores a failed attempt for the IP. Rows expire at 2x
// the window so counting stays correct until cleanup prunes them.
func (s *RateLimitService) RecordFailure(ctx context.Context, ip string, now time.Time) error {
	expiresAt := now.Add(s.window * 2)

	if err := s.store.RecordFailure(ctx, ip, now, expiresAt); err != nil {
		s.logger.Error("failed to record login failure",
			slog.String("ip_address", ip),
			slog.Any("error", err))
		return err
	}

	return nil
}
