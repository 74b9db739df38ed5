package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aydintok/gatehouse/internal/database"
)

// LoginFailureRepository backs the sliding-window rate limiter with
// Postgres. Rows carry an expiry so the cleanup task can prune them;
// counting always filters by window start, so stale rows never affect
// decisions before pruning runs.
type LoginFailureRepository struct {
	db *database.DB
}

func NewLoginFailureRepository(db *database.DB) *LoginFailureRepository {
	return &LoginFailureRepository{db: db}
}

func (r *LoginFailureRepository) RecordFailure(ctx context.Context, ip string, failedAt, expiresAt time.Time) error {
	query := `
		INSERT INTO login_failures (ip_address, failed_at, expires_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.Pool.Exec(ctx, query, ip, failedAt, expiresAt); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	return nil
}

func (r *LoginFailureRepository) CountFailuresSince(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_failures
		WHERE ip_address = $1 AND failed_at >= $2
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count login failures: %w", err)
	}

	return count, nil
}

// DeleteExpired prunes rows past their expiry, returning the number removed.
func (r *LoginFailureRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM login_failures WHERE expires_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login failures: %w", err)
	}

	return result.RowsAffected(), nil
}
