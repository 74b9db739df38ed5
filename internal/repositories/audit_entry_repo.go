package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aydintok/gatehouse/internal/database"
	"github.com/aydintok/gatehouse/internal/models"
)

// AuditEntryRepository persists login/logout audit entries.
type AuditEntryRepository struct {
	db *database.DB
}

func NewAuditEntryRepository(db *database.DB) *AuditEntryRepository {
	return &AuditEntryRepository{db: db}
}

func scanAuditRow(row rowScanner) (*models.AuditEntry, error) {
	var entry models.AuditEntry

	err := row.Scan(
		&entry.ID, &entry.Username, &entry.IPAddress, &entry.UserAgent,
		&entry.LoginTime, &entry.LogoutTime, &entry.SessionDurationSeconds,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &entry, nil
}

// Create opens a new audit entry for a successful login.
func (r *AuditEntryRepository) Create(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error) {
	query := `
		INSERT INTO audit_entries (username, ip_address, user_agent, login_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, ip_address, user_agent, login_time, logout_time, session_duration_seconds
	`

	created, err := scanAuditRow(r.db.Pool.QueryRow(ctx, query,
		entry.Username, entry.IPAddress, entry.UserAgent, entry.LoginTime))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return created, nil
}

// LatestOpen returns the account's most recent entry without a logout
// time, or ErrNotFound when every entry is closed.
func (r *AuditEntryRepository) LatestOpen(ctx context.Context, username string) (*models.AuditEntry, error) {
	query := `
		SELECT id, username, ip_address, user_agent, login_time, logout_time, session_duration_seconds
		FROM audit_entries
		WHERE username = $1 AND logout_time IS NULL
		ORDER BY login_time DESC
		LIMIT 1
	`

	entry, err := scanAuditRow(r.db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open audit entry: %w", err)
	}

	return entry, nil
}

// Close stamps an entry with its logout time and session duration.
func (r *AuditEntryRepository) Close(ctx context.Context, id string, logoutTime time.Time, durationSeconds int64) (*models.AuditEntry, error) {
	query := `
		UPDATE audit_entries
		SET logout_time = $2, session_duration_seconds = $3
		WHERE id = $1 AND logout_time IS NULL
		RETURNING id, username, ip_address, user_agent, login_time, logout_time, session_duration_seconds
	`

	entry, err := scanAuditRow(r.db.Pool.QueryRow(ctx, query, id, logoutTime, durationSeconds))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to close audit entry: %w", err)
	}

	return entry, nil
}

// ListByUsername returns an account's audit trail, most recent first.
func (r *AuditEntryRepository) ListByUsername(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, username, ip_address, user_agent, login_time, logout_time, session_duration_seconds
		FROM audit_entries
		WHERE username = $1
		ORDER BY login_time DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// DeleteClosedBefore prunes closed entries older than the retention
// cutoff. Open entries are kept regardless of age.
func (r *AuditEntryRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM audit_entries
		WHERE logout_time IS NOT NULL AND login_time < $1
	`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}

	return result.RowsAffected(), nil
}
