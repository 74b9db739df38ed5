package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aydintok/gatehouse/internal/database"
	"github.com/aydintok/gatehouse/internal/models"
	"github.com/jackc/pgx/v5"
)

// IPQuotaRepository persists per-account IP quota records.
type IPQuotaRepository struct {
	db *database.DB
}

func NewIPQuotaRepository(db *database.DB) *IPQuotaRepository {
	return &IPQuotaRepository{db: db}
}

func scanQuotaRow(row rowScanner) (*models.IPQuotaRecord, error) {
	var rec models.IPQuotaRecord

	err := row.Scan(
		&rec.ID, &rec.AccountID, &rec.IPAddress,
		&rec.FirstSeen, &rec.LastSeen, &rec.LoginCount, &rec.IsBlocked,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

// Get returns the record for an (account, ip) pair, or ErrNotFound.
func (r *IPQuotaRepository) Get(ctx context.Context, accountID, ip string) (*models.IPQuotaRecord, error) {
	query := `
		SELECT id, account_id, ip_address, first_seen, last_seen, login_count, is_blocked
		FROM ip_quota_records
		WHERE account_id = $1 AND ip_address = $2
	`

	rec, err := scanQuotaRow(r.db.Pool.QueryRow(ctx, query, accountID, ip))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quota record: %w", err)
	}

	return rec, nil
}

// Touch advances last_seen and the login counter for an existing record.
// first_seen is never modified after creation.
func (r *IPQuotaRepository) Touch(ctx context.Context, accountID, ip string, now time.Time) (*models.IPQuotaRecord, error) {
	query := `
		UPDATE ip_quota_records
		SET last_seen = $3, login_count = login_count + 1
		WHERE account_id = $1 AND ip_address = $2
		RETURNING id, account_id, ip_address, first_seen, last_seen, login_count, is_blocked
	`

	rec, err := scanQuotaRow(r.db.Pool.QueryRow(ctx, query, accountID, ip, now))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to touch quota record: %w", err)
	}

	return rec, nil
}

// CreateIfUnderQuota atomically counts the account's non-blocked records
// and inserts a new one only if the count is below maxIPCount. Returns
// (nil, false, nil) when the quota is full. The check-then-insert runs
// under a per-account advisory lock so two concurrent new-IP admissions
// cannot both slip under the cap. A row for this exact (account, ip)
// pair returns ErrConflict before the count, so an IP that gained a
// record since the caller's lookup is never rejected as over-quota;
// the unique (account_id, ip_address) constraint backstops duplicate
// creation.
func (r *IPQuotaRepository) CreateIfUnderQuota(ctx context.Context, accountID, ip string, maxIPCount int, now time.Time) (*models.IPQuotaRecord, bool, error) {
	var rec *models.IPQuotaRecord
	created := false

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, accountID); err != nil {
			return fmt.Errorf("failed to acquire account lock: %w", err)
		}

		var exists bool
		existsQuery := `
			SELECT EXISTS (
				SELECT 1 FROM ip_quota_records
				WHERE account_id = $1 AND ip_address = $2
			)
		`
		if err := tx.QueryRow(ctx, existsQuery, accountID, ip).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check quota record: %w", err)
		}
		if exists {
			// Record created between the caller's lookup and this
			// call; caller retries as existing.
			return models.ErrConflict
		}

		var activeCount int
		countQuery := `
			SELECT COUNT(*) FROM ip_quota_records
			WHERE account_id = $1 AND NOT is_blocked
		`
		if err := tx.QueryRow(ctx, countQuery, accountID).Scan(&activeCount); err != nil {
			return fmt.Errorf("failed to count quota records: %w", err)
		}

		if activeCount >= maxIPCount {
			return nil
		}

		insertQuery := `
			INSERT INTO ip_quota_records (account_id, ip_address, first_seen, last_seen, login_count, is_blocked)
			VALUES ($1, $2, $3, $3, 1, FALSE)
			ON CONFLICT (account_id, ip_address) DO NOTHING
			RETURNING id, account_id, ip_address, first_seen, last_seen, login_count, is_blocked
		`

		inserted, err := scanQuotaRow(tx.QueryRow(ctx, insertQuery, accountID, ip, now))
		if err != nil {
			if err == models.ErrNotFound {
				return models.ErrConflict
			}
			return fmt.Errorf("failed to insert quota record: %w", err)
		}

		rec = inserted
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return rec, created, nil
}

// SetBlocked toggles the block flag on an existing record.
func (r *IPQuotaRepository) SetBlocked(ctx context.Context, accountID, ip string, blocked bool) error {
	query := `
		UPDATE ip_quota_records
		SET is_blocked = $3
		WHERE account_id = $1 AND ip_address = $2
	`

	result, err := r.db.Pool.Exec(ctx, query, accountID, ip, blocked)
	if err != nil {
		return fmt.Errorf("failed to update block flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a record, freeing one quota slot for the account.
func (r *IPQuotaRepository) Delete(ctx context.Context, accountID, ip string) error {
	query := `DELETE FROM ip_quota_records WHERE account_id = $1 AND ip_address = $2`

	result, err := r.db.Pool.Exec(ctx, query, accountID, ip)
	if err != nil {
		return fmt.Errorf("failed to delete quota record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListByAccount returns all records for an account, most recent first.
func (r *IPQuotaRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error) {
	query := `
		SELECT id, account_id, ip_address, first_seen, last_seen, login_count, is_blocked
		FROM ip_quota_records
		WHERE account_id = $1
		ORDER BY last_seen DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.IPQuotaRecord, 0)
	for rows.Next() {
		rec, err := scanQuotaRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quota records: %w", err)
	}

	return records, nil
}
