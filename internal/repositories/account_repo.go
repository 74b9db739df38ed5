package repositories

import (
	"context"
	"fmt"

	"github.com/aydintok/gatehouse/internal/database"
	"github.com/aydintok/gatehouse/internal/models"
)

// rowScanner supports scanning from both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// AccountRepository is the adapter onto the external credential
// directory's accounts table. The core only reads through it; account
// administration lives outside this service.
type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccountRow(row rowScanner) (*models.Account, error) {
	var acct models.Account

	err := row.Scan(
		&acct.ID, &acct.Username, &acct.PasswordSecret, &acct.Company,
		&acct.AllowedIPs, &acct.MaxIPCount, &acct.IPTrackingEnabled,
		&acct.IsActive, &acct.IsAdmin, &acct.TrialEnd,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	// Normalize at the adapter boundary so the pipeline never sees a
	// directory row with a missing cap.
	if acct.MaxIPCount <= 0 {
		acct.MaxIPCount = models.DefaultMaxIPCount
	}

	return &acct, nil
}

// Lookup resolves a username to its canonical account value.
func (r *AccountRepository) Lookup(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT id, username, password_secret, company, allowed_ips,
		       max_ip_count, ip_tracking_enabled, is_active, is_admin,
		       trial_end, created_at, updated_at
		FROM accounts
		WHERE username = $1
	`

	acct, err := scanAccountRow(r.db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	return acct, nil
}

// Create inserts an account row. Used only by the bootstrap path; the
// directory proper is administered elsewhere.
func (r *AccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, password_secret, company, allowed_ips,
		                      max_ip_count, ip_tracking_enabled, is_active, is_admin, trial_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, username, password_secret, company, allowed_ips,
		          max_ip_count, ip_tracking_enabled, is_active, is_admin,
		          trial_end, created_at, updated_at
	`

	created, err := scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		acct.Username, acct.PasswordSecret, acct.Company, acct.AllowedIPs,
		acct.MaxIPCount, acct.IPTrackingEnabled, acct.IsActive, acct.IsAdmin, acct.TrialEnd,
	))
	if err != nil {
		if err == models.ErrConflict {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}
