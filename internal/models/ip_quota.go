package models

import "time"

// QuotaStatus is the outcome of recording a login attempt against an
// account's IP quota.
type QuotaStatus string

const (
	QuotaAcceptedExisting QuotaStatus = "accepted_existing"
	QuotaAcceptedNew      QuotaStatus = "accepted_new"
	QuotaBlocked          QuotaStatus = "blocked"
	QuotaExceeded         QuotaStatus = "quota_exceeded"

	// QuotaSkipped is returned when the account has IP tracking disabled;
	// no record is read or written.
	QuotaSkipped QuotaStatus = "skipped"
)

// IPQuotaRecord tracks one (account, source IP) pair. At most one record
// exists per pair; records are created on first admission from a new IP
// and removed only by administrative action.
type IPQuotaRecord struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	IPAddress  string    `db:"ip_address"`
	FirstSeen  time.Time `db:"first_seen"`
	LastSeen   time.Time `db:"last_seen"`
	LoginCount int       `db:"login_count"`
	IsBlocked  bool      `db:"is_blocked"`
}
