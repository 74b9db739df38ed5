package models

import "time"

// AuditEntry pairs a login event with its eventual logout. An entry is
// open while LogoutTime is nil; logout closes the most recently opened
// entry for the username and derives the session duration.
type AuditEntry struct {
	ID                     string     `db:"id"`
	Username               string     `db:"username"`
	IPAddress              string     `db:"ip_address"`
	UserAgent              string     `db:"user_agent"`
	LoginTime              time.Time  `db:"login_time"`
	LogoutTime             *time.Time `db:"logout_time"`
	SessionDurationSeconds *int64     `db:"session_duration_seconds"`
}

// Open reports whether the entry has not been closed by a logout yet.
func (e *AuditEntry) Open() bool {
	return e.LogoutTime == nil
}
