package models

import (
	"time"
)

// DefaultMaxIPCount is applied when the directory holds no explicit cap.
const DefaultMaxIPCount = 5

// WildcardIP in an allow-list admits any source address.
const WildcardIP = "*"

// Account is the canonical account value produced by the directory
// adapter. The directory owns the record; this core only reads it.
type Account struct {
	ID                string
	Username          string
	PasswordSecret    string
	Company           string
	AllowedIPs        []string // exact addresses or "*"; empty = unrestricted
	MaxIPCount        int
	IPTrackingEnabled bool
	IsActive          bool
	IsAdmin           bool
	TrialEnd          *time.Time // nil = no expiry
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AllowsIP reports whether the allow-list admits the given source IP.
// An empty list or a wildcard entry admits everything.
func (a *Account) AllowsIP(ip string) bool {
	if len(a.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range a.AllowedIPs {
		if allowed == WildcardIP || allowed == ip {
			return true
		}
	}
	return false
}

// TrialExpired reports whether the account's trial window has passed.
// Accounts without a trial end never expire.
func (a *Account) TrialExpired(now time.Time) bool {
	return a.TrialEnd != nil && now.After(*a.TrialEnd)
}
