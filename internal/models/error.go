package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
)

// Admission errors. Exactly one of these is returned per denied login
// attempt; none of them is retryable with the same inputs.
var (
	ErrRateLimited     = errors.New("too many failed login attempts")
	ErrAccountNotFound = errors.New("account not found")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrIPNotAllowed    = errors.New("source ip is not allowed")
	ErrTrialExpired    = errors.New("trial period has expired")
	ErrIPQuotaExceeded = errors.New("concurrent ip quota exceeded")
	ErrIPBlocked       = errors.New("ip address is blocked for this account")
)

// ErrStoreUnavailable covers I/O failures against the directory, quota
// or audit stores. It is the only admission error a caller may retry.
var ErrStoreUnavailable = errors.New("backing store unavailable")
