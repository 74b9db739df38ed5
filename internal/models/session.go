package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of an issued session token. The holder
// must present the token back verbatim; fields are only trusted after
// the token's signature and expiry have been re-validated.
type SessionClaims struct {
	Username  string    `json:"username"`
	Company   string    `json:"company"`
	IsAdmin   bool      `json:"is_admin"`
	ClientIP  string    `json:"client_ip"`
	LoginTime time.Time `json:"login_time"`
	jwt.RegisteredClaims
}
