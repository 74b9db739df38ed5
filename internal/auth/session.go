package auth

import (
	"fmt"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of an issued session token.
const SessionTTL = 24 * time.Hour

// SessionManager issues and validates session tokens for admitted
// logins. Tokens are HMAC-signed JWTs carrying the account identity and
// the client IP the session was issued to.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

// Issue mints a token for an admitted login.
func (sm *SessionManager) Issue(acct *models.Account, clientIP string, now time.Time) (string, *models.SessionClaims, error) {
	claims := &models.SessionClaims{
		Username:  acct.Username,
		Company:   acct.Company,
		IsAdmin:   acct.IsAdmin,
		ClientIP:  clientIP,
		LoginTime: now,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   acct.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(sm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, claims, nil
}

// Validate verifies a token's signature and expiry and returns its
// claims. now anchors the expiry check so callers control the clock.
func (sm *SessionManager) Validate(tokenString string, now time.Time) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Username == "" {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
