package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aydintok/gatehouse/internal/models"
	pkghttp "github.com/aydintok/gatehouse/pkg/http"
)

type contextKey string

const claimsContextKey contextKey = "session_claims"

// SessionValidator validates bearer tokens for the middleware.
type SessionValidator interface {
	Validate(tokenString string, now time.Time) (*models.SessionClaims, error)
}

// Middleware requires a valid bearer session token and injects its
// claims into the request context.
func Middleware(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
				return
			}

			claims, err := sessions.Validate(token, time.Now())
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session is not an admin session.
// Must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			pkghttp.WriteUnauthorized(w, "missing session")
			return
		}
		if !claims.IsAdmin {
			pkghttp.WriteForbidden(w, "forbidden", "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the session claims injected by Middleware.
func ClaimsFromContext(ctx context.Context) (*models.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*models.SessionClaims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
