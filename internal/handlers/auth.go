package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aydintok/gatehouse/internal/auth"
	"github.com/aydintok/gatehouse/internal/models"
	"github.com/aydintok/gatehouse/internal/services"
	pkghttp "github.com/aydintok/gatehouse/pkg/http"
)

// AdmissionServiceInterface defines the interface for the login pipeline
type AdmissionServiceInterface interface {
	Login(ctx context.Context, username, password, ip, userAgent string) (*services.LoginResult, error)
	Logout(ctx context.Context, username, ip string) error
}

// AuthHandler handles login, logout and session inspection
type AuthHandler struct {
	service     AdmissionServiceInterface
	ipExtractor *pkghttp.ClientIPExtractor
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AdmissionServiceInterface, ipExtractor *pkghttp.ClientIPExtractor) *AuthHandler {
	return &AuthHandler{
		service:     service,
		ipExtractor: ipExtractor,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for an admitted login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Company   string    `json:"company"`
	IsAdmin   bool      `json:"is_admin"`
}

// SessionResponse represents the current session's claims
type SessionResponse struct {
	Username  string    `json:"username"`
	Company   string    `json:"company"`
	IsAdmin   bool      `json:"is_admin"`
	ClientIP  string    `json:"client_ip"`
	LoginTime time.Time `json:"login_time"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	ip := h.ipExtractor.FromRequest(r)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.Login(r.Context(), req.Username, req.Password, ip, userAgent)
	if err != nil {
		writeAdmissionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.Claims.ExpiresAt.Time,
		Username:  result.Claims.Username,
		Company:   result.Claims.Company,
		IsAdmin:   result.Claims.IsAdmin,
	})
}

// Logout handles POST /auth/logout. Requires a valid session; closes
// the account's open audit entry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "missing session")
		return
	}

	ip := h.ipExtractor.FromRequest(r)
	if err := h.service.Logout(r.Context(), claims.Username, ip); err != nil {
		writeAdmissionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /auth/session, echoing the validated claims.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "missing session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SessionResponse{
		Username:  claims.Username,
		Company:   claims.Company,
		IsAdmin:   claims.IsAdmin,
		ClientIP:  claims.ClientIP,
		LoginTime: claims.LoginTime,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// writeAdmissionError maps admission errors to HTTP responses. Unknown
// accounts and wrong passwords produce byte-identical responses so the
// endpoint cannot be used to probe which usernames exist.
func writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrRateLimited):
		pkghttp.WriteTooManyRequests(w, "Too many failed attempts, try again later")
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrBadCredentials):
		pkghttp.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteForbidden(w, "account_disabled", "Account is disabled")
	case errors.Is(err, models.ErrIPNotAllowed):
		pkghttp.WriteForbidden(w, "ip_not_allowed", "Login from this address is not permitted")
	case errors.Is(err, models.ErrTrialExpired):
		pkghttp.WriteForbidden(w, "trial_expired", "Trial period has expired")
	case errors.Is(err, models.ErrIPQuotaExceeded):
		pkghttp.WriteForbidden(w, "ip_quota_exceeded", "Too many devices are using this account")
	case errors.Is(err, models.ErrIPBlocked):
		pkghttp.WriteForbidden(w, "ip_blocked", "This address is blocked for the account")
	case errors.Is(err, models.ErrStoreUnavailable):
		pkghttp.WriteUnavailable(w, "Service temporarily unavailable, try again")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
