package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aydintok/gatehouse/internal/auth"
	"github.com/aydintok/gatehouse/internal/models"
	pkghttp "github.com/aydintok/gatehouse/pkg/http"
	"github.com/aydintok/gatehouse/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// QuotaAdminInterface defines the quota administration operations
type QuotaAdminInterface interface {
	List(ctx context.Context, accountID string) ([]*models.IPQuotaRecord, error)
	Block(ctx context.Context, accountID, ip string) error
	Unblock(ctx context.Context, accountID, ip string) error
	Remove(ctx context.Context, accountID, ip string) error
}

// AuditTrailInterface exposes an account's recent login history
type AuditTrailInterface interface {
	Trail(ctx context.Context, username string, limit int) ([]*models.AuditEntry, error)
}

// AdminHandler exposes quota-record and audit-trail administration. All
// routes require an admin session.
type AdminHandler struct {
	quota  QuotaAdminInterface
	audit  AuditTrailInterface
	events *logger.AuditLogger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(quota QuotaAdminInterface, audit AuditTrailInterface, events *logger.AuditLogger) *AdminHandler {
	return &AdminHandler{
		quota:  quota,
		audit:  audit,
		events: events,
	}
}

// QuotaRecordResponse represents one tracked (account, ip) pair
type QuotaRecordResponse struct {
	IPAddress  string    `json:"ip_address"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	LoginCount int       `json:"login_count"`
	IsBlocked  bool      `json:"is_blocked"`
}

// ListQuotaRecords handles GET /admin/accounts/{accountID}/ips
func (h *AdminHandler) ListQuotaRecords(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	records, err := h.quota.List(r.Context(), accountID)
	if err != nil {
		writeAdminError(w, err)
		return
	}

	resp := make([]QuotaRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, QuotaRecordResponse{
			IPAddress:  rec.IPAddress,
			FirstSeen:  rec.FirstSeen,
			LastSeen:   rec.LastSeen,
			LoginCount: rec.LoginCount,
			IsBlocked:  rec.IsBlocked,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"account_id": accountID,
		"records":    resp,
	})
}

// AuditEntryResponse represents one login/logout pair in an account's trail
type AuditEntryResponse struct {
	IPAddress       string     `json:"ip_address"`
	UserAgent       string     `json:"user_agent"`
	LoginTime       time.Time  `json:"login_time"`
	LogoutTime      *time.Time `json:"logout_time,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

// GetAuditTrail handles GET /admin/audit/{username}
func (h *AdminHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			pkghttp.WriteBadRequest(w, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.Trail(r.Context(), username, limit)
	if err != nil {
		writeAdminError(w, err)
		return
	}

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, AuditEntryResponse{
			IPAddress:       e.IPAddress,
			UserAgent:       e.UserAgent,
			LoginTime:       e.LoginTime,
			LogoutTime:      e.LogoutTime,
			DurationSeconds: e.SessionDurationSeconds,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"username": username,
		"entries":  resp,
	})
}

// BlockIP handles POST /admin/accounts/{accountID}/ips/{ip}/block
func (h *AdminHandler) BlockIP(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, "block_ip", h.quota.Block)
}

// UnblockIP handles POST /admin/accounts/{accountID}/ips/{ip}/unblock
func (h *AdminHandler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, "unblock_ip", h.quota.Unblock)
}

// DeleteQuotaRecord handles DELETE /admin/accounts/{accountID}/ips/{ip}
func (h *AdminHandler) DeleteQuotaRecord(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, "delete_ip", h.quota.Remove)
}

func (h *AdminHandler) mutateRecord(w http.ResponseWriter, r *http.Request, action string, op func(ctx context.Context, accountID, ip string) error) {
	accountID := chi.URLParam(r, "accountID")
	ip := chi.URLParam(r, "ip")

	if err := validate.Var(ip, "required,ip"); err != nil {
		pkghttp.WriteBadRequest(w, "invalid IP address")
		return
	}

	if err := op(r.Context(), accountID, ip); err != nil {
		writeAdminError(w, err)
		return
	}

	actor := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actor = claims.Username
	}
	h.events.LogAdminAction(action, actor, accountID, ip)

	w.WriteHeader(http.StatusNoContent)
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "No record for this account and address")
	case errors.Is(err, models.ErrStoreUnavailable):
		pkghttp.WriteUnavailable(w, "Service temporarily unavailable, try again")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
