package logger

import (
	"context"
	"log/slog"
	"time"
)

// AdmissionEvent is a security-relevant event emitted by the login
// pipeline, in addition to the persisted audit entry.
type AdmissionEvent struct {
	EventType     string // "login" or "logout"
	Username      string
	IPAddress     string
	UserAgent     string
	Success       bool
	DenialReason  string
}

// AuditLogger emits structured security events to the application log.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAdmission logs the outcome of a login or logout attempt.
func (al *AuditLogger) LogAdmission(event AdmissionEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admission"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", SanitizedUsername(event.Username)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.DenialReason != "" {
		attrs = append(attrs, slog.String("denial_reason", event.DenialReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogAdminAction logs quota-record administration (block, unblock, delete).
func (al *AuditLogger) LogAdminAction(action, actor, accountID, ip string) {
	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit",
		slog.String("audit_type", "admin"),
		slog.String("event_type", action),
		slog.String("actor", SanitizedUsername(actor)),
		slog.String("account_id", accountID),
		slog.String("ip_address", ip),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}
