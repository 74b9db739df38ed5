package background

import (
	"context"
	"log/slog"
	"time"
)

// FailurePruner removes rate-limit rows past their expiry.
type FailurePruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditPruner removes closed audit entries older than a cutoff.
type AuditPruner interface {
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically prunes expired login failures and audit
// entries past their retention window.
type CleanupManager struct {
	failures  FailurePruner
	audit     AuditPruner
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	failures FailurePruner,
	audit AuditPruner,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		failures:  failures,
		audit:     audit,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	pruned, err := cm.failures.DeleteExpired(cleanupCtx, now)
	if err != nil {
		cm.logger.Error("failed to prune login failures", slog.Any("error", err))
	} else if pruned > 0 {
		cm.logger.Info("login failure cleanup completed", slog.Int64("rows_deleted", pruned))
	}

	if cm.retention <= 0 {
		return
	}

	pruned, err = cm.audit.DeleteClosedBefore(cleanupCtx, now.Add(-cm.retention))
	if err != nil {
		cm.logger.Error("failed to prune audit entries", slog.Any("error", err))
	} else if pruned > 0 {
		cm.logger.Info("audit entry cleanup completed", slog.Int64("rows_deleted", pruned))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
