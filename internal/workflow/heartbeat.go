package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fwea/internal/logging"
	"fwea/internal/queue"
)

// HeartbeatMonitor manages job heartbeats and stale job reclamation.
type HeartbeatMonitor struct {
	store             *queue.Store
	logger            *slog.Logger
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:             store,
		logger:            logging.NewComponentLogger(logger, "workflow-heartbeat"),
		heartbeatInterval: interval,
		heartbeatTimeout:  timeout,
	}
}

// ReclaimStaleJobs fails jobs whose worker has stopped sending heartbeats.
func (h *HeartbeatMonitor) ReclaimStaleJobs(ctx context.Context, logger *slog.Logger) error {
	if h.heartbeatTimeout <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-h.heartbeatTimeout)
	reclaimed, err := h.store.ReclaimStale(ctx, cutoff, "worker stopped sending heartbeats")
	if err != nil {
		return err
	}
	if len(reclaimed) > 0 {
		logging.WarnWithContext(logger, "failed stale jobs", "heartbeat_reclaim",
			logging.Int("count", len(reclaimed)),
			logging.String(logging.FieldErrorHint, "retry the jobs with fwea queue retry"),
			logging.String(logging.FieldImpact, "jobs abandoned by a stopped worker were marked failed"),
		)
	}
	return nil
}

// StartLoop refreshes the heartbeat of jobID until ctx is cancelled.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, jobID string) {
	defer wg.Done()
	if h.heartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, jobID); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Debug("heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}
