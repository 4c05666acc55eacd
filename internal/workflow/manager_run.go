package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fwea/internal/logging"
	"fwea/internal/queue"
	"fwea/internal/services"
)

// Start launches the worker pool in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	m.mu.Unlock()
	if !m.configured() {
		return errors.New("workflow stages not configured")
	}

	m.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("workers", m.workers),
		logging.String("instance", m.instance),
	)
	for i := 1; i <= m.workers; i++ {
		go m.runWorker(runCtx, fmt.Sprintf("%s/worker-%d", m.instance, i), i == 1)
	}
	return nil
}

// Stop terminates background processing and waits for workers to exit.
// Jobs interrupted mid-stage are failed so they can be retried.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))
}

// Running reports whether the worker pool is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runWorker(ctx context.Context, worker string, reclaimer bool) {
	defer m.wg.Done()
	logger := logging.WithContext(services.WithWorker(ctx, worker), m.logger)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimer {
			if err := m.heartbeat.ReclaimStaleJobs(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(logger, "reclaim stale jobs failed; stuck jobs may remain", "heartbeat_reclaim_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check job database access"),
				)
			}
		}

		j, err := m.store.ClaimNext(ctx, worker)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if j == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.runJob(ctx, j, worker); err != nil {
			m.setLastError(err)
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, queue.ErrJobFinalized) {
				logging.WarnWithContext(logger, "job finalized while still running", "job_superseded",
					logging.String(logging.FieldJobID, j.ID),
					logging.String("status", string(j.Status)),
					logging.String(logging.FieldErrorHint, "raise workflow.heartbeat_timeout if workers are slow"),
					logging.String(logging.FieldImpact, "worker result discarded"),
				)
				continue
			}
			logging.ErrorWithContext(logger, "job processing aborted", "job_aborted",
				logging.String(logging.FieldJobID, j.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
		}
	}
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logging.ErrorWithContext(logger, "failed to claim next job", "queue_claim_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check job database access"),
	)
	m.waitOrShutdown(ctx, m.pollInterval)
}

// waitOrShutdown sleeps for d and reports false if ctx ended first.
func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
