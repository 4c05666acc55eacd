package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fwea/internal/config"
	"fwea/internal/logging"
	"fwea/internal/preflight"
	"fwea/internal/queue"
	"fwea/internal/staging"
	"fwea/internal/workflow"
)

// ErrAlreadyRunning is returned when another process holds the daemon lock.
var ErrAlreadyRunning = errors.New("another fwea daemon is already running")

const defaultCleanupInterval = time.Hour

// Daemon runs the worker pool and housekeeping for one data directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	cleanupInterval time.Duration

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
}

// Option tweaks daemon construction.
type Option func(*Daemon)

// WithCleanupInterval overrides how often expired jobs are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(daemon *Daemon) {
		if d > 0 {
			daemon.cleanupInterval = d
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:             cfg,
		logger:          logging.NewComponentLogger(logger, "daemon"),
		store:           store,
		workflow:        wf,
		lockPath:        lockPath,
		lock:            flock.New(lockPath),
		cleanupInterval: defaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks and launches the
// worker pool. Failing preflight checks are logged but do not block startup;
// the affected stages report themselves through health checks.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.logPreflight(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	if d.cfg.JobExpiry() > 0 {
		d.wg.Add(1)
		go d.cleanupLoop(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("fwea daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.cfg.Workflow.Workers),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("fwea daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon. The store stays open; its owner closes it.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// CleanupExpired removes terminal jobs older than the configured expiry.
func (d *Daemon) CleanupExpired(ctx context.Context) (queue.CleanupResult, error) {
	expiry := d.cfg.JobExpiry()
	if expiry <= 0 {
		return queue.CleanupResult{}, nil
	}
	result, err := d.store.CleanExpired(ctx, time.Now().Add(-expiry))
	if err != nil {
		return result, err
	}
	if result.Jobs > 0 {
		d.logger.Info("expired jobs removed",
			logging.String(logging.FieldEventType, "jobs_expired"),
			logging.Int("jobs", result.Jobs),
			logging.Int("files", result.Files),
			logging.Int("expiry_days", d.cfg.Workflow.JobExpiryDays),
		)
	}
	return result, nil
}

// SweepOrphans removes output and preview directories that no stored job
// owns, for example after "fwea queue clear".
func (d *Daemon) SweepOrphans(ctx context.Context) (int, error) {
	ids, err := d.store.IDs(ctx)
	if err != nil {
		return 0, err
	}
	result := staging.SweepDirs(ctx, ids, staging.DefaultGrace, d.logger, d.cfg.Paths.OutputDir, d.cfg.Paths.PreviewDir)
	if len(result.Errors) > 0 {
		return len(result.Removed), fmt.Errorf("sweep orphaned directories: %w", result.Errors[0].Error)
	}
	return len(result.Removed), nil
}

func (d *Daemon) cleanupLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()
	for {
		if _, err := d.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "expired job cleanup failed", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the output and preview directories"),
			)
		}
		if _, err := d.SweepOrphans(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "orphan sweep failed", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the output and preview directories"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Daemon) logPreflight(ctx context.Context) {
	results := preflight.RunAll(ctx, d.cfg)
	results = append(results, preflight.CheckDatabase(ctx, d.store))
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "jobs may fail at the stage that needs this dependency"),
		)
	}
}
