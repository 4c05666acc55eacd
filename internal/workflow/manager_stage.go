package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/notifications"
	"fwea/internal/queue"
	"fwea/internal/services"
	"fwea/internal/stage"
)

// WorkerName is the worker identity Process uses. Jobs inserted with
// queue.WithWorker(m.WorkerName()) are never claimed by the pool.
func (m *Manager) WorkerName() string {
	return m.instance + "/cli"
}

// Process drives j through its remaining stages on the calling goroutine and
// leaves the final state in j. The job must be unclaimed or claimed by
// WorkerName.
func (m *Manager) Process(ctx context.Context, j *job.Job) error {
	if j == nil {
		return errors.New("process: job is required")
	}
	if !m.configured() {
		return errors.New("workflow stages not configured")
	}
	worker := m.WorkerName()
	claimed, err := m.store.Update(ctx, j.ID, func(stored *job.Job) error {
		if stored.IsTerminal() {
			return fmt.Errorf("%w: job %s is %s", job.ErrInvalidTransition, stored.ID, stored.Status)
		}
		if stored.Worker != "" && stored.Worker != worker {
			return fmt.Errorf("job %s is already claimed by %s", stored.ID, stored.Worker)
		}
		stored.Worker = worker
		now := time.Now()
		stored.LastHeartbeat = &now
		return nil
	})
	if err != nil {
		return err
	}
	runErr := m.runJob(ctx, claimed, worker)
	*j = *claimed
	return runErr
}

func (m *Manager) runJob(ctx context.Context, j *job.Job, worker string) error {
	ctx = services.WithJobID(ctx, j.ID)
	ctx = services.WithWorker(ctx, worker)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	j.Worker = worker

	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, j.ID)
	defer func() {
		hbCancel()
		hbWG.Wait()
	}()

	started := time.Now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_file", j.SourcePath),
		logging.Int("retry_count", j.RetryCount),
	)
	sampler := logging.NewProgressSampler(5)

	for !j.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return m.abandon(ctx, logger, j, err)
		}
		if m.cancelRequested(ctx, logger, j) {
			return m.cancelJob(ctx, logger, j)
		}

		name, ok := j.NextStage()
		if !ok {
			if err := j.Complete(j.OutputPath, j.PreviewPath); err != nil {
				_ = j.Fail(err)
			}
			if err := m.persist(ctx, j); err != nil {
				return err
			}
			continue
		}

		stg, ok := m.stageFor(name)
		if !ok {
			_ = j.Fail(services.Wrap(services.ErrConfiguration, name.String(), "dispatch", "no stage handler registered", nil))
			if err := m.persist(ctx, j); err != nil {
				return err
			}
			continue
		}

		if skipper, ok := stg.handler.(stage.Skipper); ok {
			if skip, reason := skipper.ShouldSkip(j); skip {
				if err := j.SkipStage(name, reason); err != nil {
					_ = j.Fail(err)
				}
				if err := m.persist(ctx, j); err != nil {
					return err
				}
				logging.WithContext(services.WithStage(ctx, name.String()), m.logger).Info("stage skipped",
					logging.String(logging.FieldEventType, "stage_skipped"),
					logging.String("reason", reason),
				)
				continue
			}
		}

		if err := m.runStage(ctx, j, stg, sampler); err != nil {
			return err
		}
	}

	m.logJobOutcome(logger, j, time.Since(started))
	m.notifyOutcome(ctx, logger, j)
	m.setLastJob(j)
	return nil
}

func (m *Manager) runStage(ctx context.Context, j *job.Job, stg pipelineStage, sampler *logging.ProgressSampler) error {
	stageCtx := services.WithStage(ctx, stg.name.String())
	logger := logging.WithContext(stageCtx, m.logger)

	if err := j.StartStage(stg.name, stg.description); err != nil {
		_ = j.Fail(err)
		return m.persist(ctx, j)
	}
	if err := m.persist(ctx, j); err != nil {
		return err
	}
	attempt := 1
	if rec := j.ActiveStage(); rec != nil {
		attempt = rec.RetryCount + 1
	}
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("attempt", attempt),
		logging.Int("job_progress", j.Progress),
	)
	sampler.Reset()
	started := time.Now()

	reporter := &progressReporter{
		manager: m,
		ctx:     stageCtx,
		logger:  logger,
		job:     j,
		sampler: sampler,
		stage:   stg.name.String(),
	}
	outcome, execErr := m.execute(stageCtx, stg, j, reporter.report)
	reporter.close()

	if m.cancelRequested(ctx, logger, j) {
		logger.Info("discarding stage result after cancellation",
			logging.String(logging.FieldEventType, "stage_discarded"),
			logging.Duration("stage_duration", time.Since(started)),
		)
		return m.cancelJob(ctx, logger, j)
	}
	if execErr != nil && ctx.Err() != nil {
		return m.abandon(ctx, logger, j, ctx.Err())
	}
	if execErr != nil {
		return m.handleStageFailure(ctx, logger, j, stg, execErr)
	}

	outcome.Commit(j)
	if err := j.CompleteStage(outcome.Metadata); err != nil {
		_ = j.Fail(err)
		return m.persist(ctx, j)
	}
	if err := m.persist(ctx, j); err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
		logging.Int("job_progress", j.Progress),
		logging.Int("warnings", len(outcome.Warnings)),
	)
	return nil
}

// execute runs Prepare and Execute under the stage timeout. A handler that
// overruns the deadline without classifying the error itself gets a
// retryable timeout.
func (m *Manager) execute(ctx context.Context, stg pipelineStage, j *job.Job, progress stage.ProgressFunc) (outcome stage.Outcome, err error) {
	execCtx := ctx
	cancel := context.CancelFunc(func() {})
	if m.stageTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, m.stageTimeout)
	}
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			outcome = stage.Outcome{}
			err = fmt.Errorf("stage %s panicked: %v", stg.name, r)
		}
	}()

	if err := stg.handler.Prepare(execCtx, j); err != nil {
		return stage.Outcome{}, m.classifyTimeout(execCtx, stg, "prepare", err)
	}
	outcome, err = stg.handler.Execute(execCtx, j, progress)
	if err != nil {
		return stage.Outcome{}, m.classifyTimeout(execCtx, stg, "execute", err)
	}
	return outcome, nil
}

func (m *Manager) classifyTimeout(execCtx context.Context, stg pipelineStage, op string, err error) error {
	if !errors.Is(execCtx.Err(), context.DeadlineExceeded) || services.IsRetryable(err) {
		return err
	}
	return services.Wrap(services.ErrTimeout, stg.name.String(), op,
		fmt.Sprintf("stage exceeded %s", m.stageTimeout), err)
}

// persist saves j, stamping the worker heartbeat. It survives cancellation of
// ctx so that the final state of an interrupted job is still written. When
// the stored job was finalized behind the worker's back (a stale reclaim), j
// is replaced by the stored state and queue.ErrJobFinalized is returned.
func (m *Manager) persist(ctx context.Context, j *job.Job) error {
	ctx = context.WithoutCancel(ctx)
	now := time.Now()
	j.LastHeartbeat = &now
	err := m.store.Save(ctx, j)
	if err == nil {
		return nil
	}
	if errors.Is(err, queue.ErrJobFinalized) {
		if stored, loadErr := m.store.Load(ctx, j.ID); loadErr == nil {
			*j = *stored
		}
	}
	return fmt.Errorf("persist job %s: %w", j.ID, err)
}

func (m *Manager) cancelRequested(ctx context.Context, logger *slog.Logger, j *job.Job) bool {
	if j.CancelRequested {
		return true
	}
	flag, err := m.store.CancelRequested(context.WithoutCancel(ctx), j.ID)
	if err != nil {
		logger.Warn("cancel flag unavailable", logging.Error(err))
		return false
	}
	j.CancelRequested = flag
	return flag
}

func (m *Manager) cancelJob(ctx context.Context, logger *slog.Logger, j *job.Job) error {
	if err := j.Cancel(); err != nil {
		return nil
	}
	if err := m.persist(ctx, j); err != nil {
		return err
	}
	logger.Info("job cancelled",
		logging.String(logging.FieldEventType, "job_cancelled"),
		logging.Int("job_progress", j.Progress),
	)
	m.setLastJob(j)
	return nil
}

// abandon fails a job whose worker is shutting down and returns cause so the
// worker exits.
func (m *Manager) abandon(ctx context.Context, logger *slog.Logger, j *job.Job, cause error) error {
	if !j.IsTerminal() {
		_ = j.Fail(errors.New("worker stopped before the job finished"))
		if err := m.persist(ctx, j); err != nil {
			logger.Error("failed to persist interrupted job", logging.Error(err))
		}
		logging.WarnWithContext(logger, "job interrupted by shutdown", "job_interrupted",
			logging.String(logging.FieldErrorHint, "retry the job with fwea queue retry"),
			logging.String(logging.FieldImpact, "job marked failed"),
		)
	}
	return cause
}

func (m *Manager) logJobOutcome(logger *slog.Logger, j *job.Job, elapsed time.Duration) {
	switch j.Status {
	case job.StatusCompleted:
		logger.Info("job completed",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.String("severity", string(j.Severity)),
			logging.Int("spans", len(j.DetectedSpans)),
			logging.Bool("redacted", j.Redacted),
			logging.String("output_path", j.OutputPath),
			logging.String("preview_path", j.PreviewPath),
			logging.Int("warnings", len(j.Warnings)),
			logging.Duration("job_duration", elapsed),
		)
	case job.StatusFailed:
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String("error_stage", j.ErrorStage),
			logging.String("error_message", j.Error),
			logging.Bool("can_retry", j.CanRetry()),
			logging.Duration("job_duration", elapsed),
			logging.String(logging.FieldErrorHint, "inspect with fwea queue show, then fwea queue retry"),
		)
	}
}

func (m *Manager) notifyOutcome(ctx context.Context, logger *slog.Logger, j *job.Job) {
	var event notifications.Event
	switch j.Status {
	case job.StatusCompleted:
		event = notifications.EventJobCompleted
	case job.StatusFailed:
		event = notifications.EventJobFailed
	default:
		return
	}
	if err := m.notifier.Publish(ctx, event, notifications.PayloadForJob(j)); err != nil {
		logging.WarnWithContext(logger, "outcome notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// progressReporter forwards handler progress into the job. Late callbacks
// after the stage returned are dropped.
type progressReporter struct {
	mu      sync.Mutex
	closed  bool
	manager *Manager
	ctx     context.Context
	logger  *slog.Logger
	job     *job.Job
	sampler *logging.ProgressSampler
	stage   string
}

func (r *progressReporter) report(percent float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	before := r.job.Progress
	if !r.job.UpdateStageProgress(percent, message) {
		return
	}
	if r.sampler.ShouldLog(percent, r.stage) {
		r.logger.Info("stage progress",
			logging.String(logging.FieldEventType, "stage_progress"),
			logging.Float64("stage_percent", percent),
			logging.String("message", message),
			logging.Int("job_progress", r.job.Progress),
		)
	}
	if r.job.Progress != before {
		if err := r.manager.persist(r.ctx, r.job); err != nil {
			r.logger.Warn("failed to persist progress", logging.Error(err))
		}
	}
}

func (r *progressReporter) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
