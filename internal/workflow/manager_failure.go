package workflow

import (
	"context"
	"errors"
	"log/slog"

	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/services"
)

// handleStageFailure records a failed attempt. Retryable failures within the
// stage budget leave the stage pending for the next loop iteration after the
// configured delay; anything else fails the job.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, j *job.Job, stg pipelineStage, stageErr error) error {
	retryable := services.IsRetryable(stageErr)
	again, err := j.FailStage(stageErr, retryable)
	if err != nil {
		_ = j.Fail(stageErr)
	}
	if err := m.persist(ctx, j); err != nil {
		return err
	}
	m.setLastError(stageErr)

	if again {
		attempts := 0
		if rec := j.LatestAttempt(stg.name); rec != nil {
			attempts = rec.RetryCount
		}
		logging.WarnWithContext(logger, "stage failed; retrying", "stage_retry",
			logging.Error(stageErr),
			logging.Int("retry", attempts),
			logging.Int("retry_limit", j.StageRetryLimit),
			logging.Duration("retry_delay", m.retryDelay),
			logging.String(logging.FieldErrorHint, errorHint(stageErr)),
			logging.String(logging.FieldImpact, "stage will be re-entered"),
		)
		if !m.waitOrShutdown(ctx, m.retryDelay) {
			return m.abandon(ctx, logger, j, ctx.Err())
		}
		return nil
	}

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.Error(stageErr),
		logging.Bool("retryable", retryable),
		logging.String("error_message", j.Error),
		logging.String(logging.FieldErrorHint, errorHint(stageErr)),
	)
	return nil
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrDetectionTimeout):
		return "raise detection.timeout or check the detection backend"
	case errors.Is(err, services.ErrDetectionUnavailable):
		return "check the detection backend installation"
	case errors.Is(err, services.ErrCodecTimeout):
		return "raise audio.codec_timeout"
	case errors.Is(err, services.ErrCodecUnavailable):
		return "install ffmpeg or set audio.ffmpeg_binary"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "raise workflow.stage_timeout"
	case errors.Is(err, services.ErrNotFound):
		return "check that the source file still exists"
	case errors.Is(err, services.ErrValidation):
		return "check the source file"
	case errors.Is(err, services.ErrConfiguration):
		return "check the fwea configuration"
	default:
		return "check logs for details"
	}
}
