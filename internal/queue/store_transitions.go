package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fwea/internal/job"
)

// RequestCancel asks for a job to stop. A job no worker has claimed is
// cancelled on the spot and the returned flag is true. A claimed job only gets
// its cancel flag raised; its worker cancels it between stages.
func (s *Store) RequestCancel(ctx context.Context, id string) (*job.Job, bool, error) {
	immediate := false
	j, err := s.Update(ctx, id, func(j *job.Job) error {
		if j.IsTerminal() {
			return fmt.Errorf("%w: cancel: job is %s", job.ErrInvalidTransition, j.Status)
		}
		if j.Worker == "" {
			immediate = true
			return j.Cancel()
		}
		j.CancelRequested = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return j, immediate, nil
}

// CancelRequested reports whether a cancel flag was raised for the job.
func (s *Store) CancelRequested(ctx context.Context, id string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT cancel_requested FROM jobs WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

// Retry resets a failed job to uploaded so a worker picks it up again. It
// fails with job.ErrNotRetryable when the job is not failed or its retry
// budget is spent.
func (s *Store) Retry(ctx context.Context, id string) (*job.Job, error) {
	return s.Update(ctx, id, func(j *job.Job) error {
		return j.Retry()
	})
}

// RetryFailed retries every failed job that still has retry budget and
// returns how many were reset.
func (s *Store) RetryFailed(ctx context.Context) (int, error) {
	failed, err := s.List(ctx, job.StatusFailed)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, j := range failed {
		if !j.CanRetry() {
			continue
		}
		if _, err := s.Retry(ctx, j.ID); err != nil {
			if errors.Is(err, job.ErrNotRetryable) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}
