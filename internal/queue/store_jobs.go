package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fwea/internal/job"
)

// JobOption customises a job before it is first persisted.
type JobOption func(*job.Job)

// WithOriginalName records the name the file was submitted under.
func WithOriginalName(name string) JobOption {
	return func(j *job.Job) {
		if name = strings.TrimSpace(name); name != "" {
			j.OriginalName = name
		}
	}
}

// WithPreviewSeconds overrides the configured preview length. Zero skips
// the preview stage.
func WithPreviewSeconds(seconds float64) JobOption {
	return func(j *job.Job) {
		if seconds >= 0 {
			j.PreviewSeconds = seconds
		}
	}
}

// WithWorker inserts the job already claimed by worker, so no pool worker
// can pick it up before the caller starts processing it.
func WithWorker(worker string) JobOption {
	return func(j *job.Job) {
		j.Worker = strings.TrimSpace(worker)
		if j.Worker != "" {
			now := time.Now()
			j.LastHeartbeat = &now
		}
	}
}

// NewJob inserts a job in the uploaded state for sourcePath.
func (s *Store) NewJob(ctx context.Context, sourcePath string, opts ...JobOption) (*job.Job, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, errors.New("new job: source path is required")
	}
	j := job.New(uuid.NewString(), sourcePath)
	s.newJobDefaults(j)
	j.OriginalName = filepath.Base(sourcePath)
	for _, opt := range opts {
		opt(j)
	}

	args, err := jobArgs(j)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (`+jobColumnsSQL+`) VALUES (`+makePlaceholders(len(args))+`)`,
		args...,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// Save persists the full state of j, inserting it if needed. A cancel flag
// raised concurrently through RequestCancel survives the write unless j has
// been retried since. A stored job that already reached a terminal status is
// left alone unless j was retried since; Save then returns ErrJobFinalized.
func (s *Store) Save(ctx context.Context, j *job.Job) error {
	if err := s.save(ensureContext(ctx), s.db, j); err != nil {
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, q querier, j *job.Job) error {
	if j == nil || j.ID == "" {
		return errors.New("save job: missing id")
	}
	args, err := jobArgs(j)
	if err != nil {
		return err
	}
	terminal := terminalStatuses()
	query := `INSERT INTO jobs (` + jobColumnsSQL + `) VALUES (` + makePlaceholders(len(args)) + `)
        ON CONFLICT(id) DO UPDATE SET
            source_path = excluded.source_path,
            original_name = excluded.original_name,
            status = excluded.status,
            progress = excluded.progress,
            error_message = excluded.error_message,
            error_stage = excluded.error_stage,
            output_path = excluded.output_path,
            preview_path = excluded.preview_path,
            worker = excluded.worker,
            cancel_requested = CASE
                WHEN excluded.retry_count <> jobs.retry_count THEN excluded.cancel_requested
                ELSE MAX(jobs.cancel_requested, excluded.cancel_requested)
            END,
            retry_count = excluded.retry_count,
            last_heartbeat = excluded.last_heartbeat,
            updated_at = excluded.updated_at,
            completed_at = excluded.completed_at,
            document = excluded.document
        WHERE jobs.status NOT IN (` + makePlaceholders(len(terminal)) + `)
           OR excluded.retry_count <> jobs.retry_count`
	args = append(args, statusArgs(terminal)...)
	var affected int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := q.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save job %s: %w", j.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrJobFinalized, j.ID)
	}
	return nil
}

// Load returns the job with the given ID or ErrJobNotFound.
func (s *Store) Load(ctx context.Context, id string) (*job.Job, error) {
	return s.load(ensureContext(ctx), s.db, id)
}

func (s *Store) load(ctx context.Context, q querier, id string) (*job.Job, error) {
	row := q.QueryRowContext(ctx, selectJobSQL+` WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	return j, nil
}

// Resolve finds a job by full ID or by an unambiguous ID prefix of at least
// four characters.
func (s *Store) Resolve(ctx context.Context, ref string) (*job.Job, error) {
	ctx = ensureContext(ctx)
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty id", ErrJobNotFound)
	}
	j, err := s.Load(ctx, ref)
	if err == nil || !errors.Is(err, ErrJobNotFound) || len(ref) < 4 {
		return j, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(ref)+"%")
	if err != nil {
		return nil, fmt.Errorf("resolve job %s: %w", ref, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, ref)
	case 1:
		return s.Load(ctx, ids[0])
	default:
		return nil, fmt.Errorf("job id prefix %q is ambiguous", ref)
	}
}

// List returns jobs ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	ctx = ensureContext(ctx)
	query := selectJobSQL
	args := statusArgs(statuses)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClaimNext assigns the oldest unclaimed uploaded job to worker and returns
// it. It returns nil, nil when nothing is waiting.
func (s *Store) ClaimNext(ctx context.Context, worker string) (*job.Job, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(worker) == "" {
		return nil, errors.New("claim job: worker is required")
	}
	now := formatTime(time.Now())
	var id string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`UPDATE jobs SET worker = ?, last_heartbeat = ?, updated_at = ?
            WHERE id = (
                SELECT id FROM jobs
                WHERE status = ? AND worker IS NULL AND cancel_requested = 0
                ORDER BY created_at, id
                LIMIT 1
            )
            RETURNING id`,
			worker, now, now, string(job.StatusUploaded),
		).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return s.Load(ctx, id)
}

// Update loads the job, applies fn and saves the result in one transaction.
// Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, id string, fn func(*job.Job) error) (*job.Job, error) {
	ctx = ensureContext(ctx)
	var updated *job.Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		j, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(j); err != nil {
			return err
		}
		if err := s.save(ctx, tx, j); err != nil {
			return err
		}
		updated = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes the given jobs and reports how many rows went away.
func (s *Store) Remove(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove jobs: %w", err)
	}
	return res.RowsAffected()
}

// IDs returns the set of every job ID in the store.
func (s *Store) IDs(ctx context.Context) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("list job ids: %w", err)
	}
	defer rows.Close()
	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
