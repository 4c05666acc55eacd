package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fwea/internal/job"
)

// Summary aggregates job counts for status output.
type Summary struct {
	Total     int
	Waiting   int
	Active    int
	Completed int
	Failed    int
	Cancelled int
}

// DatabaseHealth describes the state of the job database for diagnostics.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// CleanupResult reports what CleanExpired removed.
type CleanupResult struct {
	Jobs  int
	Files int
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[job.Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[job.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[job.Status(status)] = count
	}
	return stats, rows.Err()
}

// Summarize folds per-status counts into waiting, active and terminal
// buckets.
func Summarize(stats map[job.Status]int) Summary {
	var summary Summary
	for status, count := range stats {
		summary.Total += count
		switch status {
		case job.StatusUploaded:
			summary.Waiting += count
		case job.StatusCompleted:
			summary.Completed += count
		case job.StatusFailed:
			summary.Failed += count
		case job.StatusCancelled:
			summary.Cancelled += count
		default:
			summary.Active += count
		}
	}
	return summary
}

// Metrics aggregates jobs created inside a time window.
type Metrics struct {
	Since    time.Time
	Summary  Summary
	ByStatus map[job.Status]int
	// SuccessRate is completed / (completed + failed); cancellations count
	// for neither. Zero when nothing finished.
	SuccessRate   float64
	AvgProcessing time.Duration
	MinProcessing time.Duration
	MaxProcessing time.Duration
	TotalBytes    int64
	AvgBytes      int64
}

// Metrics reports counts, processing times of completed jobs and source file
// sizes for jobs created at or after since. A zero since covers every job.
func (s *Store) Metrics(ctx context.Context, since time.Time) (Metrics, error) {
	ctx = ensureContext(ctx)
	m := Metrics{Since: since, ByStatus: make(map[job.Status]int)}
	cutoff := ""
	if !since.IsZero() {
		cutoff = formatTime(since)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM jobs WHERE created_at >= ? GROUP BY status`, cutoff)
	if err != nil {
		return m, fmt.Errorf("job metrics: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return m, err
		}
		m.ByStatus[job.Status(status)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return m, err
	}
	m.Summary = Summarize(m.ByStatus)
	if finished := m.Summary.Completed + m.Summary.Failed; finished > 0 {
		m.SuccessRate = float64(m.Summary.Completed) / float64(finished)
	}

	var (
		avgSec, minSec, maxSec sql.NullFloat64
		totalBytes             int64
		avgBytes               sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT
            AVG(elapsed), MIN(elapsed), MAX(elapsed),
            COALESCE(SUM(size), 0), AVG(size)
        FROM (
            SELECT
                CASE WHEN status = ? AND completed_at IS NOT NULL
                     THEN (julianday(completed_at) - julianday(created_at)) * 86400.0
                END AS elapsed,
                json_extract(document, '$.file_size') AS size
            FROM jobs
            WHERE created_at >= ?
        )`,
		string(job.StatusCompleted), cutoff,
	).Scan(&avgSec, &minSec, &maxSec, &totalBytes, &avgBytes)
	if err != nil {
		return m, fmt.Errorf("job metrics: %w", err)
	}
	m.AvgProcessing = secondsToDuration(avgSec)
	m.MinProcessing = secondsToDuration(minSec)
	m.MaxProcessing = secondsToDuration(maxSec)
	m.TotalBytes = totalBytes
	if avgBytes.Valid {
		m.AvgBytes = int64(math.Round(avgBytes.Float64))
	}
	return m, nil
}

func secondsToDuration(v sql.NullFloat64) time.Duration {
	if !v.Valid || v.Float64 < 0 {
		return 0
	}
	return time.Duration(v.Float64 * float64(time.Second)).Round(time.Millisecond)
}

// UpdateHeartbeat records that the owning worker is still alive.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET last_heartbeat = ? WHERE id = ?`,
		now, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale fails claimed, unfinished jobs whose heartbeat is older than
// cutoff. The failure names reason and the stage that was in flight; the job
// can then be retried explicitly. It returns the IDs it failed.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	ctx = ensureContext(ctx)
	terminal := terminalStatuses()
	args := append(statusArgs(terminal), formatTime(cutoff))
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM jobs
        WHERE worker IS NOT NULL
          AND status NOT IN (`+makePlaceholders(len(terminal))+`)
          AND (last_heartbeat IS NULL OR last_heartbeat < ?)
        ORDER BY created_at`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find stale jobs: %w", err)
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

	if strings.TrimSpace(reason) == "" {
		reason = "worker stopped responding"
	}
	var reclaimed []string
	for _, id := range ids {
		_, err := s.Update(ctx, id, func(j *job.Job) error {
			if j.IsTerminal() {
				return errSkip
			}
			return j.Fail(errors.New(reason))
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return reclaimed, fmt.Errorf("reclaim job %s: %w", id, err)
		}
		reclaimed = append(reclaimed, id)
	}
	return reclaimed, nil
}

var errSkip = errors.New("skip")

// Clear deletes jobs in the given statuses; with none it deletes every job
// in a terminal state. Output files are left alone.
func (s *Store) Clear(ctx context.Context, statuses ...job.Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = terminalStatuses()
	}
	for _, status := range statuses {
		if !status.IsTerminal() {
			return 0, fmt.Errorf("clear: refusing to remove %s jobs", status)
		}
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status IN (`+makePlaceholders(len(statuses))+`)`,
		statusArgs(statuses)...,
	)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// CleanExpired removes terminal jobs last updated before cutoff together with
// their output and preview files.
func (s *Store) CleanExpired(ctx context.Context, cutoff time.Time) (CleanupResult, error) {
	ctx = ensureContext(ctx)
	terminal := terminalStatuses()
	args := append(statusArgs(terminal), formatTime(cutoff))
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, output_path, preview_path FROM jobs
        WHERE status IN (`+makePlaceholders(len(terminal))+`) AND updated_at < ?`,
		args...,
	)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("find expired jobs: %w", err)
	}
	type expired struct {
		id    string
		files []string
	}
	var victims []expired
	for rows.Next() {
		var (
			id      string
			output  sql.NullString
			preview sql.NullString
		)
		if err := rows.Scan(&id, &output, &preview); err != nil {
			rows.Close()
			return CleanupResult{}, err
		}
		victims = append(victims, expired{id: id, files: []string{output.String, preview.String}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CleanupResult{}, err
	}

	var result CleanupResult
	ids := make([]string, 0, len(victims))
	for _, v := range victims {
		for _, path := range v.files {
			if removeJobFile(path, v.id) {
				result.Files++
			}
		}
		ids = append(ids, v.id)
	}
	removed, err := s.Remove(ctx, ids...)
	result.Jobs = int(removed)
	if err != nil {
		return result, err
	}
	return result, nil
}

// removeJobFile deletes path and, when it sits in a directory named after the
// job, that directory too once it is empty.
func removeJobFile(path, id string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	removed := false
	if err := os.Remove(path); err == nil {
		removed = true
	}
	if dir := filepath.Dir(path); filepath.Base(dir) == id {
		_ = os.Remove(dir)
	}
	return removed
}

// CheckHealth returns diagnostic information about the job database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("job database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat job database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("job database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("job database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping job database: %w", err)
	}
	health.DatabaseReadable = true

	if health.SchemaVersion, err = s.userVersion(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}

	colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(jobs)")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("table info: %w", err)
	}
	defer colsRows.Close()

	present := make(map[string]struct{})
	for colsRows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("scan table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, name)
		present[name] = struct{}{}
	}
	if err := colsRows.Err(); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("iterate table info: %w", err)
	}
	health.TableExists = len(health.ColumnsPresent) > 0
	for _, col := range jobColumns {
		if _, ok := present[col]; !ok {
			health.MissingColumns = append(health.MissingColumns, col)
		}
	}

	if health.TableExists {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM jobs").Scan(&health.TotalJobs); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count jobs: %w", err)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
