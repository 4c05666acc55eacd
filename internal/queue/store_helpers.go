package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fwea/internal/job"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumnsSQL = "id, source_path, original_name, status, progress, retry_count, error_message, error_stage, output_path, preview_path, worker, cancel_requested, last_heartbeat, created_at, updated_at, completed_at, document"

// selectJobSQL returns the persisted document plus the columns that are
// updated outside of Save.
const selectJobSQL = "SELECT document, cancel_requested, worker, last_heartbeat FROM jobs"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*job.Job, error) {
	var (
		document         string
		cancelRequested  sql.NullInt64
		worker           sql.NullString
		lastHeartbeatRaw sql.NullString
	)
	if err := scanner.Scan(&document, &cancelRequested, &worker, &lastHeartbeatRaw); err != nil {
		return nil, err
	}

	j := &job.Job{}
	if err := json.Unmarshal([]byte(document), j); err != nil {
		return nil, fmt.Errorf("decode job document: %w", err)
	}
	j.CancelRequested = j.CancelRequested || cancelRequested.Int64 != 0
	j.Worker = worker.String
	j.LastHeartbeat = nil
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			j.LastHeartbeat = &heartbeat
		}
	}
	return j, nil
}

func jobArgs(j *job.Job) ([]any, error) {
	document, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("encode job document: %w", err)
	}
	return []any{
		j.ID,
		j.SourcePath,
		nullableString(j.OriginalName),
		string(j.Status),
		j.Progress,
		j.RetryCount,
		nullableString(j.Error),
		nullableString(j.ErrorStage),
		nullableString(j.OutputPath),
		nullableString(j.PreviewPath),
		nullableString(j.Worker),
		boolToInt(j.CancelRequested),
		nullableTime(j.LastHeartbeat),
		formatTime(j.CreatedAt),
		formatTime(j.UpdatedAt),
		nullableTime(j.CompletedAt),
		string(document),
	}, nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []job.Status) []any {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	return args
}

func terminalStatuses() []job.Status {
	return []job.Status{job.StatusCompleted, job.StatusFailed, job.StatusCancelled}
}
