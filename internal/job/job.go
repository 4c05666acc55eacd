package job

import (
	"errors"
	"strings"
	"time"

	"fwea/internal/interval"
	"fwea/internal/transcript"
)

// Status is the overall job lifecycle state. While a stage is active the job
// status equals that stage's name.
type Status string

const (
	StatusUploaded          Status = "uploaded"
	StatusAnalyzing         Status = "analyzing"
	StatusLanguageDetection Status = "language-detection"
	StatusContentScanning   Status = "content-scanning"
	StatusProcessing        Status = "processing"
	StatusPreview           Status = "preview"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
)

const (
	DefaultMaxRetries      = 3
	DefaultStageRetryLimit = 3
	DefaultPreviewSeconds  = 30
)

var (
	// ErrInvalidTransition marks an operation that is illegal in the job's
	// current state. It indicates an ordering bug and is never retried.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotRetryable is returned by Retry when the job is not failed or its
	// retry budget is spent.
	ErrNotRetryable = errors.New("job not retryable")
)

var allStatuses = []Status{
	StatusUploaded,
	StatusAnalyzing,
	StatusLanguageDetection,
	StatusContentScanning,
	StatusProcessing,
	StatusPreview,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further stage transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Severity grades how much profanity a span or job contains.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// DetectedSpan is one redaction target.
type DetectedSpan struct {
	interval.Span
	Language   string   `json:"language"`
	Words      []string `json:"words"`
	Confidence float64  `json:"confidence"`
	Severity   Severity `json:"severity"`
}

// LanguageStat summarises findings for one language.
type LanguageStat struct {
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// AudioInfo is what the analysing stage learned about the source.
type AudioInfo struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	Format          string  `json:"format"`
	BitRate         int64   `json:"bit_rate,omitempty"`
}

// StageRecord is one attempt at one named stage.
type StageRecord struct {
	Name        StageName         `json:"name"`
	Status      StageStatus       `json:"status"`
	Description string            `json:"description,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Duration    time.Duration     `json:"duration,omitempty"`
	Progress    float64           `json:"progress"`
	RetryCount  int               `json:"retry_count"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Job is the unit of work for one audio file.
type Job struct {
	ID           string `json:"id"`
	SourcePath   string `json:"source_path"`
	OriginalName string `json:"original_name,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`

	Status           Status        `json:"status"`
	Progress         int           `json:"progress"`
	StageDescription string        `json:"stage_description,omitempty"`
	Stages           []StageRecord `json:"stages,omitempty"`

	RetryCount      int `json:"retry_count"`
	MaxRetries      int `json:"max_retries"`
	StageRetryLimit int `json:"stage_retry_limit"`

	Analysis          AudioInfo               `json:"analysis"`
	Transcript        *transcript.Result      `json:"transcript,omitempty"`
	Languages         []string                `json:"languages,omitempty"`
	DetectedSpans     []DetectedSpan          `json:"detected_spans,omitempty"`
	Severity          Severity                `json:"severity"`
	LanguageBreakdown map[string]LanguageStat `json:"language_breakdown,omitempty"`

	OutputPath     string  `json:"output_path,omitempty"`
	PreviewPath    string  `json:"preview_path,omitempty"`
	PreviewSeconds float64 `json:"preview_seconds"`
	Redacted       bool    `json:"redacted"`

	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
	ErrorStage string   `json:"error_stage,omitempty"`

	CancelRequested bool       `json:"cancel_requested,omitempty"`
	Worker          string     `json:"worker,omitempty"`
	LastHeartbeat   *time.Time `json:"last_heartbeat,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// New creates a job in the uploaded state.
func New(id, sourcePath string) *Job {
	ts := now()
	return &Job{
		ID:              id,
		SourcePath:      sourcePath,
		Status:          StatusUploaded,
		MaxRetries:      DefaultMaxRetries,
		StageRetryLimit: DefaultStageRetryLimit,
		PreviewSeconds:  DefaultPreviewSeconds,
		Severity:        SeverityNone,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// IsTerminal reports whether the job is completed, failed or cancelled.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// CanRetry reports whether Retry would succeed.
func (j *Job) CanRetry() bool {
	return j.Status == StatusFailed && j.RetryCount < j.MaxRetries
}

// AddWarning records a non-fatal problem surfaced by a stage.
func (j *Job) AddWarning(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	j.Warnings = append(j.Warnings, msg)
	j.touch()
}

// MuteSpans returns the bounds of every detected span.
func (j *Job) MuteSpans() []interval.Span {
	out := make([]interval.Span, 0, len(j.DetectedSpans))
	for _, s := range j.DetectedSpans {
		out = append(out, s.Span)
	}
	return out
}

func (j *Job) touch() {
	j.UpdatedAt = now()
}

var now = time.Now
