package profanity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/services"
	"fwea/internal/stage"
	"fwea/internal/transcript"
)

const scanBatchSize = 50

// Stage is the content-scanning pipeline stage.
type Stage struct {
	scanner *Scanner
	logger  *slog.Logger
}

// NewStage wires the scanner into the workflow.
func NewStage(scanner *Scanner, logger *slog.Logger) *Stage {
	return &Stage{
		scanner: scanner,
		logger:  logging.NewComponentLogger(logger, "content-scanning"),
	}
}

// Prepare verifies that language detection produced a transcript.
func (s *Stage) Prepare(_ context.Context, j *job.Job) error {
	if s == nil || s.scanner == nil {
		return services.Wrap(services.ErrConfiguration, "content-scanning", "prepare", "Scanner is not configured", nil)
	}
	if j.Transcript == nil {
		return services.Wrap(services.ErrValidation, "content-scanning", "prepare", "No transcript available; language detection did not run", nil)
	}
	return nil
}

// Execute scans every valid transcript segment and records the detected spans.
func (s *Stage) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	logger := logging.WithContext(ctx, s.logger)
	segments, rejected := transcript.Validate(j.Transcript.Segments, j.Analysis.DurationSeconds)
	var warnings []string
	for _, reason := range rejected {
		logging.WarnWithContext(logger, "transcript segment rejected", "segment_rejected",
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "segment not scanned"),
		)
	}
	if len(rejected) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d transcript segment(s) rejected as malformed", len(rejected)))
	}

	languages := j.Languages
	var spans []job.DetectedSpan
	for start := 0; start < len(segments); start += scanBatchSize {
		if err := ctx.Err(); err != nil {
			return stage.Outcome{}, services.Wrap(services.ErrTimeout, "content-scanning", "scan", "Scan interrupted", err)
		}
		end := min(start+scanBatchSize, len(segments))
		spans = append(spans, s.scanner.Scan(segments[start:end], languages)...)
		progress(float64(end)*100/float64(len(segments)), fmt.Sprintf("Scanned %d/%d segments", end, len(segments)))
	}

	summary := Summarize(spans)
	logger.Info("content scan complete",
		logging.Int("segments", len(segments)),
		logging.Int("flagged", summary.Count),
		logging.String("severity", string(summary.Severity)),
		logging.String(logging.FieldEventType, "scan_complete"),
	)

	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.DetectedSpans = spans
			j.Severity = summary.Severity
			j.LanguageBreakdown = summary.Breakdown
		},
		Metadata: map[string]string{
			"segments": strconv.Itoa(len(segments)),
			"flagged":  strconv.Itoa(summary.Count),
			"severity": string(summary.Severity),
		},
		Warnings: warnings,
	}, nil
}

// HealthCheck reports readiness; the lexicon is built in memory so the stage
// is always ready once configured.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.scanner == nil {
		return stage.Unhealthy("content-scanning", "scanner not configured")
	}
	return stage.Healthy("content-scanning")
}
