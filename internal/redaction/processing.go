package redaction

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fwea/internal/audio"
	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/services"
	"fwea/internal/stage"
)

// Processor mutes detected spans.
type Processor struct {
	redactor  *audio.Redactor
	outputDir string
	logger    *slog.Logger
}

// NewProcessor constructs the processing stage.
func NewProcessor(redactor *audio.Redactor, outputDir string, logger *slog.Logger) *Processor {
	return &Processor{
		redactor:  redactor,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "processing"),
	}
}

// Prepare checks the stage wiring.
func (p *Processor) Prepare(_ context.Context, j *job.Job) error {
	if p == nil || p.redactor == nil {
		return services.Wrap(services.ErrConfiguration, "redaction", "prepare", "Redactor is not configured", nil)
	}
	if strings.TrimSpace(p.outputDir) == "" {
		return services.Wrap(services.ErrConfiguration, "redaction", "prepare", "Output directory is not configured", nil)
	}
	if strings.TrimSpace(j.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "redaction", "prepare", "Job has no source path", nil)
	}
	return nil
}

// Execute writes the redacted output.
func (p *Processor) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	logger := logging.WithContext(ctx, p.logger)
	spans := j.MuteSpans()
	dst := OutputPath(p.outputDir, j)
	progress(10, fmt.Sprintf("Muting %d span(s)", len(spans)))

	res, err := p.redactor.Redact(ctx, j.SourcePath, dst, spans, j.Analysis.DurationSeconds)
	if err != nil {
		return stage.Outcome{}, err
	}
	progress(100, "Redacted audio written")

	redacted := !res.Degraded && len(res.Intervals) > 0
	logger.Info("redaction complete",
		logging.String(logging.FieldEventType, "redaction_complete"),
		logging.String("output", res.Path),
		logging.Int("intervals", len(res.Intervals)),
		logging.Float64("muted_seconds", res.MutedSeconds),
		logging.Bool("degraded", res.Degraded),
	)

	var warnings []string
	if res.Degraded {
		warnings = append(warnings, res.Warning)
	}
	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.OutputPath = res.Path
			j.Redacted = redacted
		},
		Metadata: map[string]string{
			"output":        res.Path,
			"intervals":     strconv.Itoa(len(res.Intervals)),
			"muted_seconds": strconv.FormatFloat(res.MutedSeconds, 'f', 3, 64),
			"degraded":      strconv.FormatBool(res.Degraded),
		},
		Warnings: warnings,
	}, nil
}

// HealthCheck reports a degraded stage when the codec is missing, since
// output is then an unmuted copy.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	const name = "processing"
	if p == nil || p.redactor == nil {
		return stage.Unhealthy(name, "redactor not configured")
	}
	if err := p.redactor.Codec().Available(ctx); err != nil {
		return stage.Degraded(name, err.Error())
	}
	return stage.Healthy(name)
}
