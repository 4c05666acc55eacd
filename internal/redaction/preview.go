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

// Previewer cuts preview clips from redacted output.
type Previewer struct {
	redactor   *audio.Redactor
	previewDir string
	logger     *slog.Logger
}

// NewPreviewer constructs the preview stage.
func NewPreviewer(redactor *audio.Redactor, previewDir string, logger *slog.Logger) *Previewer {
	return &Previewer{
		redactor:   redactor,
		previewDir: previewDir,
		logger:     logging.NewComponentLogger(logger, "preview"),
	}
}

// ShouldSkip skips jobs that asked for no preview.
func (p *Previewer) ShouldSkip(j *job.Job) (bool, string) {
	if j.PreviewSeconds <= 0 {
		return true, "Preview disabled"
	}
	return false, ""
}

// Prepare requires the redacted output from processing.
func (p *Previewer) Prepare(_ context.Context, j *job.Job) error {
	if p == nil || p.redactor == nil {
		return services.Wrap(services.ErrConfiguration, "redaction", "prepare", "Redactor is not configured", nil)
	}
	if strings.TrimSpace(p.previewDir) == "" {
		return services.Wrap(services.ErrConfiguration, "redaction", "prepare", "Preview directory is not configured", nil)
	}
	if strings.TrimSpace(j.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "redaction", "prepare", "No redacted output to preview", nil)
	}
	return nil
}

// Execute writes the preview clip.
func (p *Previewer) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	dst := PreviewPath(p.previewDir, j)
	progress(10, fmt.Sprintf("Cutting %.0fs preview", j.PreviewSeconds))

	res, err := p.redactor.ExtractPreview(ctx, j.OutputPath, dst, j.PreviewSeconds, j.Analysis.DurationSeconds)
	if err != nil {
		return stage.Outcome{}, err
	}
	progress(100, "Preview written")

	logging.WithContext(ctx, p.logger).Info("preview complete",
		logging.String(logging.FieldEventType, "preview_complete"),
		logging.String("preview", res.Path),
		logging.Bool("degraded", res.Degraded),
	)

	var warnings []string
	if res.Degraded {
		warnings = append(warnings, res.Warning)
	}
	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.PreviewPath = res.Path
		},
		Metadata: map[string]string{
			"preview":  res.Path,
			"seconds":  strconv.FormatFloat(j.PreviewSeconds, 'f', -1, 64),
			"degraded": strconv.FormatBool(res.Degraded),
		},
		Warnings: warnings,
	}, nil
}

// HealthCheck mirrors the processing stage.
func (p *Previewer) HealthCheck(ctx context.Context) stage.Health {
	const name = "preview"
	if p == nil || p.redactor == nil {
		return stage.Unhealthy(name, "redactor not configured")
	}
	if err := p.redactor.Codec().Available(ctx); err != nil {
		return stage.Degraded(name, err.Error())
	}
	return stage.Healthy(name)
}
