package audioanalysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fwea/internal/audio"
	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/services"
	"fwea/internal/stage"
)

const name = "audio-analysis"

// Analyzer probes job sources through an audio codec.
type Analyzer struct {
	codec  audio.Codec
	logger *slog.Logger
}

// NewAnalyzer constructs the analyzing stage.
func NewAnalyzer(codec audio.Codec, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		codec:  codec,
		logger: logging.NewComponentLogger(logger, name),
	}
}

// Prepare checks the stage wiring.
func (a *Analyzer) Prepare(_ context.Context, j *job.Job) error {
	if a == nil || a.codec == nil {
		return services.Wrap(services.ErrConfiguration, "audioanalysis", "prepare", "Audio analysis stage is not configured", nil)
	}
	if strings.TrimSpace(j.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "audioanalysis", "prepare", "Job has no source path", nil)
	}
	return nil
}

// Execute probes the source file.
func (a *Analyzer) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, a.logger)
	progress(10, "Probing audio")

	info, err := a.codec.Probe(ctx, j.SourcePath)
	var warnings []string
	switch {
	case err == nil:
	case audio.IsTimeout(err), errors.Is(err, context.Canceled):
		return stage.Outcome{}, err
	case audio.IsUnavailable(err):
		info = audio.Info{Format: formatFromExt(j.SourcePath)}
		warnings = append(warnings, fmt.Sprintf("audio probe unavailable; duration unknown: %v", err))
		logging.WarnWithContext(logger, "audio probe unavailable; continuing with unknown duration", "probe_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffprobe or enable native WAV handling"),
			logging.String(logging.FieldImpact, "spans are not clamped and previews are always trimmed"),
		)
	default:
		return stage.Outcome{}, services.Wrap(services.Marker(err), "audioanalysis", "probe", "Failed to read audio properties", err)
	}

	if err == nil && info.DurationSeconds <= 0 {
		warnings = append(warnings, "audio duration could not be determined")
	}
	progress(100, "Audio analyzed")

	analysis := job.AudioInfo{
		DurationSeconds: info.DurationSeconds,
		SampleRate:      info.SampleRate,
		Channels:        info.Channels,
		Format:          info.Format,
		BitRate:         info.BitRate,
	}
	logger.Info("audio analysis stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Float64("duration_seconds", analysis.DurationSeconds),
		logging.Int("sample_rate", analysis.SampleRate),
		logging.Int("channels", analysis.Channels),
		logging.String("format", analysis.Format),
		logging.String("codec", a.codec.Name()),
	)

	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.Analysis = analysis
		},
		Metadata: map[string]string{
			"duration":    strconv.FormatFloat(analysis.DurationSeconds, 'f', 3, 64),
			"sample_rate": strconv.Itoa(analysis.SampleRate),
			"channels":    strconv.Itoa(analysis.Channels),
			"format":      analysis.Format,
		},
		Warnings: warnings,
	}, nil
}

// HealthCheck reports readiness for the analyzing stage. A missing external
// codec degrades the stage rather than blocking it.
func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a == nil || a.codec == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if err := a.codec.Available(ctx); err != nil {
		return stage.Degraded(name, err.Error())
	}
	return stage.Healthy(name)
}

func formatFromExt(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
