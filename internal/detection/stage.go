package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fwea/internal/job"
	"fwea/internal/language"
	"fwea/internal/logging"
	"fwea/internal/services"
	"fwea/internal/stage"
	"fwea/internal/transcript"
)

const stageName = "language-detection"

// Stage is the language-detection pipeline stage.
type Stage struct {
	detector        Detector
	defaultLanguage string
	timeout         time.Duration
	logger          *slog.Logger
}

// NewStage wires a detector into the workflow. timeout bounds each detector
// call; zero leaves only the workflow's stage timeout in force.
func NewStage(detector Detector, defaultLanguage string, timeout time.Duration, logger *slog.Logger) *Stage {
	lang := language.ToISO2(defaultLanguage)
	if lang == "" {
		lang = "en"
	}
	return &Stage{
		detector:        detector,
		defaultLanguage: lang,
		timeout:         timeout,
		logger:          logging.NewComponentLogger(logger, stageName),
	}
}

// Prepare checks the stage wiring.
func (s *Stage) Prepare(_ context.Context, j *job.Job) error {
	if s == nil || s.detector == nil {
		return services.Wrap(services.ErrConfiguration, "detection", "prepare", "Language detector is not configured", nil)
	}
	if strings.TrimSpace(j.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "detection", "prepare", "Job has no source path", nil)
	}
	return nil
}

// Execute runs the detector and records the transcript and languages.
func (s *Stage) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	logger := logging.WithContext(ctx, s.logger)
	progress(5, fmt.Sprintf("Detecting languages with %s", s.detector.Name()))

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	result, err := s.detector.Detect(callCtx, j.SourcePath)

	var warnings []string
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return stage.Outcome{}, err
	case errors.Is(err, services.ErrDetectionTimeout), errors.Is(err, context.DeadlineExceeded):
		return stage.Outcome{}, services.Wrap(services.ErrDetectionTimeout, "detection", "detect", "Language detection timed out", err)
	case errors.Is(err, services.ErrDetectionUnavailable):
		result = transcript.Fallback(j.Analysis.DurationSeconds, s.defaultLanguage)
		warnings = append(warnings, fmt.Sprintf("language detection unavailable; assumed %s for the whole file: %v",
			language.DisplayName(s.defaultLanguage), err))
		logging.WarnWithContext(logger, "language detection unavailable; using default language", "detection_fallback",
			logging.Error(err),
			logging.String("default_language", s.defaultLanguage),
			logging.String(logging.FieldErrorHint, "check the detection backend configuration"),
			logging.String(logging.FieldImpact, "no speech text; profanity cannot be located"),
		)
	default:
		return stage.Outcome{}, err
	}

	languages := language.NormalizeList(result.Languages())
	if len(languages) == 0 {
		languages = []string{s.defaultLanguage}
	}
	progress(100, fmt.Sprintf("Detected %s", strings.Join(languages, ", ")))

	logger.Info("language detection complete",
		logging.String(logging.FieldEventType, "detection_complete"),
		logging.String("detector", s.detector.Name()),
		logging.Int("segments", len(result.Segments)),
		logging.String("languages", strings.Join(languages, ",")),
		logging.Bool("fallback", result.Fallback),
	)

	res := result
	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.Transcript = &res
			j.Languages = languages
		},
		Metadata: map[string]string{
			"detector":  s.detector.Name(),
			"segments":  strconv.Itoa(len(result.Segments)),
			"languages": strings.Join(languages, ","),
			"fallback":  strconv.FormatBool(result.Fallback),
		},
		Warnings: warnings,
	}, nil
}

// HealthCheck reports a degraded stage when the backend is unavailable,
// since jobs still complete through the default-language fallback.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.detector == nil {
		return stage.Unhealthy(stageName, "detector not configured")
	}
	if err := s.detector.Available(ctx); err != nil {
		return stage.Degraded(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}
