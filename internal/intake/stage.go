// Package intake implements the uploaded stage: it checks that the submitted
// file exists, is a non-empty regular file in a supported audio format, and
// records its size and display name.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/services"
	"fwea/internal/stage"
)

// SupportedExtensions lists the accepted source file extensions.
var SupportedExtensions = []string{".aac", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav", ".wave", ".webm"}

// Stage validates job sources.
type Stage struct {
	logger *slog.Logger
}

// NewStage constructs the intake stage.
func NewStage(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, "intake")}
}

// Prepare is a no-op; all checks run in Execute so failures land on the stage.
func (s *Stage) Prepare(context.Context, *job.Job) error { return nil }

// Execute stats the source file.
func (s *Stage) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	info, err := Check(j.SourcePath)
	if err != nil {
		return stage.Outcome{}, err
	}
	progress(100, "Source accepted")

	original := j.OriginalName
	if strings.TrimSpace(original) == "" {
		original = filepath.Base(j.SourcePath)
	}
	size := info.Size()
	logging.WithContext(ctx, s.logger).Info("source accepted",
		logging.String("source", j.SourcePath),
		logging.Int64("size_bytes", size),
		logging.String(logging.FieldEventType, "source_accepted"),
	)
	return stage.Outcome{
		Apply: func(j *job.Job) {
			j.FileSize = size
			j.OriginalName = original
		},
		Metadata: map[string]string{
			"size_bytes":    strconv.FormatInt(size, 10),
			"original_name": original,
		},
	}, nil
}

// HealthCheck always reports ready.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("intake")
}

// Check validates path as a job source. It is shared with the CLI so bad
// submissions are rejected before a job is created.
func Check(path string) (fs.FileInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "intake", "check", "Source path is empty", nil)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "intake", "check", fmt.Sprintf("Source %s does not exist", path), err)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "intake", "check", "Failed to stat source", err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrValidation, "intake", "check", fmt.Sprintf("Source %s is not a regular file", path), nil)
	}
	if info.Size() == 0 {
		return nil, services.Wrap(services.ErrValidation, "intake", "check", fmt.Sprintf("Source %s is empty", path), nil)
	}
	if ext := strings.ToLower(filepath.Ext(path)); !slices.Contains(SupportedExtensions, ext) {
		return nil, services.Wrap(services.ErrValidation, "intake", "check",
			fmt.Sprintf("Unsupported audio format %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", ")), nil)
	}
	return info, nil
}
