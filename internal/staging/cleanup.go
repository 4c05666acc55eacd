package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fwea/internal/logging"
)

// DefaultGrace protects directories a worker may still be writing into.
const DefaultGrace = time.Hour

// CleanResult contains the outcome of an orphan sweep.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanOrphaned removes job directories under dir whose name is not in known
// and whose modification time is older than grace. A zero grace removes every
// orphan immediately.
func CleanOrphaned(ctx context.Context, dir string, known map[string]struct{}, grace time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-grace)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		if _, ok := known[entry.Name()]; ok {
			continue
		}

		dirPath := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if grace > 0 && !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logging.WarnWithContext(logger, "failed to remove orphaned job directory", "artifact_cleanup_failed",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output_dir and preview_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed orphaned job directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "artifact_cleanup"),
		)
	}

	return result
}

// SweepDirs runs CleanOrphaned over each directory and merges the results.
func SweepDirs(ctx context.Context, known map[string]struct{}, grace time.Duration, logger *slog.Logger, dirs ...string) CleanResult {
	var merged CleanResult
	for _, dir := range dirs {
		r := CleanOrphaned(ctx, dir, known, grace, logger)
		merged.Removed = append(merged.Removed, r.Removed...)
		merged.Errors = append(merged.Errors, r.Errors...)
	}
	return merged
}
