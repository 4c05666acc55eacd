package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"fwea/internal/config"
	"fwea/internal/deps"
	"fwea/internal/detection"
	"fwea/internal/queue"
)

const detectorCheckTimeout = 30 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the config relies on. The
// daemon dependency snapshot and the doctor command both use it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// CheckDetector builds the configured detection backend and asks whether it
// can serve requests. The "none" backend is reported as passing, since jobs
// still complete with the default language.
func CheckDetector(ctx context.Context, cfg *config.Config) Result {
	name := "Detection backend"
	detector, err := detection.New(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	name = fmt.Sprintf("Detection backend (%s)", detector.Name())
	if cfg.Detection.Backend == config.DetectionBackendNone {
		return Result{Name: name, Passed: true, Optional: true,
			Detail: fmt.Sprintf("disabled; jobs assume %s", cfg.Detection.DefaultLanguage)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, detectorCheckTimeout)
	defer cancel()
	if err := detector.Available(checkCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "availability check timed out"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "available"}
}

// CheckDatabase reports whether the job store is present and intact.
func CheckDatabase(ctx context.Context, store *queue.Store) Result {
	const name = "Job database"
	if store == nil {
		return Result{Name: name, Detail: "not opened"}
	}
	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", health.DBPath, err)}
	}
	if !health.IntegrityCheck || len(health.MissingColumns) > 0 {
		detail := health.Error
		if detail == "" {
			detail = fmt.Sprintf("missing columns %v", health.MissingColumns)
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", health.DBPath, detail)}
	}
	return Result{Name: name, Passed: true,
		Detail: fmt.Sprintf("%s (schema v%d, %d jobs)", health.DBPath, health.SchemaVersion, health.TotalJobs)}
}
