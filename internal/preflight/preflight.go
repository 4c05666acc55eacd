package preflight

import (
	"context"

	"fwea/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Preview directory", cfg.Paths.PreviewDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   detail,
		})
	}

	results = append(results, CheckDetector(ctx, cfg))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
