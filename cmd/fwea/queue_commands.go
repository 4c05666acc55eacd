package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fwea/internal/config"
	"fwea/internal/job"
	"fwea/internal/queue"
	"fwea/internal/staging"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage jobs",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueCleanupCommand(ctx))

	return queueCmd
}

func parseStatuses(values []string) ([]job.Status, error) {
	statuses := make([]job.Status, 0, len(values))
	for _, value := range values {
		status, ok := job.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if jobs == nil {
						jobs = []*job.Job{}
					}
					return writeJSON(cmd, jobs)
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(queueListColumns, buildQueueListRows(jobs)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				j, err := store.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, j)
				}
				renderJobDetail(cmd.OutOrStdout(), j, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type queueStats struct {
	Since    *time.Time     `json:"since,omitempty"`
	Summary  queue.Summary  `json:"summary"`
	ByStatus map[string]int `json:"by_status"`
	Metrics  queueMetrics   `json:"metrics"`
}

type queueMetrics struct {
	SuccessRate          float64 `json:"success_rate"`
	AvgProcessingSeconds float64 `json:"avg_processing_seconds"`
	MinProcessingSeconds float64 `json:"min_processing_seconds"`
	MaxProcessingSeconds float64 `json:"max_processing_seconds"`
	TotalBytes           int64   `json:"total_bytes"`
	AvgBytes             int64   `json:"avg_bytes"`
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		window     string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job counts, processing times and sizes",
		Long: `Show job counts per status together with processing times of completed
jobs, success rate and source file sizes. --since limits the report to jobs
created inside a window such as 1h, 24h, 7d or 30d.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var since time.Time
			if strings.TrimSpace(window) != "" {
				d, err := parseWindow(window)
				if err != nil {
					return err
				}
				since = time.Now().Add(-d)
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				m, err := store.Metrics(cmd.Context(), since)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, buildQueueStats(m))
				}

				out := cmd.OutOrStdout()
				if !since.IsZero() {
					fmt.Fprintf(out, "Jobs created since %s\n", formatTimestamp(since))
				}
				rows := buildQueueStatusRows(m.ByStatus)
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				summary := m.Summary
				fmt.Fprintln(out, renderTable(statusColumns, rows))
				fmt.Fprintf(out, "Total %d: %d waiting, %d active, %d completed, %d failed, %d cancelled\n",
					summary.Total, summary.Waiting, summary.Active, summary.Completed, summary.Failed, summary.Cancelled)
				if metricRows := buildMetricRows(m); len(metricRows) > 0 {
					fmt.Fprintln(out, renderTable(metricColumns, metricRows))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&window, "since", "", "Only count jobs created within this window (e.g. 1h, 24h, 7d, 30d)")
	return cmd
}

// parseWindow accepts Go durations plus a whole-day suffix ("7d").
func parseWindow(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid --since %q: expected a positive number of days", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid --since %q: expected a positive duration such as 24h or 7d", value)
	}
	return d, nil
}

func buildQueueStats(m queue.Metrics) queueStats {
	byStatus := make(map[string]int, len(m.ByStatus))
	for status, count := range m.ByStatus {
		byStatus[string(status)] = count
	}
	stats := queueStats{
		Summary:  m.Summary,
		ByStatus: byStatus,
		Metrics: queueMetrics{
			SuccessRate:          m.SuccessRate,
			AvgProcessingSeconds: m.AvgProcessing.Seconds(),
			MinProcessingSeconds: m.MinProcessing.Seconds(),
			MaxProcessingSeconds: m.MaxProcessing.Seconds(),
			TotalBytes:           m.TotalBytes,
			AvgBytes:             m.AvgBytes,
		},
	}
	if !m.Since.IsZero() {
		since := m.Since
		stats.Since = &since
	}
	return stats
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("specify job IDs or --all")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if all {
					count, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Requeued %d failed jobs\n", count)
					return nil
				}

				var failures int
				for _, ref := range args {
					j, err := store.Resolve(cmd.Context(), ref)
					if err != nil {
						fmt.Fprintf(out, "%s: %v\n", ref, err)
						failures++
						continue
					}
					updated, err := store.Retry(cmd.Context(), j.ID)
					switch {
					case errors.Is(err, job.ErrNotRetryable):
						fmt.Fprintf(out, "%s: not retryable (status %s, retries %d/%d)\n",
							shortID(j.ID), j.Status, j.RetryCount, j.MaxRetries)
						failures++
					case err != nil:
						return err
					default:
						fmt.Fprintf(out, "%s: requeued (retry %d/%d)\n", shortID(updated.ID), updated.RetryCount, updated.MaxRetries)
					}
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d jobs not retried", failures, len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Retry every failed job with retry budget left")
	return cmd
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>...",
		Short: "Cancel jobs",
		Long: "Cancel waiting jobs immediately. Jobs a worker is processing are flagged and\n" +
			"stop once the current stage call returns; its result is discarded.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var failures int
				for _, ref := range args {
					j, err := store.Resolve(cmd.Context(), ref)
					if err != nil {
						fmt.Fprintf(out, "%s: %v\n", ref, err)
						failures++
						continue
					}
					updated, immediate, err := store.RequestCancel(cmd.Context(), j.ID)
					switch {
					case errors.Is(err, job.ErrInvalidTransition):
						fmt.Fprintf(out, "%s: already %s\n", shortID(j.ID), j.Status)
						failures++
					case err != nil:
						return err
					case immediate:
						fmt.Fprintf(out, "%s: cancelled\n", shortID(updated.ID))
					default:
						fmt.Fprintf(out, "%s: cancellation requested; %s stops after the current stage\n",
							shortID(updated.ID), updated.Worker)
					}
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d jobs not cancelled", failures, len(args))
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the store",
		Long: "Remove completed, failed and cancelled jobs. Output files are left in place;\n" +
			"use \"queue cleanup\" to delete expired jobs together with their files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(clearStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				label := "finished"
				if len(statuses) > 0 {
					label = strings.Join(clearStatuses, "/")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s jobs\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Only clear jobs in these terminal statuses")
	return cmd
}

func newQueueCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired jobs and their output files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				expiry := cfg.JobExpiry()
				if cmd.Flags().Changed("days") {
					if days < 0 {
						return errors.New("--days must not be negative")
					}
					expiry = time.Duration(days) * 24 * time.Hour
				} else if expiry <= 0 {
					return errors.New("job expiry is disabled (workflow.job_expiry_days = 0); pass --days")
				}
				result, err := store.CleanExpired(cmd.Context(), time.Now().Add(-expiry))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d expired jobs and %d files\n", result.Jobs, result.Files)

				ids, err := store.IDs(cmd.Context())
				if err != nil {
					return err
				}
				sweep := staging.SweepDirs(cmd.Context(), ids, staging.DefaultGrace, nil, cfg.Paths.OutputDir, cfg.Paths.PreviewDir)
				if len(sweep.Removed) > 0 {
					fmt.Fprintf(out, "Removed %d orphaned job directories\n", len(sweep.Removed))
				}
				for _, e := range sweep.Errors {
					fmt.Fprintf(out, "Could not remove %s: %v\n", e.Path, e.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Expire finished jobs older than this many days (default workflow.job_expiry_days)")
	return cmd
}
