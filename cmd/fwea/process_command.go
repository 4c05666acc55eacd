package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fwea/internal/config"
	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/queue"
	"fwea/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var previewSeconds float64
	var logLevel string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Run one file through the pipeline in the foreground",
		Long: "Create a job for the file and drive it through every stage in this process,\n" +
			"bypassing the daemon. The job is recorded in the job store like any other.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []queue.JobOption{}
			if cmd.Flags().Changed("preview-seconds") {
				if previewSeconds < 0 {
					return errors.New("--preview-seconds must not be negative")
				}
				opts = append(opts, queue.WithPreviewSeconds(previewSeconds))
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				level := cfg.Logging.Level
				if logLevel != "" {
					level = logLevel
				}
				logger, err := logging.New(logging.Options{
					Level:    level,
					Format:   cfg.Logging.Format,
					Writer:   cmd.ErrOrStderr(),
					FilePath: cfg.LogPath(),
				})
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				stages, err := workflow.NewStageSet(cfg, logger)
				if err != nil {
					return fmt.Errorf("build stages: %w", err)
				}
				mgr := workflow.NewManager(cfg, store, logger)
				mgr.ConfigureStages(stages)

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				j, path, err := submitFile(cmd, store, args[0], append(opts, queue.WithWorker(mgr.WorkerName())))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := mgr.Process(runCtx, j); err != nil {
					return err
				}

				if jsonOutput {
					if err := writeJSON(cmd, j); err != nil {
						return err
					}
				} else {
					renderJobDetail(cmd.OutOrStdout(), j, shouldColorize(cmd.OutOrStdout()))
				}
				switch j.Status {
				case job.StatusFailed:
					return fmt.Errorf("job %s failed: %s", shortID(j.ID), j.Error)
				case job.StatusCancelled:
					return fmt.Errorf("job %s cancelled", shortID(j.ID))
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&previewSeconds, "preview-seconds", 0, "Preview clip length; 0 skips the preview")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the finished job as JSON")
	return cmd
}
