package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fwea/internal/config"
	"fwea/internal/logging"
	"fwea/internal/preflight"
	"fwea/internal/queue"
	"fwea/internal/stage"
	"fwea/internal/workflow"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, binaries, the detection backend and the job store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				results := preflight.RunAll(cmd.Context(), cfg)
				results = append(results, preflight.CheckDatabase(cmd.Context(), store))
				printSection(out, "Dependencies", colorize)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, checkKind(r), r.Detail, colorize))
				}

				fmt.Fprintln(out)
				printSection(out, "Stages", colorize)
				stages, err := workflow.NewStageSet(cfg, logging.NewNop())
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Pipeline", statusError, err.Error(), colorize))
					return fmt.Errorf("pipeline cannot be built: %w", err)
				}
				mgr := workflow.NewManager(cfg, store, logging.NewNop())
				mgr.ConfigureStages(stages)
				for _, h := range mgr.HealthCheck(cmd.Context()) {
					fmt.Fprintln(out, renderStatusLine(h.Name, healthKind(h), h.Detail, colorize))
				}

				if failed := preflight.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%d required checks failed", len(failed))
				}
				return nil
			})
		},
	}
}

func printSection(out io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

func healthKind(h stage.Health) statusKind {
	switch {
	case h.Ready && !h.Degraded:
		return statusOK
	case h.Ready:
		return statusWarn
	default:
		return statusError
	}
}
