package main

import (
	"github.com/spf13/cobra"

	"fwea/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the worker pool until interrupted",
		Long: "Run the fwea daemon in the foreground. Workers claim uploaded jobs from the\n" +
			"job store and drive them through the pipeline. Only one daemon may run per\n" +
			"data directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log records")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Override workflow.workers")
	return cmd
}
