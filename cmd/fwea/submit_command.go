package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fwea/internal/config"
	"fwea/internal/intake"
	"fwea/internal/job"
	"fwea/internal/queue"
)

type submitResult struct {
	Path  string `json:"path"`
	JobID string `json:"job_id,omitempty"`
	Error string `json:"error,omitempty"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var previewSeconds float64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit <file>...",
		Short: "Queue audio files for the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []queue.JobOption
			if cmd.Flags().Changed("preview-seconds") {
				if previewSeconds < 0 {
					return errors.New("--preview-seconds must not be negative")
				}
				opts = append(opts, queue.WithPreviewSeconds(previewSeconds))
			}

			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				results := make([]submitResult, 0, len(args))
				rejected := 0
				for _, arg := range args {
					j, path, err := submitFile(cmd, store, arg, opts)
					res := submitResult{Path: path}
					if err != nil {
						res.Error = err.Error()
						rejected++
					} else {
						res.JobID = j.ID
					}
					results = append(results, res)
				}

				if jsonOutput {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					for _, res := range results {
						if res.Error != "" {
							fmt.Fprintf(out, "Rejected %s: %s\n", res.Path, res.Error)
							continue
						}
						fmt.Fprintf(out, "Queued %s as %s\n", res.Path, res.JobID)
					}
				}
				if rejected > 0 {
					return fmt.Errorf("%d of %d files rejected", rejected, len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&previewSeconds, "preview-seconds", 0, "Preview clip length; 0 skips the preview")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func submitFile(cmd *cobra.Command, store *queue.Store, arg string, opts []queue.JobOption) (*job.Job, string, error) {
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, arg, err
	}
	info, err := intake.Check(path)
	if err != nil {
		return nil, path, err
	}
	j, err := store.NewJob(cmd.Context(), path, append([]queue.JobOption{queue.WithOriginalName(info.Name())}, opts...)...)
	if err != nil {
		return nil, path, err
	}
	return j, path, nil
}
