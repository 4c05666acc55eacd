package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fwea/internal/logging"
	"fwea/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		query  logs.Query
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: "Print the tail of the fwea log file. Filters narrow the output to one job,\n" +
			"stage, event type or minimum level; --follow keeps polling for new records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			if path == "" {
				return errors.New("paths.log_dir is not configured")
			}
			if lines < 0 {
				return errors.New("--lines must not be negative")
			}

			out := cmd.OutOrStdout()
			filter := query.Filter()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			printLogLines(out, result.Lines, raw)
			if !follow {
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			offset := result.Offset
			for runCtx.Err() == nil {
				next, err := logs.Tail(runCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second, Filter: filter})
				if err != nil {
					if runCtx.Err() != nil {
						return nil
					}
					return err
				}
				printLogLines(out, next.Lines, raw)
				offset = next.Offset
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of matching records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print records as stored")
	cmd.Flags().StringVar(&query.JobID, "job", "", "Only records for this job ID or prefix")
	cmd.Flags().StringVar(&query.Stage, "stage", "", "Only records for this stage")
	cmd.Flags().StringVar(&query.Event, "event", "", "Only records with this event_type")
	cmd.Flags().StringVar(&query.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func printLogLines(w io.Writer, lines []string, raw bool) {
	for _, line := range lines {
		if raw {
			fmt.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, formatLogRecord(line))
	}
}

// formatLogRecord renders a JSON record as "time LEVEL [job] msg key=value".
// Lines that are not JSON pass through unchanged.
func formatLogRecord(line string) string {
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return line
	}
	var b strings.Builder
	if ts, ok := rec["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			ts = parsed.Local().Format("2006-01-02 15:04:05")
		}
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	level, _ := rec["level"].(string)
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(level))
	if id, ok := rec[logging.FieldJobID].(string); ok && id != "" {
		fmt.Fprintf(&b, "[%s] ", shortID(id))
	}
	msg, _ := rec["msg"].(string)
	b.WriteString(msg)

	skip := map[string]bool{"ts": true, "level": true, "msg": true, logging.FieldJobID: true}
	keys := make([]string, 0, len(rec))
	for key := range rec {
		if !skip[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec[key])
	}
	return b.String()
}
