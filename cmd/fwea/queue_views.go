package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fwea/internal/job"
	"fwea/internal/language"
	"fwea/internal/queue"
)

const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func displayName(j *job.Job) string {
	if name := strings.TrimSpace(j.OriginalName); name != "" {
		return name
	}
	return j.SourcePath
}

func buildQueueListRows(jobs []*job.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			shortID(j.ID),
			displayName(j),
			string(j.Status),
			fmt.Sprintf("%d%%", j.Progress),
			string(j.Severity),
			formatTimestamp(j.CreatedAt),
		})
	}
	return rows
}

// buildQueueStatusRows returns one row per status with a non-zero count, in
// lifecycle order.
func buildQueueStatusRows(stats map[job.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range job.AllStatuses() {
		if count := stats[status]; count > 0 {
			rows = append(rows, []string{string(status), strconv.Itoa(count)})
		}
	}
	return rows
}

// buildMetricRows lists processing times once something completed and sizes
// once any job recorded one.
func buildMetricRows(m queue.Metrics) [][]string {
	var rows [][]string
	if m.Summary.Completed+m.Summary.Failed > 0 {
		rows = append(rows, []string{"Success rate", fmt.Sprintf("%.1f%%", 100*m.SuccessRate)})
	}
	if m.Summary.Completed > 0 {
		rows = append(rows,
			[]string{"Avg processing", m.AvgProcessing.String()},
			[]string{"Min processing", m.MinProcessing.String()},
			[]string{"Max processing", m.MaxProcessing.String()},
		)
	}
	if m.TotalBytes > 0 {
		rows = append(rows,
			[]string{"Total size", humanize.Bytes(uint64(m.TotalBytes))},
			[]string{"Avg size", humanize.Bytes(uint64(m.AvgBytes))},
		)
	}
	return rows
}

func buildStageRows(j *job.Job) [][]string {
	rows := make([][]string, 0, len(j.Stages))
	for _, rec := range j.Stages {
		detail := rec.Error
		if detail == "" {
			detail = rec.Description
		}
		rows = append(rows, []string{
			rec.Name.String(),
			string(rec.Status),
			strconv.Itoa(rec.RetryCount),
			formatStageDuration(rec.Duration),
			detail,
		})
	}
	return rows
}

func buildSpanRows(spans []job.DetectedSpan) [][]string {
	rows := make([][]string, 0, len(spans))
	for _, s := range spans {
		rows = append(rows, []string{
			formatSeconds(s.Start),
			formatSeconds(s.End),
			language.DisplayName(s.Language),
			string(s.Severity),
			strings.Join(s.Words, ", "),
		})
	}
	return rows
}

func buildBreakdownRows(breakdown map[string]job.LanguageStat) [][]string {
	langs := make([]string, 0, len(breakdown))
	for lang := range breakdown {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	rows := make([][]string, 0, len(langs))
	for _, lang := range langs {
		stat := breakdown[lang]
		rows = append(rows, []string{language.DisplayName(lang), strconv.Itoa(stat.Count), string(stat.Severity)})
	}
	return rows
}

func renderJobDetail(w io.Writer, j *job.Job, colorize bool) {
	for _, line := range renderSectionHeader("Job "+j.ID, colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderStatusLine("Status", jobStatusKind(j.Status), fmt.Sprintf("%s (%d%%)", j.Status, j.Progress), colorize))
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(w, "%s%-*s %s\n", statusIndent, statusLabelWidth, label+":", value)
	}
	field("Source", j.SourcePath)
	field("Name", j.OriginalName)
	if j.FileSize > 0 {
		field("Size", humanize.Bytes(uint64(j.FileSize)))
	}
	field("Stage", j.StageDescription)
	if j.Analysis.DurationSeconds > 0 {
		field("Duration", formatSeconds(j.Analysis.DurationSeconds))
		field("Format", fmt.Sprintf("%s, %d Hz, %d ch", j.Analysis.Format, j.Analysis.SampleRate, j.Analysis.Channels))
	}
	if len(j.Languages) > 0 {
		names := make([]string, 0, len(j.Languages))
		for _, code := range j.Languages {
			names = append(names, language.DisplayName(code))
		}
		field("Languages", strings.Join(names, ", "))
	}
	field("Severity", string(j.Severity))
	field("Redacted", yesNo(j.Redacted))
	field("Output", j.OutputPath)
	field("Preview", j.PreviewPath)
	field("Retries", fmt.Sprintf("%d/%d", j.RetryCount, j.MaxRetries))
	field("Worker", j.Worker)
	if j.CancelRequested && !j.IsTerminal() {
		field("Cancel", "requested")
	}
	if j.Error != "" {
		fmt.Fprintln(w, renderStatusLine("Error", statusError, j.Error, colorize))
	}
	for _, warning := range j.Warnings {
		fmt.Fprintln(w, renderStatusLine("Warning", statusWarn, warning, colorize))
	}

	if len(j.Stages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, renderTable(stageColumns, buildStageRows(j)))
		fmt.Fprintln(w)
	}
	if len(j.DetectedSpans) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, renderTable(spanColumns, buildSpanRows(j.DetectedSpans)))
		fmt.Fprintln(w)
	}
	if len(j.LanguageBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, renderTable(breakdownColumns, buildBreakdownRows(j.LanguageBreakdown)))
		fmt.Fprintln(w)
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatSeconds(v float64) string {
	total := time.Duration(v * float64(time.Second)).Round(time.Millisecond)
	minutes := int(total / time.Minute)
	seconds := (total % time.Minute).Seconds()
	return fmt.Sprintf("%d:%06.3f", minutes, seconds)
}

func formatStageDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(10 * time.Millisecond).String()
}
