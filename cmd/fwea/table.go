package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right-aligned.
type column struct {
	title   string
	numeric bool
}

var (
	queueListColumns = []column{{title: "ID"}, {title: "Name"}, {title: "Status"}, {title: "Progress", numeric: true}, {title: "Severity"}, {title: "Created"}}
	statusColumns    = []column{{title: "Status"}, {title: "Count", numeric: true}}
	stageColumns     = []column{{title: "Stage"}, {title: "Status"}, {title: "Retries", numeric: true}, {title: "Duration", numeric: true}, {title: "Detail"}}
	spanColumns      = []column{{title: "Start", numeric: true}, {title: "End", numeric: true}, {title: "Language"}, {title: "Severity"}, {title: "Words"}}
	breakdownColumns = []column{{title: "Language"}, {title: "Findings", numeric: true}, {title: "Severity"}}
	metricColumns    = []column{{title: "Metric"}, {title: "Value", numeric: true}}
)

// renderTable draws rows under cols with the rounded style. Short rows are
// padded with empty cells; extra cells are dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
