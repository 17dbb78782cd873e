package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. MaxWidth > 0 soft-wraps longer cells.
type column struct {
	Title    string
	Align    text.Align
	MaxWidth int
}

var (
	indicatorColumns = []column{{Title: "#", Align: text.AlignRight}, {Title: "Step"}, {Title: "Status"}}
	settingsColumns  = []column{{Title: "Setting"}, {Title: "Value", MaxWidth: 60}}
	eventColumns     = []column{
		{Title: "Time"},
		{Title: "Event"},
		{Title: "From"},
		{Title: "To"},
		{Title: "Outcome"},
		{Title: "Error", MaxWidth: 48},
	}
)

// renderTable draws rows under columns. Short rows are padded with blanks and
// extra cells are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.Title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.Align,
			AlignHeader: text.AlignLeft,
		}
		if col.MaxWidth > 0 {
			configs[i].WidthMax = col.MaxWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
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
