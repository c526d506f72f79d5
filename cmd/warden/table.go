package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"warden/internal/checker"
)

// severityCellColors drive the scan summary's severity column so a
// critical row stands out from an informational one at a glance.
var severityCellColors = map[string]text.Colors{
	checker.SeverityInfo.String():     {text.FgCyan},
	checker.SeverityWarning.String():  {text.FgYellow},
	checker.SeverityError.String():    {text.FgRed},
	checker.SeverityCritical.String(): {text.FgRed, text.Bold},
}

func colorSeverityCell(val any) string {
	s := fmt.Sprint(val)
	if colors, ok := severityCellColors[s]; ok {
		return colors.Sprint(s)
	}
	return s
}

// severityTable renders the scan summary: one colored row per severity
// with a right-aligned count.
func severityTable(rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Severity", "Count"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft, Transformer: colorSeverityCell},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// kvTable renders a field/value listing, used by `warden status`.
func kvTable(pairs [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, pair := range pairs {
		tw.AppendRow(table.Row{pair[0], pair[1]})
	}
	return tw.Render()
}
