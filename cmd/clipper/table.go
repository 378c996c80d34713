package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"go2tv.app/clipper/capture"
)

// field is one labelled line of a summary table.
type field struct {
	Label string
	Value string
}

// renderDisplays lists displays with the numeric columns right-aligned.
func renderDisplays(displays []capture.Display) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Origin", "Size", "Primary"})
	for _, row := range displayRows(displays) {
		tw.AppendRow(table.Row{row[0], row[1], row[2], row[3]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	if len(displays) == 0 {
		tw.AppendRow(table.Row{"-", "-", "-", "no displays found"})
	}
	return tw.Render()
}

// renderFields prints a headerless label/value table.
func renderFields(fields []field) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	for _, f := range fields {
		tw.AppendRow(table.Row{f.Label, f.Value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 72},
	})
	return tw.Render()
}
