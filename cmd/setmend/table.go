package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn pairs a header with its cell alignment so each report
// declares its layout in one place.
type tableColumn struct {
	name  string
	right bool
}

func col(name string) tableColumn { return tableColumn{name: name} }

func numCol(name string) tableColumn { return tableColumn{name: name, right: true} }

func printTable(w io.Writer, columns []tableColumn, rows [][]string) {
	if len(columns) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, column := range columns {
		header[i] = column.name
		align := text.AlignLeft
		if column.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
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

	fmt.Fprintln(w, tw.Render())
}
