package output

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderTable prints a pretty table to w. Columns named in rightAligned are right-aligned.
func RenderTable(w io.Writer, headers []string, rows [][]any, rightAligned ...string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	var configs []table.ColumnConfig
	for _, name := range rightAligned {
		configs = append(configs, table.ColumnConfig{Name: name, Align: text.AlignRight})
	}
	if len(configs) > 0 {
		t.SetColumnConfigs(configs)
	}

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
