package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. A zero maxWidth leaves cells untrimmed.
type column struct {
	title    string
	numeric  bool
	maxWidth int
	tint     func(cell string) text.Colors
}

var (
	deviceColumns = []column{
		{title: "#", numeric: true},
		{title: "Device"},
		{title: "Transport"},
		{title: "Zones"},
	}
	historyColumns = []column{
		{title: "ID", numeric: true},
		{title: "When"},
		{title: "Run"},
		{title: "Device"},
		{title: "Zone", numeric: true},
		{title: "Kind"},
		{title: "Patch", numeric: true},
		{title: "Outcome", maxWidth: 60, tint: outcomeColors},
		{title: "Took", numeric: true},
	}
)

// renderTable lays rows out under columns. Short rows are padded with blanks
// and tints apply only when colorize is set.
func renderTable(columns []column, rows [][]string, colorize bool) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			cfg.Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			cfg.WidthMax = col.maxWidth
			cfg.WidthMaxEnforcer = ellipsize
		}
		if colorize && col.tint != nil {
			cfg.Transformer = tintTransformer(col.tint)
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func tintTransformer(tint func(string) text.Colors) text.Transformer {
	return func(val interface{}) string {
		cell := fmt.Sprint(val)
		if colors := tint(cell); len(colors) > 0 {
			return colors.Sprint(cell)
		}
		return cell
	}
}

func outcomeColors(cell string) text.Colors {
	switch {
	case strings.HasPrefix(cell, "failed"):
		return text.Colors{text.FgRed}
	case cell == "ok":
		return text.Colors{text.FgGreen}
	default:
		return nil
	}
}

// ellipsize cuts s to width runes, marking the cut with an ellipsis.
func ellipsize(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// writeJSON encodes v as indented JSON. Chart names are emitted verbatim, so
// HTML escaping is off.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
