package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/model"
)

const maxCellWidth = 60

// columnsFor prefers the saved selection when a single stream is shown.
func (a *app) columnsFor(kinds []model.LogKind) []string {
	if len(kinds) == 1 {
		if cols, ok := a.store.Columns(kinds[0]); ok && len(cols) > 0 {
			return cols
		}
	}
	if len(kinds) == 0 {
		kinds = model.AllKinds
	}
	return export.ColumnsForKinds(kinds)
}

func printRecords(w io.Writer, records []model.LogRecord, columns []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = cell(r.String(c))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	if r := []rune(s); len(r) > maxCellWidth {
		return string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

func printPagination(w io.Writer, p *model.Pagination) {
	if p == nil {
		return
	}
	fmt.Fprintf(w, "page %d/%d, %d records\n", p.CurrentPage, p.TotalPages, p.TotalItems)
}
