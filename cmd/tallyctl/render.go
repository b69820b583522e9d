package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tallybook/tallybook/internal/reports/export"
)

// writeText prints a report table for a terminal.
func writeText(w io.Writer, t export.Table) error {
	fmt.Fprintf(w, "%s\n%s\n\n", t.Title, t.Period)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range t.Summary {
		fmt.Fprintf(tw, "%s\t%s\n", p.Label, p.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, section := range t.Sections {
		fmt.Fprintln(w)
		if len(t.Sections) > 1 {
			fmt.Fprintf(w, "%s (%d)\n", section.Name, len(section.Rows))
		}
		if len(section.Rows) == 0 {
			fmt.Fprintln(w, "  no rows")
			continue
		}
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(section.Columns, "\t"))
		for _, row := range section.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
