package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallybook/tallybook/internal/apiclient"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/reports/export"
	"github.com/tallybook/tallybook/internal/shared"
)

func newReportCmd(g *globals) *cobra.Command {
	var (
		start, end        string
		contact, assignee string
		limit             int
		format, out       string
	)
	cmd := &cobra.Command{
		Use:       "report <shifts|kms|tax|invoices|incidents>",
		Short:     "Generate a report for a date range",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"shifts", "kms", "tax", "invoices", "incidents"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := reports.Request{ContactID: contact, AssigneeID: assignee, Limit: limit}
			var err error
			if req.StartDate, err = shared.ParseDate(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if req.EndDate, err = shared.ParseDate(end); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			kind := reports.Kind(args[0])
			result, err := fetchReport(cmd, g.client(), kind, req)
			if err != nil {
				return err
			}
			table, err := export.Build(kind, req, result)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeReport(w, format, table)
		},
	}
	cmd.Flags().StringVarP(&start, "start", "s", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&contact, "contact", "", "contact id, -1 for all")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee id, -1 for all")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum breakdown rows, 0 for no limit")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func fetchReport(cmd *cobra.Command, c *apiclient.Client, kind reports.Kind, req reports.Request) (any, error) {
	ctx := cmd.Context()
	switch kind {
	case reports.KindShifts:
		return c.ShiftReport(ctx, req)
	case reports.KindKms:
		return c.KmReport(ctx, req)
	case reports.KindTax:
		return c.TaxReport(ctx, req)
	case reports.KindInvoices:
		return c.InvoiceReport(ctx, req)
	case reports.KindIncidents:
		return c.IncidentReport(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unknown report %q", shared.ErrValidation, kind)
	}
}

func writeReport(w io.Writer, format string, table export.Table) error {
	switch format {
	case "text", "":
		return writeText(w, table)
	case "csv":
		return export.WriteCSV(w, table)
	case "pdf":
		return export.WritePDF(w, table)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrValidation, format)
	}
}
