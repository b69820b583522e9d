package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tallybook/tallybook/internal/apiclient"
	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/listing"
	"github.com/tallybook/tallybook/internal/reports/export"
	"github.com/tallybook/tallybook/internal/shared"
)

func newInvoicesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Inspect invoices",
	}
	cmd.AddCommand(newInvoicesListCmd(g), newInvoicesShowCmd(g))
	return cmd
}

func newInvoicesListCmd(g *globals) *cobra.Command {
	var (
		status, contact, from, to string
		page, pageSize            int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices with their derived status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctl := listing.NewController(listing.Invoices, apiclient.NewFetcher[billing.InvoiceView](g.client(), listing.Invoices), nil)

			filters := map[string]string{}
			for key, flag := range map[string]string{
				listing.KeyStatus:  "status",
				listing.KeyContact: "contact",
				listing.KeyFrom:    "from",
				listing.KeyTo:      "to",
			} {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					filters[key] = v
				}
			}
			if len(filters) > 0 {
				if err := ctl.SetFilters(ctx, filters); err != nil {
					return err
				}
			}
			p := shared.Pagination{PageNumber: page, PageSize: pageSize}
			if len(filters) == 0 || p.Normalize() != ctl.State().Pagination {
				if err := ctl.SetPagination(ctx, p); err != nil {
					return err
				}
			}

			state := ctl.State()
			out := cmd.OutOrStdout()
			if len(state.Data) == 0 {
				fmt.Fprintln(out, "No invoices found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Number\tContact\tDate\tDue\tTotal\tOutstanding\tStatus")
			for _, inv := range state.Data {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					inv.Number, inv.ContactID, inv.Date, inv.DueDate,
					export.Amount(inv.TotalInclGST), export.Amount(inv.OutstandingInclGST), inv.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			meta := shared.NewMeta(state.Pagination, state.Total)
			fmt.Fprintf(out, "\npage %d of %d, %d invoices, %d filters active\n",
				meta.PageNumber, meta.TotalPages, meta.Total, ctl.FilterCounter())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "paid, unpaid, overdue, writtenOff or all")
	cmd.Flags().StringVar(&contact, "contact", shared.AllSentinel, "contact id, -1 for all")
	cmd.Flags().StringVar(&from, "from", "", "invoice date from (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "invoice date to (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", shared.DefaultPageSize, "page size")
	return cmd
}

func newInvoicesShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an invoice and its receipts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := g.client().GetInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printInvoice(cmd, inv)
			return nil
		},
	}
}

func printInvoice(cmd *cobra.Command, inv *billing.InvoiceView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  due %s  %s\n", inv.Number, inv.ContactID, inv.DueDate, inv.Status)
	fmt.Fprintf(out, "total %s  paid %s  written off %s  outstanding %s\n",
		export.Amount(inv.TotalInclGST), export.Amount(inv.PaidInclGST),
		export.Amount(inv.WrittenOffInclGST), export.Amount(inv.OutstandingInclGST))
	for _, e := range inv.Entries {
		fmt.Fprintf(out, "  %s  %s  %-8s %s\n", e.ID, e.Date, e.Kind, export.Amount(e.AmountInclGST))
	}
}
