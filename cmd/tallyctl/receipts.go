package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/shared"
)

func newReceiptsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Record or remove payments and write-offs",
	}
	cmd.AddCommand(newReceiptsRecordCmd(g), newReceiptsDeleteCmd(g))
	return cmd
}

func newReceiptsRecordCmd(g *globals) *cobra.Command {
	var (
		invoiceID, kind, amount string
		date, method, notes     string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a payment or write-off against an invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: amount %q", shared.ErrInvalidAmount, amount)
			}
			input := billing.ReceiptInput{
				Kind:          billing.EntryKind(kind),
				InvoiceID:     invoiceID,
				AmountInclGST: value,
				PaymentMethod: method,
				Notes:         notes,
			}
			if input.Kind == billing.EntryWriteOff {
				input.PaymentMethod = billing.MethodWriteOff
			}
			if date == "" {
				input.Date = shared.NewDate(time.Now())
			} else if input.Date, err = shared.ParseDate(date); err != nil {
				return err
			}

			res, err := g.client().RecordReceipt(cmd.Context(), input)
			if err != nil {
				return err
			}
			if res.Receipt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %s\n", res.Receipt.Kind, res.Receipt.ID)
			}
			if res.Invoice != nil {
				printInvoice(cmd, res.Invoice)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&invoiceID, "invoice", "", "invoice id")
	cmd.Flags().StringVar(&kind, "kind", string(billing.EntryPayment), "payment or writeOff")
	cmd.Flags().StringVar(&amount, "amount", "", "GST-inclusive amount")
	cmd.Flags().StringVar(&date, "date", "", "receipt date (YYYY-MM-DD), today when empty")
	cmd.Flags().StringVar(&method, "method", billing.MethodBank, "payment method")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newReceiptsDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <receipt-id>",
		Short: "Remove a ledger entry and re-derive the invoice status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := g.client().DeleteReceipt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			if inv != nil {
				printInvoice(cmd, inv)
			}
			return nil
		},
	}
}
