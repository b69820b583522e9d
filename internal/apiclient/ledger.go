package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/shared"
)

// ReceiptResult is the server's answer to a ledger mutation.
type ReceiptResult struct {
	Receipt *billing.Entry       `json:"receipt,omitempty"`
	Invoice *billing.InvoiceView `json:"invoice"`
}

// RecordReceipt posts a payment or write-off. Amounts are checked locally
// before anything is sent.
func (c *Client) RecordReceipt(ctx context.Context, input billing.ReceiptInput) (*ReceiptResult, error) {
	if !input.AmountInclGST.IsPositive() {
		return nil, fmt.Errorf("%w: amountInclGst must be greater than zero", shared.ErrInvalidAmount)
	}
	switch input.Kind {
	case billing.EntryPayment, billing.EntryWriteOff:
	default:
		return nil, fmt.Errorf("%w: unknown receiptType %q", shared.ErrValidation, input.Kind)
	}
	if input.InvoiceID == "" {
		return nil, fmt.Errorf("%w: idInvoice is required", shared.ErrValidation)
	}
	var out ReceiptResult
	if err := c.do(ctx, http.MethodPost, "/receipts", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReceipt removes one ledger entry.
func (c *Client) DeleteReceipt(ctx context.Context, id string) (*billing.InvoiceView, error) {
	var out ReceiptResult
	if err := c.do(ctx, http.MethodDelete, "/receipts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Invoice, nil
}

// GetInvoice fetches an invoice with its balance and status.
func (c *Client) GetInvoice(ctx context.Context, id string) (*billing.InvoiceView, error) {
	var out billing.InvoiceView
	if err := c.do(ctx, http.MethodGet, "/invoices/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
