package apiclient

import (
	"context"
	"net/http"

	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/shared"
)

func report[T any](ctx context.Context, c *Client, kind reports.Kind, req reports.Request) (*T, error) {
	if err := shared.ValidateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	var out T
	if err := c.do(ctx, http.MethodPost, "/reports/"+string(kind), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShiftReport generates the shift report.
func (c *Client) ShiftReport(ctx context.Context, req reports.Request) (*reports.ShiftReport, error) {
	return report[reports.ShiftReport](ctx, c, reports.KindShifts, req)
}

// KmReport generates the kilometre report.
func (c *Client) KmReport(ctx context.Context, req reports.Request) (*reports.KmReport, error) {
	return report[reports.KmReport](ctx, c, reports.KindKms, req)
}

// TaxReport generates the tax report. The contact filter is not sent.
func (c *Client) TaxReport(ctx context.Context, req reports.Request) (*reports.TaxReport, error) {
	req.ContactID = ""
	return report[reports.TaxReport](ctx, c, reports.KindTax, req)
}

// InvoiceReport generates the invoice status report.
func (c *Client) InvoiceReport(ctx context.Context, req reports.Request) (*reports.InvoiceReport, error) {
	req.AssigneeID = ""
	return report[reports.InvoiceReport](ctx, c, reports.KindInvoices, req)
}

// IncidentReport generates the incident report.
func (c *Client) IncidentReport(ctx context.Context, req reports.Request) (*reports.IncidentReport, error) {
	req.AssigneeID = ""
	return report[reports.IncidentReport](ctx, c, reports.KindIncidents, req)
}
