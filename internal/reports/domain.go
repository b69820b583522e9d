// Package reports aggregates shifts, expenses, receipts, invoices and
// incidents into report summaries with drill-down breakdowns.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

// ExpenseTypeKilometre marks mileage claims.
const ExpenseTypeKilometre = "kilometre"

// Kind names a report.
type Kind string

const (
	KindShifts    Kind = "shifts"
	KindKms       Kind = "kms"
	KindTax       Kind = "tax"
	KindInvoices  Kind = "invoices"
	KindIncidents Kind = "incidents"
)

// Shift is a worked shift with its charge.
type Shift struct {
	ID              string    `json:"id"`
	ContactID       string    `json:"idContact"`
	AssigneeID      string    `json:"idAssignee"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds int64     `json:"duration"`
	money.Line
	Notes string `json:"notes,omitempty"`
}

// Expense is a claimed expense. Kilometre expenses carry Kms.
type Expense struct {
	ID         string          `json:"id"`
	ContactID  string          `json:"idContact"`
	AssigneeID string          `json:"idAssignee"`
	Date       shared.Date     `json:"date"`
	Type       string          `json:"type"`
	Kms        decimal.Decimal `json:"kms"`
	money.Line
	Description string `json:"description,omitempty"`
}

// Incident is a logged incident. It carries no money.
type Incident struct {
	ID          string      `json:"id"`
	ContactID   string      `json:"idContact"`
	AssigneeID  string      `json:"idAssignee"`
	Date        shared.Date `json:"date"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Severity    string      `json:"severity,omitempty"`
}

// Receipt is a payment ledger entry projected with its invoice's contact.
type Receipt struct {
	ID            string      `json:"id"`
	InvoiceID     string      `json:"idInvoice"`
	InvoiceNumber string      `json:"invoiceNumber"`
	ContactID     string      `json:"idContact"`
	Date          shared.Date `json:"date"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	money.Line
}

// Request selects the records of a report. Reports ignore the filters they
// do not support.
type Request struct {
	StartDate  shared.Date `json:"startDate"`
	EndDate    shared.Date `json:"endDate"`
	ContactID  string      `json:"idContact,omitempty" validate:"max=64"`
	AssigneeID string      `json:"idAssignee,omitempty" validate:"max=64"`
	Limit      int         `json:"limit,omitempty" validate:"gte=0"`
}

// Filter is what a Source receives. Empty ids do not filter.
type Filter struct {
	From        shared.Date
	To          shared.Date
	ContactID   string
	AssigneeID  string
	ExpenseType string
}

// ShiftItem is one row of the shift report. Shift rows carry Start, End and
// Duration; expense rows carry Date and Type.
type ShiftItem struct {
	ID          string      `json:"id"`
	IsExpense   bool        `json:"isExpense"`
	Date        shared.Date `json:"date"`
	Start       *time.Time  `json:"start,omitempty"`
	End         *time.Time  `json:"end,omitempty"`
	Duration    int64       `json:"duration,omitempty"`
	Type        string      `json:"type,omitempty"`
	ContactID   string      `json:"idContact"`
	AssigneeID  string      `json:"idAssignee"`
	Description string      `json:"description,omitempty"`
	money.Line

	at time.Time
}

// ShiftSummary totals the shift report.
type ShiftSummary struct {
	ShiftsCount          int             `json:"shiftsCount"`
	ShiftsDuration       int64           `json:"shiftsDuration"`
	ShiftsTotalInclGST   decimal.Decimal `json:"shiftsTotalInclGst"`
	ExpensesCount        int             `json:"expensesCount"`
	ExpensesTotalInclGST decimal.Decimal `json:"expensesTotalInclGst"`
	Total                decimal.Decimal `json:"total"`
}

// ShiftReport is the shift report result.
type ShiftReport struct {
	Summary ShiftSummary `json:"summary"`
	Data    []ShiftItem  `json:"data"`
	Count   int          `json:"count"`
}

// KmSummary totals the kilometre report.
type KmSummary struct {
	Count        int             `json:"count"`
	Kms          decimal.Decimal `json:"kms"`
	TotalInclGST decimal.Decimal `json:"totalInclGst"`
}

// KmReport is the kilometre report result.
type KmReport struct {
	Summary KmSummary `json:"summary"`
	Data    []Expense `json:"data"`
	Count   int       `json:"count"`
}

// TaxSummary nets receipts against expenses, inclusive and GST only.
type TaxSummary struct {
	ReceiptsTotalInclGST decimal.Decimal `json:"receiptsTotalInclGst"`
	ExpensesTotalInclGST decimal.Decimal `json:"expensesTotalInclGst"`
	NetTotalInclGST      decimal.Decimal `json:"netTotalInclGst"`
	ReceiptsGST          decimal.Decimal `json:"receiptsGst"`
	ExpensesGST          decimal.Decimal `json:"expensesGst"`
	NetGST               decimal.Decimal `json:"netGst"`
}

// TaxReport is the tax report result.
type TaxReport struct {
	Summary  TaxSummary `json:"summary"`
	Receipts []Receipt  `json:"receipts"`
	Expenses []Expense  `json:"expenses"`
}

// InvoiceSummary sums invoice totals per derived status.
type InvoiceSummary struct {
	Paid       decimal.Decimal `json:"paid"`
	Unpaid     decimal.Decimal `json:"unpaid"`
	Overdue    decimal.Decimal `json:"overdue"`
	WrittenOff decimal.Decimal `json:"writtenOff"`
}

// InvoiceReport buckets invoices by derived status.
type InvoiceReport struct {
	Summary    InvoiceSummary        `json:"summary"`
	Paid       []billing.InvoiceView `json:"paid"`
	Unpaid     []billing.InvoiceView `json:"unpaid"`
	Overdue    []billing.InvoiceView `json:"overdue"`
	WrittenOff []billing.InvoiceView `json:"writtenOff"`
}

// IncidentSummary counts incidents.
type IncidentSummary struct {
	Count int `json:"count"`
}

// IncidentReport is the incident report result.
type IncidentReport struct {
	Summary IncidentSummary `json:"summary"`
	Data    []Incident      `json:"data"`
}

// ExpenseListRequest is the GET /expenses query.
type ExpenseListRequest struct {
	ContactID  string
	AssigneeID string
	Type       string
	From       shared.Date
	To         shared.Date
	Search     string
	shared.Pagination
}
