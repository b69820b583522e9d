package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

// Status enumerates derived invoice statuses. It is never persisted.
type Status string

const (
	StatusUnpaid     Status = "unpaid"
	StatusPaid       Status = "paid"
	StatusOverdue    Status = "overdue"
	StatusWrittenOff Status = "writtenOff"
)

// Statuses lists every status in report bucket order.
var Statuses = []Status{StatusPaid, StatusUnpaid, StatusOverdue, StatusWrittenOff}

// EntryKind distinguishes payments from write-offs in the ledger.
type EntryKind string

const (
	EntryPayment  EntryKind = "payment"
	EntryWriteOff EntryKind = "writeOff"
)

// Payment methods accepted for payment receipts. Write-offs carry none.
const (
	MethodCash     = "cash"
	MethodBank     = "bankTransfer"
	MethodCard     = "card"
	MethodCheque   = "cheque"
	MethodOther    = "other"
	MethodWriteOff = ""
)

// Entry is one append-only ledger row recorded against an invoice.
type Entry struct {
	ID                 string          `json:"id"`
	InvoiceID          string          `json:"idInvoice"`
	Kind               EntryKind       `json:"receiptType"`
	Date               shared.Date     `json:"date"`
	AmountInclGST      decimal.Decimal `json:"amountInclGst"`
	PaymentMethod      string          `json:"paymentMethod,omitempty"`
	OtherPaymentMethod string          `json:"otherPaymentMethod,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// Invoice is an issued invoice together with its ledger history.
type Invoice struct {
	ID         string      `json:"id"`
	Number     string      `json:"number"`
	ContactID  string      `json:"idContact"`
	AssigneeID string      `json:"idAssignee,omitempty"`
	Date       shared.Date `json:"date"`
	DueDate    shared.Date `json:"dueDate"`
	Total      money.Line  `json:"total"`
	Notes      string      `json:"notes,omitempty"`
	Entries    []Entry     `json:"receipts"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Balance holds the derived ledger totals of one invoice.
type Balance struct {
	TotalInclGST       decimal.Decimal `json:"totalInclGst"`
	PaidInclGST        decimal.Decimal `json:"paidInclGst"`
	WrittenOffInclGST  decimal.Decimal `json:"writtenOffInclGst"`
	OutstandingInclGST decimal.Decimal `json:"outstandingInclGst"`
}

// InvoiceView is an invoice with its balance and status resolved at a point in time.
type InvoiceView struct {
	Invoice
	Balance
	Status Status `json:"status"`
}

// ReceiptInput records a payment or write-off.
type ReceiptInput struct {
	Kind               EntryKind       `json:"receiptType" validate:"required,oneof=payment writeOff"`
	InvoiceID          string          `json:"idInvoice" validate:"required"`
	Date               shared.Date     `json:"date"`
	AmountInclGST      decimal.Decimal `json:"amountInclGst"`
	PaymentMethod      string          `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cash bankTransfer card cheque other"`
	OtherPaymentMethod string          `json:"otherPaymentMethod,omitempty" validate:"max=120"`
	Notes              string          `json:"notes,omitempty" validate:"max=2000"`
}

// Basis names the canonical field an amount was entered as.
type Basis string

const (
	BasisExclGST Basis = "exclGst"
	BasisInclGST Basis = "inclGst"
)

// IssueInput creates an invoice.
type IssueInput struct {
	Number     string          `json:"number" validate:"required,max=64"`
	ContactID  string          `json:"idContact" validate:"required"`
	AssigneeID string          `json:"idAssignee,omitempty"`
	Date       shared.Date     `json:"date"`
	DueDate    shared.Date     `json:"dueDate"`
	Basis      Basis           `json:"basis" validate:"required,oneof=exclGst inclGst"`
	Amount     decimal.Decimal `json:"amount"`
	IsGSTFree  bool            `json:"isGstFree"`
	Notes      string          `json:"notes,omitempty" validate:"max=2000"`
}

// InvoiceFilter narrows repository invoice queries. Empty fields do not filter.
type InvoiceFilter struct {
	ContactID string
	From      shared.Date
	To        shared.Date
}

// InvoiceListRequest is the list endpoint query.
type InvoiceListRequest struct {
	Status    string
	ContactID string
	From      shared.Date
	To        shared.Date
	shared.Pagination
}
