// Package export renders report results as CSV and PDF documents.
package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/shared"
)

var printer = message.NewPrinter(language.MustParse("en-AU"))

// Amount formats a monetary value as Australian dollars.
func Amount(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// Pair is a labelled summary value.
type Pair struct {
	Label string
	Value string
}

// Section is one breakdown table of a report.
type Section struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Table is the format-neutral shape shared by the CSV and PDF writers.
type Table struct {
	Title    string
	Period   string
	Summary  []Pair
	Sections []Section
}

func period(req reports.Request) string {
	return fmt.Sprintf("%s to %s", dateLabel(req.StartDate), dateLabel(req.EndDate))
}

// ShiftTable lays out a shift report.
func ShiftTable(req reports.Request, r *reports.ShiftReport) Table {
	rows := make([][]string, 0, len(r.Data))
	for _, item := range r.Data {
		kind, duration := "Shift", formatDuration(item.Duration)
		if item.IsExpense {
			kind, duration = "Expense", ""
		}
		rows = append(rows, []string{
			item.Date.String(), kind, item.ContactID, item.AssigneeID, duration,
			item.Description, Amount(item.AmountExclGST), Amount(item.AmountGST), Amount(item.AmountInclGST),
		})
	}
	return Table{
		Title:  "Shift Report",
		Period: period(req),
		Summary: []Pair{
			{"Shifts", strconv.Itoa(r.Summary.ShiftsCount)},
			{"Hours", formatDuration(r.Summary.ShiftsDuration)},
			{"Shifts total", Amount(r.Summary.ShiftsTotalInclGST)},
			{"Expenses", strconv.Itoa(r.Summary.ExpensesCount)},
			{"Expenses total", Amount(r.Summary.ExpensesTotalInclGST)},
			{"Total", Amount(r.Summary.Total)},
		},
		Sections: []Section{{
			Name:    "Breakdown",
			Columns: []string{"Date", "Kind", "Contact", "Assignee", "Hours", "Description", "Excl GST", "GST", "Incl GST"},
			Rows:    rows,
		}},
	}
}

// KmTable lays out a kilometre report.
func KmTable(req reports.Request, r *reports.KmReport) Table {
	return Table{
		Title:  "Kilometre Report",
		Period: period(req),
		Summary: []Pair{
			{"Claims", strconv.Itoa(r.Summary.Count)},
			{"Kilometres", printer.Sprintf("%.1f", r.Summary.Kms.InexactFloat64())},
			{"Total", Amount(r.Summary.TotalInclGST)},
		},
		Sections: []Section{expenseSection("Breakdown", r.Data)},
	}
}

// TaxTable lays out a tax report.
func TaxTable(req reports.Request, r *reports.TaxReport) Table {
	receipts := make([][]string, 0, len(r.Receipts))
	for _, rc := range r.Receipts {
		receipts = append(receipts, []string{
			rc.Date.String(), rc.InvoiceNumber, rc.ContactID, rc.PaymentMethod,
			Amount(rc.AmountExclGST), Amount(rc.AmountGST), Amount(rc.AmountInclGST),
		})
	}
	s := r.Summary
	return Table{
		Title:  "Tax Report",
		Period: period(req),
		Summary: []Pair{
			{"Receipts", Amount(s.ReceiptsTotalInclGST)},
			{"Expenses", Amount(s.ExpensesTotalInclGST)},
			{"Net", Amount(s.NetTotalInclGST)},
			{"GST collected", Amount(s.ReceiptsGST)},
			{"GST paid", Amount(s.ExpensesGST)},
			{"Net GST", Amount(s.NetGST)},
		},
		Sections: []Section{
			{
				Name:    "Receipts",
				Columns: []string{"Date", "Invoice", "Contact", "Method", "Excl GST", "GST", "Incl GST"},
				Rows:    receipts,
			},
			expenseSection("Expenses", r.Expenses),
		},
	}
}

// InvoiceTable lays out an invoice status report, one section per status.
func InvoiceTable(req reports.Request, r *reports.InvoiceReport) Table {
	section := func(name string, views []billing.InvoiceView) Section {
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			rows = append(rows, []string{
				v.Number, v.ContactID, v.Date.String(), v.DueDate.String(),
				Amount(v.TotalInclGST), Amount(v.PaidInclGST), Amount(v.WrittenOffInclGST), Amount(v.OutstandingInclGST),
			})
		}
		return Section{
			Name:    name,
			Columns: []string{"Number", "Contact", "Date", "Due", "Total", "Paid", "Written off", "Outstanding"},
			Rows:    rows,
		}
	}
	return Table{
		Title:  "Invoice Report",
		Period: period(req),
		Summary: []Pair{
			{"Paid", Amount(r.Summary.Paid)},
			{"Unpaid", Amount(r.Summary.Unpaid)},
			{"Overdue", Amount(r.Summary.Overdue)},
			{"Written off", Amount(r.Summary.WrittenOff)},
		},
		Sections: []Section{
			section("Paid", r.Paid),
			section("Unpaid", r.Unpaid),
			section("Overdue", r.Overdue),
			section("Written off", r.WrittenOff),
		},
	}
}

// IncidentTable lays out an incident report.
func IncidentTable(req reports.Request, r *reports.IncidentReport) Table {
	rows := make([][]string, 0, len(r.Data))
	for _, in := range r.Data {
		rows = append(rows, []string{in.Date.String(), in.ContactID, in.AssigneeID, in.Severity, in.Title, in.Description})
	}
	return Table{
		Title:   "Incident Report",
		Period:  period(req),
		Summary: []Pair{{"Incidents", strconv.Itoa(r.Summary.Count)}},
		Sections: []Section{{
			Name:    "Breakdown",
			Columns: []string{"Date", "Contact", "Assignee", "Severity", "Title", "Description"},
			Rows:    rows,
		}},
	}
}

func expenseSection(name string, expenses []reports.Expense) Section {
	rows := make([][]string, 0, len(expenses))
	for _, ex := range expenses {
		kms := ""
		if ex.Type == reports.ExpenseTypeKilometre {
			kms = ex.Kms.StringFixed(1)
		}
		rows = append(rows, []string{
			ex.Date.String(), ex.Type, ex.ContactID, kms, ex.Description,
			Amount(ex.AmountExclGST), Amount(ex.AmountGST), Amount(ex.AmountInclGST),
		})
	}
	return Section{
		Name:    name,
		Columns: []string{"Date", "Type", "Contact", "Km", "Description", "Excl GST", "GST", "Incl GST"},
		Rows:    rows,
	}
}

func formatDuration(seconds int64) string {
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).StringFixed(2)
}

func dateLabel(d shared.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

// Build lays out any report result produced by reports.Service.
func Build(kind reports.Kind, req reports.Request, result any) (Table, error) {
	switch v := result.(type) {
	case *reports.ShiftReport:
		return ShiftTable(req, v), nil
	case *reports.KmReport:
		return KmTable(req, v), nil
	case *reports.TaxReport:
		return TaxTable(req, v), nil
	case *reports.InvoiceReport:
		return InvoiceTable(req, v), nil
	case *reports.IncidentReport:
		return IncidentTable(req, v), nil
	default:
		return Table{}, fmt.Errorf("%w: report %q cannot be exported", shared.ErrNotFound, kind)
	}
}
