package reports

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

type memorySource struct {
	shifts    []Shift
	expenses  []Expense
	receipts  []Receipt
	invoices  []billing.Invoice
	incidents []Incident
	calls     atomic.Int32
	err       error
}

func (m *memorySource) match(f Filter, date shared.Date, contact, assignee string) bool {
	if !f.From.IsZero() && f.From.After(date) {
		return false
	}
	if !f.To.IsZero() && date.After(f.To) {
		return false
	}
	if f.ContactID != "" && f.ContactID != contact {
		return false
	}
	return f.AssigneeID == "" || f.AssigneeID == assignee
}

func (m *memorySource) Shifts(ctx context.Context, f Filter) ([]Shift, error) {
	m.calls.Add(1)
	var out []Shift
	for _, s := range m.shifts {
		if m.match(f, shared.NewDate(s.Start), s.ContactID, s.AssigneeID) {
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *memorySource) Expenses(ctx context.Context, f Filter) ([]Expense, error) {
	m.calls.Add(1)
	var out []Expense
	for _, e := range m.expenses {
		if f.ExpenseType != "" && e.Type != f.ExpenseType {
			continue
		}
		if m.match(f, e.Date, e.ContactID, e.AssigneeID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memorySource) Receipts(ctx context.Context, f Filter) ([]Receipt, error) {
	m.calls.Add(1)
	var out []Receipt
	for _, r := range m.receipts {
		if m.match(f, r.Date, r.ContactID, "") {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memorySource) Invoices(ctx context.Context, f Filter) ([]billing.Invoice, error) {
	m.calls.Add(1)
	var out []billing.Invoice
	for _, inv := range m.invoices {
		if m.match(f, inv.Date, inv.ContactID, "") {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memorySource) Incidents(ctx context.Context, f Filter) ([]Incident, error) {
	m.calls.Add(1)
	var out []Incident
	for _, in := range m.incidents {
		if m.match(f, in.Date, in.ContactID, in.AssigneeID) {
			out = append(out, in)
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func incl(s string) money.Line {
	return money.Line{AmountInclGST: dec(s)}
}

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func day(d int) shared.Date {
	return shared.NewDate(at(d, 0))
}

func march() Request {
	return Request{StartDate: day(1), EndDate: day(31)}
}

func shiftFixture() *memorySource {
	return &memorySource{
		shifts: []Shift{
			{ID: "s1", ContactID: "c1", AssigneeID: "a1", Start: at(3, 9), End: at(3, 10), DurationSeconds: 3600, Line: incl("100")},
			{ID: "s2", ContactID: "c1", AssigneeID: "a2", Start: at(5, 9), End: at(5, 9).Add(30 * time.Minute), DurationSeconds: 1800, Line: incl("50")},
			{ID: "s3", ContactID: "c2", AssigneeID: "a1", Start: at(7, 9), End: at(7, 10).Add(30 * time.Minute), DurationSeconds: 5400, Line: incl("150")},
		},
		expenses: []Expense{
			{ID: "e1", ContactID: "c1", AssigneeID: "a1", Date: day(4), Type: "parking", Line: incl("20")},
			{ID: "e2", ContactID: "c2", AssigneeID: "a1", Date: day(6), Type: ExpenseTypeKilometre, Kms: dec("42.5"), Line: incl("30")},
		},
	}
}

func TestShiftReportScenario(t *testing.T) {
	svc := NewService(shiftFixture(), money.DefaultRate, nil)

	report, err := svc.ShiftReport(context.Background(), march())
	require.NoError(t, err)

	s := report.Summary
	require.Equal(t, 3, s.ShiftsCount)
	require.Equal(t, int64(10800), s.ShiftsDuration)
	require.Equal(t, "300.00", s.ShiftsTotalInclGST.StringFixed(2))
	require.Equal(t, 2, s.ExpensesCount)
	require.Equal(t, "50.00", s.ExpensesTotalInclGST.StringFixed(2))
	require.Equal(t, "350.00", s.Total.StringFixed(2))
	require.Len(t, report.Data, 5)

	var ids []string
	for _, item := range report.Data {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"s1", "e1", "s2", "e2", "s3"}, ids)
	require.True(t, report.Data[1].IsExpense)
	require.False(t, report.Data[0].IsExpense)
	require.Equal(t, "9.09", report.Data[0].AmountGST.StringFixed(2))
}

func TestShiftReportLimitKeepsFullSummary(t *testing.T) {
	svc := NewService(shiftFixture(), money.DefaultRate, nil)
	req := march()
	req.Limit = 2

	report, err := svc.ShiftReport(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, report.Data, 2)
	require.Equal(t, 5, report.Count)
	require.Equal(t, "350.00", report.Summary.Total.StringFixed(2))
}

func TestShiftReportFilters(t *testing.T) {
	svc := NewService(shiftFixture(), money.DefaultRate, nil)
	ctx := context.Background()

	req := march()
	req.AssigneeID = "a1"
	report, err := svc.ShiftReport(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, report.Summary.ShiftsCount)
	require.Equal(t, 2, report.Summary.ExpensesCount)

	req = march()
	req.ContactID = shared.AllSentinel
	report, err = svc.ShiftReport(ctx, req)
	require.NoError(t, err)
	require.Len(t, report.Data, 5)

	req = march()
	req.ContactID = "unknown"
	report, err = svc.ShiftReport(ctx, req)
	require.NoError(t, err)
	require.Empty(t, report.Data)
	require.True(t, report.Summary.Total.IsZero())

	req = Request{StartDate: day(4), EndDate: day(5)}
	report, err = svc.ShiftReport(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, report.Summary.ShiftsCount)
	require.Equal(t, 1, report.Summary.ExpensesCount)
}

func TestReportsRejectInvertedRangeBeforeFetching(t *testing.T) {
	src := shiftFixture()
	svc := NewService(src, money.DefaultRate, nil)
	ctx := context.Background()
	req := Request{StartDate: day(10), EndDate: day(1)}

	_, err := svc.ShiftReport(ctx, req)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	_, err = svc.KmReport(ctx, req)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	_, err = svc.TaxReport(ctx, req)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	_, err = svc.InvoiceReport(ctx, req)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	_, err = svc.IncidentReport(ctx, req)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	require.Zero(t, src.calls.Load())

	_, err = svc.ShiftReport(ctx, Request{EndDate: day(1)})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestShiftReportPropagatesSourceError(t *testing.T) {
	src := shiftFixture()
	src.err = errors.New("db down")
	svc := NewService(src, money.DefaultRate, nil)

	_, err := svc.ShiftReport(context.Background(), march())
	require.ErrorContains(t, err, "db down")
}

func TestKmReport(t *testing.T) {
	src := shiftFixture()
	src.expenses = append(src.expenses, Expense{ID: "e3", Date: day(9), Type: ExpenseTypeKilometre, Kms: dec("10"), Line: money.Line{AmountExclGST: dec("8.80"), IsGSTFree: true}})
	svc := NewService(src, money.DefaultRate, nil)

	report, err := svc.KmReport(context.Background(), march())
	require.NoError(t, err)
	require.Equal(t, 2, report.Summary.Count)
	require.Equal(t, "52.5", report.Summary.Kms.String())
	require.Equal(t, "38.80", report.Summary.TotalInclGST.StringFixed(2))
	require.Equal(t, "e2", report.Data[0].ID)
	require.True(t, report.Data[1].AmountGST.IsZero())
}

func TestTaxReport(t *testing.T) {
	src := shiftFixture()
	src.receipts = []Receipt{
		{ID: "r2", Date: day(8), ContactID: "c1", Line: incl("220")},
		{ID: "r1", Date: day(8), ContactID: "c2", Line: incl("110")},
		{ID: "r0", Date: day(2), ContactID: "c2", Line: money.Line{AmountInclGST: dec("55"), IsGSTFree: true}},
	}
	svc := NewService(src, money.DefaultRate, nil)
	req := march()
	req.ContactID = "c1"

	report, err := svc.TaxReport(context.Background(), req)
	require.NoError(t, err)
	s := report.Summary
	require.Equal(t, "385.00", s.ReceiptsTotalInclGST.StringFixed(2))
	require.Equal(t, "50.00", s.ExpensesTotalInclGST.StringFixed(2))
	require.Equal(t, "335.00", s.NetTotalInclGST.StringFixed(2))
	require.Equal(t, "30.00", s.ReceiptsGST.StringFixed(2))
	require.Equal(t, "4.55", s.ExpensesGST.StringFixed(2))
	require.Equal(t, "25.45", s.NetGST.StringFixed(2))
	require.Equal(t, []string{"r0", "r1", "r2"}, []string{report.Receipts[0].ID, report.Receipts[1].ID, report.Receipts[2].ID})
}

func TestTaxReportIgnoresAssignee(t *testing.T) {
	src := shiftFixture()
	src.receipts = []Receipt{{ID: "r1", Date: day(8), ContactID: "c1", Line: incl("110")}}
	svc := NewService(src, money.DefaultRate, nil)

	all, err := svc.TaxReport(context.Background(), march())
	require.NoError(t, err)

	req := march()
	req.AssigneeID = "a2"
	scoped, err := svc.TaxReport(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "110.00", scoped.Summary.ReceiptsTotalInclGST.StringFixed(2))
	require.Equal(t, "50.00", scoped.Summary.ExpensesTotalInclGST.StringFixed(2))
	require.Equal(t, all.Summary.NetTotalInclGST.StringFixed(2), scoped.Summary.NetTotalInclGST.StringFixed(2))
	require.Equal(t, all.Summary.NetGST.StringFixed(2), scoped.Summary.NetGST.StringFixed(2))
	require.Len(t, scoped.Expenses, len(all.Expenses))
}

func TestInvoiceReportBucketsByStatus(t *testing.T) {
	mk := func(id string, total string, d int, entries ...billing.Entry) billing.Invoice {
		return billing.Invoice{ID: id, Number: id, ContactID: "c1", Date: day(d), DueDate: day(d + 10), Total: incl(total), Entries: entries}
	}
	src := &memorySource{invoices: []billing.Invoice{
		mk("paid", "110", 1, billing.Entry{ID: "p", Kind: billing.EntryPayment, AmountInclGST: dec("110")}),
		mk("unpaid", "220", 20, billing.Entry{ID: "q", Kind: billing.EntryPayment, AmountInclGST: dec("20")}),
		mk("overdue", "330", 2),
		mk("written", "440", 3,
			billing.Entry{ID: "x", Kind: billing.EntryPayment, AmountInclGST: dec("40")},
			billing.Entry{ID: "y", Kind: billing.EntryWriteOff, AmountInclGST: dec("400")}),
		mk("outside", "999", 31),
	}}
	src.invoices[4].Date = shared.NewDate(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	svc := NewService(src, money.DefaultRate, nil)
	svc.WithNow(func() time.Time { return at(25, 12) })

	report, err := svc.InvoiceReport(context.Background(), march())
	require.NoError(t, err)
	require.Equal(t, "110.00", report.Summary.Paid.StringFixed(2))
	require.Equal(t, "220.00", report.Summary.Unpaid.StringFixed(2))
	require.Equal(t, "330.00", report.Summary.Overdue.StringFixed(2))
	require.Equal(t, "440.00", report.Summary.WrittenOff.StringFixed(2))
	require.Len(t, report.Paid, 1)
	require.Len(t, report.Unpaid, 1)
	require.Len(t, report.Overdue, 1)
	require.Len(t, report.WrittenOff, 1)
	require.Equal(t, "200.00", report.Unpaid[0].OutstandingInclGST.StringFixed(2))
}

func TestIncidentReport(t *testing.T) {
	src := &memorySource{incidents: []Incident{
		{ID: "i2", ContactID: "c1", Date: day(9), Title: "Fall"},
		{ID: "i1", ContactID: "c1", Date: day(9), Title: "Medication"},
		{ID: "i0", ContactID: "c2", Date: day(2), Title: "Late"},
	}}
	svc := NewService(src, money.DefaultRate, nil)

	req := march()
	req.Limit = 1
	report, err := svc.IncidentReport(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, report.Summary.Count)
	require.Len(t, report.Data, 1)
	require.Equal(t, "i0", report.Data[0].ID)

	req = march()
	req.ContactID = "c1"
	report, err = svc.IncidentReport(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"i1", "i2"}, []string{report.Data[0].ID, report.Data[1].ID})
}

func TestListExpenses(t *testing.T) {
	src := shiftFixture()
	src.expenses[0].Description = "Parking at Westmead"
	svc := NewService(src, money.DefaultRate, nil)
	ctx := context.Background()

	page, err := svc.ListExpenses(ctx, ExpenseListRequest{Type: "all", ContactID: shared.AllSentinel})
	require.NoError(t, err)
	require.Equal(t, 2, page.Meta.Total)
	require.Equal(t, "e2", page.Data[0].ID)

	page, err = svc.ListExpenses(ctx, ExpenseListRequest{Search: "westmead"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	page, err = svc.ListExpenses(ctx, ExpenseListRequest{Type: ExpenseTypeKilometre})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "e2", page.Data[0].ID)
}
