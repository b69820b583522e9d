package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

// Source fetches raw records for reports. Date bounds are inclusive.
type Source interface {
	Shifts(ctx context.Context, filter Filter) ([]Shift, error)
	Expenses(ctx context.Context, filter Filter) ([]Expense, error)
	Receipts(ctx context.Context, filter Filter) ([]Receipt, error)
	Invoices(ctx context.Context, filter Filter) ([]billing.Invoice, error)
	Incidents(ctx context.Context, filter Filter) ([]Incident, error)
}

// Service builds reports. It keeps no state between calls.
type Service struct {
	source Source
	rate   decimal.Decimal
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a report Service.
func NewService(source Source, rate decimal.Decimal, logger *slog.Logger) *Service {
	if rate.IsZero() {
		rate = money.DefaultRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, rate: rate, logger: logger, now: time.Now}
}

// WithNow overrides the clock used to derive invoice statuses.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Service) filter(req Request) (Filter, error) {
	if err := shared.ValidateRange(req.StartDate, req.EndDate); err != nil {
		return Filter{}, err
	}
	if req.Limit < 0 {
		return Filter{}, fmt.Errorf("%w: limit must not be negative", shared.ErrValidation)
	}
	return Filter{
		From:       req.StartDate,
		To:         req.EndDate,
		ContactID:  shared.IDFilter(strings.TrimSpace(req.ContactID)),
		AssigneeID: shared.IDFilter(strings.TrimSpace(req.AssigneeID)),
	}, nil
}

// ShiftReport interleaves shifts and expenses chronologically.
func (s *Service) ShiftReport(ctx context.Context, req Request) (*ShiftReport, error) {
	filter, err := s.filter(req)
	if err != nil {
		return nil, err
	}

	var (
		shifts   []Shift
		expenses []Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shifts, err = s.source.Shifts(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.source.Expenses(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("shift report: %w", err)
	}

	report := &ShiftReport{Data: make([]ShiftItem, 0, len(shifts)+len(expenses))}
	sum := &report.Summary
	for i := range shifts {
		sh := shifts[i]
		line, err := money.Normalize(sh.Line, s.rate)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
		}
		start, end := sh.Start, sh.End
		duration := sh.DurationSeconds
		if duration == 0 && end.After(start) {
			duration = int64(end.Sub(start) / time.Second)
		}
		sum.ShiftsCount++
		sum.ShiftsDuration += duration
		sum.ShiftsTotalInclGST = sum.ShiftsTotalInclGST.Add(line.AmountInclGST)
		report.Data = append(report.Data, ShiftItem{
			ID:          sh.ID,
			Date:        shared.NewDate(start),
			Start:       &start,
			End:         &end,
			Duration:    duration,
			ContactID:   sh.ContactID,
			AssigneeID:  sh.AssigneeID,
			Description: sh.Notes,
			Line:        line,
			at:          start,
		})
	}
	for i := range expenses {
		ex := expenses[i]
		line, err := money.Normalize(ex.Line, s.rate)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", ex.ID, err)
		}
		sum.ExpensesCount++
		sum.ExpensesTotalInclGST = sum.ExpensesTotalInclGST.Add(line.AmountInclGST)
		report.Data = append(report.Data, ShiftItem{
			ID:          ex.ID,
			IsExpense:   true,
			Date:        ex.Date,
			Type:        ex.Type,
			ContactID:   ex.ContactID,
			AssigneeID:  ex.AssigneeID,
			Description: ex.Description,
			Line:        line,
			at:          ex.Date.Time,
		})
	}
	sum.Total = sum.ShiftsTotalInclGST.Add(sum.ExpensesTotalInclGST)

	sort.SliceStable(report.Data, func(i, j int) bool {
		a, b := report.Data[i], report.Data[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.ID < b.ID
	})
	report.Count = len(report.Data)
	report.Data = truncate(report.Data, req.Limit)
	return report, nil
}

// KmReport lists kilometre expenses.
func (s *Service) KmReport(ctx context.Context, req Request) (*KmReport, error) {
	filter, err := s.filter(req)
	if err != nil {
		return nil, err
	}
	filter.ExpenseType = ExpenseTypeKilometre

	expenses, err := s.source.Expenses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("km report: %w", err)
	}

	report := &KmReport{Data: make([]Expense, 0, len(expenses))}
	for _, ex := range expenses {
		if ex.Type != ExpenseTypeKilometre {
			continue
		}
		if ex.Line, err = money.Normalize(ex.Line, s.rate); err != nil {
			return nil, fmt.Errorf("expense %s: %w", ex.ID, err)
		}
		report.Summary.Count++
		report.Summary.Kms = report.Summary.Kms.Add(ex.Kms)
		report.Summary.TotalInclGST = report.Summary.TotalInclGST.Add(ex.AmountInclGST)
		report.Data = append(report.Data, ex)
	}
	sortExpenses(report.Data)
	report.Count = len(report.Data)
	report.Data = truncate(report.Data, req.Limit)
	return report, nil
}

// TaxReport nets received payments against expenses. Contact and assignee
// filters do not apply.
func (s *Service) TaxReport(ctx context.Context, req Request) (*TaxReport, error) {
	filter, err := s.filter(req)
	if err != nil {
		return nil, err
	}
	filter.ContactID, filter.AssigneeID = "", ""

	var (
		receipts []Receipt
		expenses []Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		receipts, err = s.source.Receipts(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.source.Expenses(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tax report: %w", err)
	}

	report := &TaxReport{
		Receipts: make([]Receipt, 0, len(receipts)),
		Expenses: make([]Expense, 0, len(expenses)),
	}
	sum := &report.Summary
	for _, rc := range receipts {
		if rc.Line, err = money.Normalize(rc.Line, s.rate); err != nil {
			return nil, fmt.Errorf("receipt %s: %w", rc.ID, err)
		}
		sum.ReceiptsTotalInclGST = sum.ReceiptsTotalInclGST.Add(rc.AmountInclGST)
		sum.ReceiptsGST = sum.ReceiptsGST.Add(rc.AmountGST)
		report.Receipts = append(report.Receipts, rc)
	}
	for _, ex := range expenses {
		if ex.Line, err = money.Normalize(ex.Line, s.rate); err != nil {
			return nil, fmt.Errorf("expense %s: %w", ex.ID, err)
		}
		sum.ExpensesTotalInclGST = sum.ExpensesTotalInclGST.Add(ex.AmountInclGST)
		sum.ExpensesGST = sum.ExpensesGST.Add(ex.AmountGST)
		report.Expenses = append(report.Expenses, ex)
	}
	sum.NetTotalInclGST = sum.ReceiptsTotalInclGST.Sub(sum.ExpensesTotalInclGST)
	sum.NetGST = sum.ReceiptsGST.Sub(sum.ExpensesGST)

	sort.SliceStable(report.Receipts, func(i, j int) bool {
		a, b := report.Receipts[i], report.Receipts[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
	sortExpenses(report.Expenses)
	report.Receipts = truncate(report.Receipts, req.Limit)
	report.Expenses = truncate(report.Expenses, req.Limit)
	return report, nil
}

// InvoiceReport buckets invoices by their status as of now. Assignee filters
// do not apply.
func (s *Service) InvoiceReport(ctx context.Context, req Request) (*InvoiceReport, error) {
	filter, err := s.filter(req)
	if err != nil {
		return nil, err
	}
	filter.AssigneeID = ""

	invoices, err := s.source.Invoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("invoice report: %w", err)
	}

	now := s.now()
	report := &InvoiceReport{
		Paid:       []billing.InvoiceView{},
		Unpaid:     []billing.InvoiceView{},
		Overdue:    []billing.InvoiceView{},
		WrittenOff: []billing.InvoiceView{},
	}
	for i := range invoices {
		inv := invoices[i]
		if inv.Total, err = money.Normalize(inv.Total, s.rate); err != nil {
			return nil, fmt.Errorf("invoice %s: %w", inv.ID, err)
		}
		view := inv.View(now)
		total := view.TotalInclGST
		switch view.Status {
		case billing.StatusPaid:
			report.Summary.Paid = report.Summary.Paid.Add(total)
			report.Paid = append(report.Paid, view)
		case billing.StatusOverdue:
			report.Summary.Overdue = report.Summary.Overdue.Add(total)
			report.Overdue = append(report.Overdue, view)
		case billing.StatusWrittenOff:
			report.Summary.WrittenOff = report.Summary.WrittenOff.Add(total)
			report.WrittenOff = append(report.WrittenOff, view)
		default:
			report.Summary.Unpaid = report.Summary.Unpaid.Add(total)
			report.Unpaid = append(report.Unpaid, view)
		}
	}
	for _, bucket := range []*[]billing.InvoiceView{&report.Paid, &report.Unpaid, &report.Overdue, &report.WrittenOff} {
		sortInvoices(*bucket)
		*bucket = truncate(*bucket, req.Limit)
	}
	return report, nil
}

// IncidentReport lists incidents. Assignee filters do not apply.
func (s *Service) IncidentReport(ctx context.Context, req Request) (*IncidentReport, error) {
	filter, err := s.filter(req)
	if err != nil {
		return nil, err
	}
	filter.AssigneeID = ""

	incidents, err := s.source.Incidents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("incident report: %w", err)
	}
	sort.SliceStable(incidents, func(i, j int) bool {
		a, b := incidents[i], incidents[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
	if incidents == nil {
		incidents = []Incident{}
	}
	return &IncidentReport{
		Summary: IncidentSummary{Count: len(incidents)},
		Data:    truncate(incidents, req.Limit),
	}, nil
}

// ListExpenses pages expenses for the expense list screen.
func (s *Service) ListExpenses(ctx context.Context, req ExpenseListRequest) (shared.Page[Expense], error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return shared.Page[Expense]{}, fmt.Errorf("%w: from %s is after to %s", shared.ErrInvalidDateRange, req.From, req.To)
	}
	expenseType := req.Type
	if expenseType == "all" {
		expenseType = ""
	}
	expenses, err := s.source.Expenses(ctx, Filter{
		From:        req.From,
		To:          req.To,
		ContactID:   shared.IDFilter(req.ContactID),
		AssigneeID:  shared.IDFilter(req.AssigneeID),
		ExpenseType: expenseType,
	})
	if err != nil {
		return shared.Page[Expense]{}, fmt.Errorf("list expenses: %w", err)
	}
	search := strings.ToLower(strings.TrimSpace(req.Search))
	out := make([]Expense, 0, len(expenses))
	for _, ex := range expenses {
		if search != "" && !strings.Contains(strings.ToLower(ex.Description), search) {
			continue
		}
		if ex.Line, err = money.Normalize(ex.Line, s.rate); err != nil {
			return shared.Page[Expense]{}, fmt.Errorf("expense %s: %w", ex.ID, err)
		}
		out = append(out, ex)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return shared.Paginate(out, req.Pagination), nil
}

func sortExpenses(items []Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
}

func sortInvoices(items []billing.InvoiceView) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
}

// truncate caps a breakdown for display. Summaries are computed beforehand.
func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
