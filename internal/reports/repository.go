package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/shared"
)

// PGSource reads report inputs from PostgreSQL. Invoices come from the
// billing repository so the ledger is loaded one way only.
type PGSource struct {
	pool     *pgxpool.Pool
	invoices *billing.PGRepository
}

// NewPGSource constructs a PGSource.
func NewPGSource(pool *pgxpool.Pool, invoices *billing.PGRepository) *PGSource {
	return &PGSource{pool: pool, invoices: invoices}
}

// where accumulates numbered predicates.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func dateRange(w *where, column string, filter Filter) {
	if !filter.From.IsZero() {
		w.add(column+" >= $%d", db.DateParam(filter.From))
	}
	if !filter.To.IsZero() {
		w.add(column+" <= $%d", db.DateParam(filter.To))
	}
}

// shiftDay buckets shifts by their UTC start date, matching shared.NewDate.
const shiftDay = "(start_at AT TIME ZONE 'UTC')::date"

func people(w *where, filter Filter) {
	if filter.ContactID != "" {
		w.add("contact_id = $%d", filter.ContactID)
	}
	if filter.AssigneeID != "" {
		w.add("assignee_id = $%d", filter.AssigneeID)
	}
}

// Shifts returns shifts starting within the range.
func (s *PGSource) Shifts(ctx context.Context, filter Filter) ([]Shift, error) {
	var w where
	dateRange(&w, shiftDay, filter)
	people(&w, filter)

	rows, err := s.pool.Query(ctx, `
		SELECT id, contact_id, assignee_id, start_at, end_at, duration_seconds,
			amount_excl_gst, amount_gst, amount_incl_gst, is_gst_free, notes
		FROM shifts`+w.sql()+` ORDER BY start_at, id`, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Shift, error) {
		var (
			sh             Shift
			assignee       pgtype.Text
			excl, gst, inc pgtype.Numeric
		)
		err := row.Scan(&sh.ID, &sh.ContactID, &assignee, &sh.Start, &sh.End, &sh.DurationSeconds,
			&excl, &gst, &inc, &sh.IsGSTFree, &sh.Notes)
		sh.AssigneeID = assignee.String
		sh.Start, sh.End = sh.Start.UTC(), sh.End.UTC()
		sh.AmountExclGST, sh.AmountGST, sh.AmountInclGST = db.Decimal(excl), db.Decimal(gst), db.Decimal(inc)
		return sh, err
	})
}

// Expenses returns expenses dated within the range, optionally of one type.
func (s *PGSource) Expenses(ctx context.Context, filter Filter) ([]Expense, error) {
	var w where
	dateRange(&w, "date", filter)
	people(&w, filter)
	if filter.ExpenseType != "" {
		w.add("type = $%d", filter.ExpenseType)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, contact_id, assignee_id, date, type, kms,
			amount_excl_gst, amount_gst, amount_incl_gst, is_gst_free, description
		FROM expenses`+w.sql()+` ORDER BY date, id`, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Expense, error) {
		var (
			ex                  Expense
			assignee            pgtype.Text
			date                pgtype.Date
			kms, excl, gst, inc pgtype.Numeric
		)
		err := row.Scan(&ex.ID, &ex.ContactID, &assignee, &date, &ex.Type, &kms,
			&excl, &gst, &inc, &ex.IsGSTFree, &ex.Description)
		ex.AssigneeID = assignee.String
		ex.Date = shared.NewDate(date.Time)
		ex.Kms = db.Decimal(kms)
		ex.AmountExclGST, ex.AmountGST, ex.AmountInclGST = db.Decimal(excl), db.Decimal(gst), db.Decimal(inc)
		return ex, err
	})
}

// Receipts returns payments (never write-offs) dated within the range. The
// GST-exclusive split is left for normalization.
func (s *PGSource) Receipts(ctx context.Context, filter Filter) ([]Receipt, error) {
	var w where
	w.add("r.receipt_type = $%d", string(billing.EntryPayment))
	dateRange(&w, "r.date", filter)
	if filter.ContactID != "" {
		w.add("i.contact_id = $%d", filter.ContactID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.invoice_id, i.number, i.contact_id, r.date, r.payment_method,
			r.amount_incl_gst, i.is_gst_free
		FROM receipts r
		JOIN invoices i ON i.id = r.invoice_id`+w.sql()+` ORDER BY r.date, r.id`, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Receipt, error) {
		var (
			rc     Receipt
			date   pgtype.Date
			amount pgtype.Numeric
		)
		err := row.Scan(&rc.ID, &rc.InvoiceID, &rc.InvoiceNumber, &rc.ContactID, &date, &rc.PaymentMethod,
			&amount, &rc.IsGSTFree)
		rc.Date = shared.NewDate(date.Time)
		rc.AmountInclGST = db.Decimal(amount)
		return rc, err
	})
}

// Invoices returns invoices dated within the range with their ledgers.
func (s *PGSource) Invoices(ctx context.Context, filter Filter) ([]billing.Invoice, error) {
	return s.invoices.ListInvoices(ctx, billing.InvoiceFilter{
		ContactID: filter.ContactID,
		From:      filter.From,
		To:        filter.To,
	})
}

// Incidents returns incidents dated within the range.
func (s *PGSource) Incidents(ctx context.Context, filter Filter) ([]Incident, error) {
	var w where
	dateRange(&w, "date", filter)
	people(&w, filter)

	rows, err := s.pool.Query(ctx, `
		SELECT id, contact_id, assignee_id, date, title, description, severity
		FROM incidents`+w.sql()+` ORDER BY date, id`, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Incident, error) {
		var (
			in       Incident
			assignee pgtype.Text
			date     pgtype.Date
		)
		err := row.Scan(&in.ID, &in.ContactID, &assignee, &date, &in.Title, &in.Description, &in.Severity)
		in.AssigneeID = assignee.String
		in.Date = shared.NewDate(date.Time)
		return in, err
	})
}
