package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGRepository provides PostgreSQL backed persistence for invoices and receipts.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{q: tx})
	})
}

// GetInvoice retrieves an invoice with its ledger.
func (r *PGRepository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return getInvoice(ctx, r.pool, id, false)
}

// ListInvoices returns invoices matching filter, ledgers included.
func (r *PGRepository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	query := invoiceSelect + ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.ContactID != "" {
		query += fmt.Sprintf(" AND contact_id = $%d", argNum)
		args = append(args, filter.ContactID)
		argNum++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", argNum)
		args = append(args, db.DateParam(filter.From))
		argNum++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND date <= $%d", argNum)
		args = append(args, db.DateParam(filter.To))
	}
	query += " ORDER BY date, number"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	index := make(map[string]int)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		index[inv.ID] = len(invoices)
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	entryRows, err := r.pool.Query(ctx, entrySelect+` WHERE invoice_id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer entryRows.Close()
	for entryRows.Next() {
		e, err := scanEntry(entryRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[e.InvoiceID]; ok {
			invoices[i].Entries = append(invoices[i].Entries, *e)
		}
	}
	return invoices, entryRows.Err()
}

// FindEntry retrieves a single ledger entry.
func (r *PGRepository) FindEntry(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, entrySelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: receipt %s", shared.ErrNotFound, id)
	}
	return e, err
}

type pgTx struct {
	q querier
}

func (t *pgTx) LockInvoice(ctx context.Context, id string) (*Invoice, error) {
	return getInvoice(ctx, t.q, id, true)
}

func (t *pgTx) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO invoices (
			id, number, contact_id, assignee_id, date, due_date,
			amount_excl_gst, amount_gst, amount_incl_gst, is_gst_free, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.Number, inv.ContactID, db.TextParam(inv.AssigneeID), db.DateParam(inv.Date), db.DateParam(inv.DueDate),
		db.NumericParam(inv.Total.AmountExclGST), db.NumericParam(inv.Total.AmountGST), db.NumericParam(inv.Total.AmountInclGST),
		inv.Total.IsGSTFree, inv.Notes, inv.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: invoice number %s already exists", shared.ErrValidation, inv.Number)
	}
	return err
}

func (t *pgTx) InsertEntry(ctx context.Context, e Entry) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO receipts (
			id, invoice_id, receipt_type, date, amount_incl_gst,
			payment_method, other_payment_method, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.InvoiceID, string(e.Kind), db.DateParam(e.Date), db.NumericParam(e.AmountInclGST),
		e.PaymentMethod, e.OtherPaymentMethod, e.Notes, e.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: invoice %s", shared.ErrNotFound, e.InvoiceID)
	}
	return err
}

func (t *pgTx) DeleteEntry(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: receipt %s", shared.ErrNotFound, id)
	}
	return nil
}

const invoiceSelect = `
	SELECT id, number, contact_id, assignee_id, date, due_date,
		amount_excl_gst, amount_gst, amount_incl_gst, is_gst_free, notes, created_at
	FROM invoices`

const entrySelect = `
	SELECT id, invoice_id, receipt_type, date, amount_incl_gst,
		payment_method, other_payment_method, notes, created_at
	FROM receipts`

func getInvoice(ctx context.Context, q querier, id string, forUpdate bool) (*Invoice, error) {
	query := invoiceSelect + ` WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, entrySelect+` WHERE invoice_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		inv.Entries = append(inv.Entries, *e)
	}
	return inv, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv            Invoice
		assignee       pgtype.Text
		date, due      pgtype.Date
		excl, gst, inc pgtype.Numeric
	)
	if err := row.Scan(
		&inv.ID, &inv.Number, &inv.ContactID, &assignee, &date, &due,
		&excl, &gst, &inc, &inv.Total.IsGSTFree, &inv.Notes, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	inv.AssigneeID = assignee.String
	inv.Date = shared.NewDate(date.Time)
	inv.DueDate = shared.NewDate(due.Time)
	inv.Total.AmountExclGST = db.Decimal(excl)
	inv.Total.AmountGST = db.Decimal(gst)
	inv.Total.AmountInclGST = db.Decimal(inc)
	return &inv, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e      Entry
		kind   string
		date   pgtype.Date
		amount pgtype.Numeric
	)
	if err := row.Scan(
		&e.ID, &e.InvoiceID, &kind, &date, &amount,
		&e.PaymentMethod, &e.OtherPaymentMethod, &e.Notes, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Kind = EntryKind(strings.TrimSpace(kind))
	e.Date = shared.NewDate(date.Time)
	e.AmountInclGST = db.Decimal(amount)
	return &e, nil
}
