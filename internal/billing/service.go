package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

// Repository defines data access for invoices and their ledgers.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	FindEntry(ctx context.Context, id string) (*Entry, error)
}

// TxRepository is the transactional view used for ledger mutations.
type TxRepository interface {
	// LockInvoice loads an invoice with its entries and holds it until commit.
	LockInvoice(ctx context.Context, id string) (*Invoice, error)
	InsertInvoice(ctx context.Context, inv Invoice) error
	InsertEntry(ctx context.Context, e Entry) error
	DeleteEntry(ctx context.Context, id string) error
}

// ReceiptEvent announces a ledger change to interested collaborators.
type ReceiptEvent struct {
	EntryID       string          `json:"entryId"`
	InvoiceID     string          `json:"invoiceId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ContactID     string          `json:"contactId"`
	Kind          EntryKind       `json:"kind"`
	AmountInclGST decimal.Decimal `json:"amountInclGst"`
	Outstanding   decimal.Decimal `json:"outstandingInclGst"`
	Status        Status          `json:"status"`
}

// Notifier receives receipt events, e.g. to queue a customer notification.
type Notifier interface {
	ReceiptRecorded(ctx context.Context, event ReceiptEvent) error
}

// Recorder observes ledger outcomes.
type Recorder interface {
	LedgerEntryRecorded(kind string)
	LedgerEntryRejected(reason string)
}

// Service applies ledger rules on top of a Repository.
type Service struct {
	repo     Repository
	locker   shared.Locker
	rate     decimal.Decimal
	logger   *slog.Logger
	notifier Notifier
	recorder Recorder
	now      func() time.Time
}

// ServiceConfig carries optional collaborators.
type ServiceConfig struct {
	Locker   shared.Locker
	Rate     decimal.Decimal
	Logger   *slog.Logger
	Notifier Notifier
	Recorder Recorder
}

// NewService builds a Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:     repo,
		locker:   cfg.Locker,
		rate:     cfg.Rate,
		logger:   cfg.Logger,
		notifier: cfg.Notifier,
		recorder: cfg.Recorder,
		now:      time.Now,
	}
	if s.locker == nil {
		s.locker = shared.NewKeyedMutex()
	}
	if s.rate.IsZero() {
		s.rate = money.DefaultRate
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Rate returns the configured GST rate.
func (s *Service) Rate() decimal.Decimal {
	return s.rate
}

// IssueInvoice creates an invoice with an empty ledger.
func (s *Service) IssueInvoice(ctx context.Context, input IssueInput) (*InvoiceView, error) {
	if strings.TrimSpace(input.Number) == "" || strings.TrimSpace(input.ContactID) == "" {
		return nil, fmt.Errorf("%w: number and contact are required", shared.ErrValidation)
	}
	if input.Date.IsZero() {
		input.Date = shared.NewDate(s.now())
	}
	if input.DueDate.IsZero() {
		input.DueDate = input.Date
	}
	if input.Date.After(input.DueDate) {
		return nil, fmt.Errorf("%w: due date %s is before invoice date %s", shared.ErrInvalidDateRange, input.DueDate, input.Date)
	}

	var (
		total money.Line
		err   error
	)
	switch input.Basis {
	case BasisInclGST:
		total, err = money.FromInclGST(input.Amount, input.IsGSTFree, s.rate)
	case BasisExclGST:
		total, err = money.FromExclGST(input.Amount, input.IsGSTFree, s.rate)
	default:
		return nil, fmt.Errorf("%w: unknown basis %q", shared.ErrValidation, input.Basis)
	}
	if err != nil {
		return nil, err
	}

	inv := Invoice{
		ID:         uuid.NewString(),
		Number:     input.Number,
		ContactID:  input.ContactID,
		AssigneeID: input.AssigneeID,
		Date:       input.Date,
		DueDate:    input.DueDate,
		Total:      total,
		Notes:      input.Notes,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertInvoice(ctx, inv)
	}); err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}
	view := inv.View(s.now())
	return &view, nil
}

// GetInvoice returns an invoice with its balance and status.
func (s *Service) GetInvoice(ctx context.Context, id string) (*InvoiceView, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	view := inv.View(s.now())
	return &view, nil
}

// ListInvoices lists invoices with derived statuses. The status filter runs
// after derivation because status is never stored.
func (s *Service) ListInvoices(ctx context.Context, req InvoiceListRequest) (shared.Page[InvoiceView], error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return shared.Page[InvoiceView]{}, fmt.Errorf("%w: from %s is after to %s", shared.ErrInvalidDateRange, req.From, req.To)
	}
	invoices, err := s.repo.ListInvoices(ctx, InvoiceFilter{
		ContactID: shared.IDFilter(req.ContactID),
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return shared.Page[InvoiceView]{}, fmt.Errorf("list invoices: %w", err)
	}
	now := s.now()
	wanted := Status(req.Status)
	if req.Status == "all" {
		wanted = ""
	}
	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		view := invoices[i].View(now)
		if wanted != "" && view.Status != wanted {
			continue
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].Date.Equal(views[j].Date.Time) {
			return views[i].Date.Time.After(views[j].Date.Time)
		}
		return views[i].Number > views[j].Number
	})
	return shared.Paginate(views, req.Pagination), nil
}

// RecordReceipt appends a payment or write-off to an invoice ledger.
func (s *Service) RecordReceipt(ctx context.Context, input ReceiptInput) (*InvoiceView, *Entry, error) {
	entry, err := s.buildEntry(input)
	if err != nil {
		s.reject("invalid")
		return nil, nil, err
	}

	release, err := s.locker.Lock(ctx, shared.InvoiceLockKey(input.InvoiceID))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var updated *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if err := inv.Record(entry); err != nil {
			return err
		}
		recorded := inv.Entries[len(inv.Entries)-1]
		if err := tx.InsertEntry(ctx, recorded); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		entry = recorded
		updated = inv
		return nil
	})
	if err != nil {
		s.reject(rejectReason(err))
		return nil, nil, err
	}

	view := updated.View(s.now())
	if s.recorder != nil {
		s.recorder.LedgerEntryRecorded(string(entry.Kind))
	}
	s.logger.Info("receipt recorded",
		slog.String("invoice_id", updated.ID),
		slog.String("entry_id", entry.ID),
		slog.String("kind", string(entry.Kind)),
		slog.String("amount", entry.AmountInclGST.StringFixed(2)),
		slog.String("status", string(view.Status)),
	)
	s.notify(ctx, view, entry)
	return &view, &entry, nil
}

// DeleteReceipt removes one ledger entry; every total is derived again.
func (s *Service) DeleteReceipt(ctx context.Context, entryID string) (*InvoiceView, error) {
	existing, err := s.repo.FindEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, shared.InvoiceLockKey(existing.InvoiceID))
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, existing.InvoiceID)
		if err != nil {
			return err
		}
		if _, err := inv.Remove(entryID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entryID); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt removed", slog.String("invoice_id", updated.ID), slog.String("entry_id", entryID))
	view := updated.View(s.now())
	return &view, nil
}

// StatusSummary counts invoices and their outstanding balance per status.
type StatusSummary struct {
	Counts      map[Status]int
	Outstanding map[Status]decimal.Decimal
}

// SummarizeStatuses derives the status of every invoice as of now.
func (s *Service) SummarizeStatuses(ctx context.Context) (StatusSummary, error) {
	invoices, err := s.repo.ListInvoices(ctx, InvoiceFilter{})
	if err != nil {
		return StatusSummary{}, fmt.Errorf("summarize statuses: %w", err)
	}
	summary := StatusSummary{Counts: make(map[Status]int), Outstanding: make(map[Status]decimal.Decimal)}
	now := s.now()
	for i := range invoices {
		view := invoices[i].View(now)
		summary.Counts[view.Status]++
		summary.Outstanding[view.Status] = summary.Outstanding[view.Status].Add(view.OutstandingInclGST)
	}
	return summary, nil
}

func (s *Service) buildEntry(input ReceiptInput) (Entry, error) {
	if strings.TrimSpace(input.InvoiceID) == "" {
		return Entry{}, fmt.Errorf("%w: idInvoice is required", shared.ErrValidation)
	}
	if !input.AmountInclGST.IsPositive() {
		return Entry{}, fmt.Errorf("%w: amountInclGst must be greater than zero", shared.ErrInvalidAmount)
	}
	entry := Entry{
		ID:            uuid.NewString(),
		InvoiceID:     input.InvoiceID,
		Kind:          input.Kind,
		Date:          input.Date,
		AmountInclGST: money.Round2(input.AmountInclGST),
		Notes:         strings.TrimSpace(input.Notes),
		CreatedAt:     s.now().UTC(),
	}
	if entry.Date.IsZero() {
		entry.Date = shared.NewDate(s.now())
	}
	switch input.Kind {
	case EntryPayment:
		method := input.PaymentMethod
		if method == "" {
			return Entry{}, fmt.Errorf("%w: paymentMethod is required for payments", shared.ErrValidation)
		}
		entry.PaymentMethod = method
		if method == MethodOther {
			other := strings.TrimSpace(input.OtherPaymentMethod)
			if other == "" {
				return Entry{}, fmt.Errorf("%w: otherPaymentMethod is required when paymentMethod is other", shared.ErrValidation)
			}
			entry.OtherPaymentMethod = other
		}
	case EntryWriteOff:
		entry.PaymentMethod = MethodWriteOff
	default:
		return Entry{}, fmt.Errorf("%w: unknown receiptType %q", shared.ErrValidation, input.Kind)
	}
	return entry, nil
}

func (s *Service) notify(ctx context.Context, view InvoiceView, entry Entry) {
	if s.notifier == nil {
		return
	}
	event := ReceiptEvent{
		EntryID:       entry.ID,
		InvoiceID:     view.ID,
		InvoiceNumber: view.Number,
		ContactID:     view.ContactID,
		Kind:          entry.Kind,
		AmountInclGST: entry.AmountInclGST,
		Outstanding:   view.OutstandingInclGST,
		Status:        view.Status,
	}
	if err := s.notifier.ReceiptRecorded(ctx, event); err != nil {
		// The ledger row is committed; the notification is retried by the queue, not here.
		s.logger.Warn("receipt notification failed", slog.String("entry_id", entry.ID), slog.Any("error", err))
	}
}

func (s *Service) reject(reason string) {
	if s.recorder != nil {
		s.recorder.LedgerEntryRejected(reason)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrAmountExceedsOutstanding):
		return "exceeds_outstanding"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrInvalidAmount):
		return "invalid"
	default:
		return "error"
	}
}
