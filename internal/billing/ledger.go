package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/money"
	"github.com/tallybook/tallybook/internal/shared"
)

// DeriveStatus resolves the status of an invoice from its balance. It is pure:
// the same inputs always give the same status.
func DeriveStatus(outstanding, writtenOff decimal.Decimal, due shared.Date, now time.Time) Status {
	settled := !money.Round2(outstanding).IsPositive()
	switch {
	case settled && money.Round2(writtenOff).IsPositive():
		return StatusWrittenOff
	case settled:
		return StatusPaid
	case !due.IsZero() && shared.NewDate(now).After(due):
		return StatusOverdue
	default:
		return StatusUnpaid
	}
}

// Balance sums the ledger.
func (inv *Invoice) Balance() Balance {
	paid := decimal.Zero
	writtenOff := decimal.Zero
	for _, e := range inv.Entries {
		switch e.Kind {
		case EntryWriteOff:
			writtenOff = writtenOff.Add(e.AmountInclGST)
		default:
			paid = paid.Add(e.AmountInclGST)
		}
	}
	total := inv.Total.AmountInclGST
	return Balance{
		TotalInclGST:       total,
		PaidInclGST:        paid,
		WrittenOffInclGST:  writtenOff,
		OutstandingInclGST: total.Sub(paid).Sub(writtenOff),
	}
}

// Status derives the invoice status as of now.
func (inv *Invoice) Status(now time.Time) Status {
	b := inv.Balance()
	return DeriveStatus(b.OutstandingInclGST, b.WrittenOffInclGST, inv.DueDate, now)
}

// View resolves balance and status as of now.
func (inv *Invoice) View(now time.Time) InvoiceView {
	b := inv.Balance()
	return InvoiceView{
		Invoice: *inv,
		Balance: b,
		Status:  DeriveStatus(b.OutstandingInclGST, b.WrittenOffInclGST, inv.DueDate, now),
	}
}

// Record appends e after checking it against the outstanding balance. On
// error the ledger is left unchanged.
func (inv *Invoice) Record(e Entry) error {
	if !e.AmountInclGST.IsPositive() {
		return fmt.Errorf("%w: receipt amount must be greater than zero", shared.ErrInvalidAmount)
	}
	amount := money.Round2(e.AmountInclGST)
	outstanding := money.Round2(inv.Balance().OutstandingInclGST)
	if amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: %s exceeds %s outstanding on invoice %s",
			shared.ErrAmountExceedsOutstanding, amount.StringFixed(2), outstanding.StringFixed(2), inv.ID)
	}
	e.AmountInclGST = amount
	e.InvoiceID = inv.ID
	inv.Entries = append(inv.Entries, e)
	return nil
}

// Remove drops one ledger entry by id and returns it.
func (inv *Invoice) Remove(entryID string) (Entry, error) {
	for i, e := range inv.Entries {
		if e.ID != entryID {
			continue
		}
		entries := make([]Entry, 0, len(inv.Entries)-1)
		entries = append(entries, inv.Entries[:i]...)
		entries = append(entries, inv.Entries[i+1:]...)
		inv.Entries = entries
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w: receipt %s on invoice %s", shared.ErrNotFound, entryID, inv.ID)
}
