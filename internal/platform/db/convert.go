package db

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/shared"
)

// Decimal converts a scanned NUMERIC into a decimal. NULL becomes zero.
func Decimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// NumericParam encodes a decimal as a NUMERIC parameter without float loss.
func NumericParam(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// DateParam encodes a calendar date; the zero date becomes NULL.
func DateParam(d shared.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

// TextParam encodes an optional string; empty becomes NULL.
func TextParam(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
