// Package money splits amounts into GST-exclusive, GST and GST-inclusive parts.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/internal/shared"
)

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultRate is the GST rate applied when none is configured.
var DefaultRate = decimal.RequireFromString("0.10")

// Line is a monetary amount with its GST breakdown.
type Line struct {
	AmountExclGST decimal.Decimal `json:"amountExclGst"`
	AmountGST     decimal.Decimal `json:"amountGst"`
	AmountInclGST decimal.Decimal `json:"amountInclGst"`
	IsGSTFree     bool            `json:"isGstFree"`
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromExclGST derives a line from its GST-exclusive amount.
func FromExclGST(excl decimal.Decimal, isGSTFree bool, rate decimal.Decimal) (Line, error) {
	if err := checkInputs(excl, rate); err != nil {
		return Line{}, err
	}
	excl = Round2(excl)
	if excl.IsZero() {
		return zeroLine(), nil
	}
	gst := decimal.Zero
	if !isGSTFree {
		gst = Round2(excl.Mul(rate))
	}
	return Line{AmountExclGST: excl, AmountGST: gst, AmountInclGST: excl.Add(gst), IsGSTFree: isGSTFree}, nil
}

// FromInclGST derives a line from its GST-inclusive amount.
func FromInclGST(incl decimal.Decimal, isGSTFree bool, rate decimal.Decimal) (Line, error) {
	if err := checkInputs(incl, rate); err != nil {
		return Line{}, err
	}
	incl = Round2(incl)
	if incl.IsZero() {
		return zeroLine(), nil
	}
	excl := incl
	if !isGSTFree {
		excl = Round2(incl.Div(decimal.NewFromInt(1).Add(rate)))
	}
	return Line{AmountExclGST: excl, AmountGST: incl.Sub(excl), AmountInclGST: incl, IsGSTFree: isGSTFree}, nil
}

// Normalize completes a persisted line. A consistent line is returned as is so
// the field it was persisted with survives; otherwise the line is rebuilt from
// its exclusive amount, falling back to the inclusive one.
func Normalize(l Line, rate decimal.Decimal) (Line, error) {
	if l.Consistent(rate) {
		return l, nil
	}
	if !l.AmountExclGST.IsZero() {
		return FromExclGST(l.AmountExclGST, l.IsGSTFree, rate)
	}
	return FromInclGST(l.AmountInclGST, l.IsGSTFree, rate)
}

// Consistent reports whether the line satisfies every GST invariant for rate.
func (l Line) Consistent(rate decimal.Decimal) bool {
	if l.AmountExclGST.IsNegative() || l.AmountInclGST.IsNegative() {
		return false
	}
	if !l.AmountExclGST.Add(l.AmountGST).Equal(l.AmountInclGST) {
		return false
	}
	if l.AmountInclGST.IsZero() {
		return l.AmountGST.IsZero()
	}
	if l.IsGSTFree {
		return l.AmountGST.IsZero()
	}
	// Either canonical field may have produced the split.
	fromExcl := Round2(l.AmountExclGST.Mul(rate))
	fromIncl := l.AmountInclGST.Sub(Round2(l.AmountInclGST.Div(decimal.NewFromInt(1).Add(rate))))
	return l.AmountGST.Equal(fromExcl) || l.AmountGST.Equal(fromIncl)
}

// Add sums two lines component-wise. The result is GST-free only when both are.
func (l Line) Add(o Line) Line {
	return Line{
		AmountExclGST: l.AmountExclGST.Add(o.AmountExclGST),
		AmountGST:     l.AmountGST.Add(o.AmountGST),
		AmountInclGST: l.AmountInclGST.Add(o.AmountInclGST),
		IsGSTFree:     l.IsGSTFree && o.IsGSTFree,
	}
}

// Zero returns the empty GST-free line.
func Zero() Line {
	return zeroLine()
}

func zeroLine() Line {
	return Line{AmountExclGST: decimal.Zero, AmountGST: decimal.Zero, AmountInclGST: decimal.Zero, IsGSTFree: true}
}

func checkInputs(amount, rate decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", shared.ErrInvalidAmount, amount)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: gst rate %s is negative", shared.ErrInvalidAmount, rate)
	}
	return nil
}

// FromFloat converts a float input, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: non-finite value", shared.ErrInvalidAmount)
	}
	return decimal.NewFromFloat(f), nil
}

// ParseRate parses a configured GST rate such as "0.10".
func ParseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return DefaultRate, nil
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse gst rate %q: %w", s, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("money: gst rate %s out of range [0, 1)", rate)
	}
	return rate, nil
}
