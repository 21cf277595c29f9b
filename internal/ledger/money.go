package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places amounts are rounded to
// when presented. Stored amounts keep full precision.
const DisplayPlaces = 2

// DateLayout is the layout of dates on the wire and in the database.
const DateLayout = "2006-01-02"

// ParseAmount parses a decimal string like "7500000" or "7,500,000.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParsePositiveAmount parses an amount and rejects zero and negative values.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with thousands separators, e.g.
// 181916666.666 -> "181,916,666.67".
func FormatAmount(d decimal.Decimal) string {
	r := d.Abs().Round(DisplayPlaces)
	whole := r.IntPart()
	frac := r.Sub(decimal.NewFromInt(whole)).StringFixed(DisplayPlaces)
	out := humanize.Comma(whole) + strings.TrimPrefix(frac, "0")
	if d.IsNegative() && !r.IsZero() {
		out = "-" + out
	}
	return out
}

// FormatSigned renders negative amounts in accounting parentheses.
func FormatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + FormatAmount(d.Abs()) + ")"
	}
	return FormatAmount(d)
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
