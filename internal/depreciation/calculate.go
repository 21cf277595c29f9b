// Package depreciation computes and records straight-line depreciation
// of fixed assets.
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

var (
	daysPerYear  = decimal.RequireFromString("365.25")
	daysPerMonth = decimal.RequireFromString("30.4375")
)

// Calculation is the depreciation state of an asset as of one date.
type Calculation struct {
	AsOf          time.Time `json:"as_of"`
	DaysElapsed   int       `json:"days_elapsed"`
	MonthsElapsed int       `json:"months_elapsed"`
	YearsElapsed  int       `json:"years_elapsed"`
	// AccrualDays counts whole months as 30.4375 days plus the calendar
	// days since the last monthly anniversary of the acquisition date.
	AccrualDays             decimal.Decimal `json:"accrual_days"`
	DailyRate               decimal.Decimal `json:"daily_rate"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	BookValue               decimal.Decimal `json:"book_value"`
	RemainingMonths         int             `json:"remaining_months"`
	RemainingYears          int             `json:"remaining_years"`
	IsFullyDepreciated      bool            `json:"is_fully_depreciated"`
}

// Calculate returns the straight-line depreciation of a as of asOf. It
// has no side effects and ignores the accumulated depreciation stored
// on the asset.
func Calculate(a ledger.FixedAsset, asOf time.Time) Calculation {
	asOf = ledger.Day(asOf)
	acquired := ledger.Day(a.AcquisitionDate)
	c := Calculation{
		AsOf:                    asOf,
		AccrualDays:             decimal.Zero,
		DailyRate:               decimal.Zero,
		AccumulatedDepreciation: decimal.Zero,
		BookValue:               a.Value,
	}
	if a.UsefulLife <= 0 || !a.Value.IsPositive() {
		c.BookValue = decimal.Max(a.Value, decimal.Zero)
		c.IsFullyDepreciated = true
		return c
	}
	life := decimal.NewFromInt(int64(a.UsefulLife))
	c.DailyRate = a.Value.Div(life).Div(daysPerYear)
	c.RemainingMonths = a.UsefulLife * 12
	c.RemainingYears = a.UsefulLife

	if asOf.Before(acquired) {
		return c
	}

	months := wholeMonths(acquired, asOf)
	anniversary := addMonths(acquired, months)
	leftover := daysBetween(anniversary, asOf)

	c.DaysElapsed = daysBetween(acquired, asOf)
	c.MonthsElapsed = months
	c.YearsElapsed = months / 12
	c.AccrualDays = daysPerMonth.Mul(decimal.NewFromInt(int64(months))).Add(decimal.NewFromInt(int64(leftover)))

	// One division keeps a full life exactly equal to value.
	accumulated := a.Value.Mul(c.AccrualDays).Div(life.Mul(daysPerYear))
	if accumulated.GreaterThan(a.Value) {
		accumulated = a.Value
	}
	c.AccumulatedDepreciation = accumulated
	c.BookValue = ledger.ComputeBookValue(a.Value, accumulated)
	c.RemainingMonths = max(0, a.UsefulLife*12-months)
	c.RemainingYears = max(0, a.UsefulLife-c.YearsElapsed)
	c.IsFullyDepreciated = c.BookValue.IsZero() || c.YearsElapsed >= a.UsefulLife
	return c
}

// addMonths moves t forward n calendar months, clamping the day to the
// end of the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, last), 0, 0, 0, 0, time.UTC)
}

// wholeMonths counts the monthly anniversaries of from that fall on or
// before to.
func wholeMonths(from, to time.Time) int {
	n := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	for n > 0 && addMonths(from, n).After(to) {
		n--
	}
	return max(n, 0)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
