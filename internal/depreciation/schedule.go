package depreciation

import (
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

type Granularity string

const (
	Yearly  Granularity = "yearly"
	Monthly Granularity = "monthly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Yearly:
		return Yearly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want yearly or monthly)", s)
	}
}

// Period is one row of a depreciation schedule. Start and End are both
// inclusive.
type Period struct {
	Index                   int             `json:"index"`
	Start                   time.Time       `json:"start"`
	End                     time.Time       `json:"end"`
	BeginningValue          decimal.Decimal `json:"beginning_value"`
	PeriodDepreciation      decimal.Decimal `json:"period_depreciation"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	EndingValue             decimal.Decimal `json:"ending_value"`
}

// residual is the largest remainder the final period absorbs.
var residual = decimal.RequireFromString("0.01")

// Schedule projects the depreciation of a over calendar periods from its
// acquisition date until the book value reaches zero. The first period
// runs from the acquisition date to the end of its calendar period, so
// it carries only the share of depreciation accrued in that time. Each
// period's accumulated figure is Calculate as of the day after it ends,
// which keeps the schedule in step with recorded depreciation.
//
// The sequence is lazy, finite and can be ranged over any number of
// times.
func Schedule(a ledger.FixedAsset, g Granularity) iter.Seq[Period] {
	return func(yield func(Period) bool) {
		if a.UsefulLife <= 0 || !a.Value.IsPositive() {
			return
		}
		start := ledger.Day(a.AcquisitionDate)
		accumulated := decimal.Zero
		for i := 1; ; i++ {
			next := periodEnd(start, g).AddDate(0, 0, 1)
			calc := Calculate(a, next)

			p := Period{
				Index:          i,
				Start:          start,
				End:            next.AddDate(0, 0, -1),
				BeginningValue: a.Value.Sub(accumulated),
			}
			acc := calc.AccumulatedDepreciation
			if a.Value.Sub(acc).LessThan(residual) {
				acc = a.Value
			}
			p.PeriodDepreciation = acc.Sub(accumulated)
			p.AccumulatedDepreciation = acc
			p.EndingValue = a.Value.Sub(acc)
			accumulated = acc

			if !yield(p) || p.EndingValue.IsZero() {
				return
			}
			start = next
		}
	}
}

// Rows collects a schedule into a slice.
func Rows(a ledger.FixedAsset, g Granularity) []Period {
	var out []Period
	for p := range Schedule(a, g) {
		out = append(out, p)
	}
	return out
}

func periodEnd(t time.Time, g Granularity) time.Time {
	if g == Monthly {
		return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}
