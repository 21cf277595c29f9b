package depreciation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/keylock"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
)

// Outcome says what RecordPeriod did for one asset.
type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"
	// OutcomeNothingToDo means the stored figure already matches within
	// tolerance.
	OutcomeNothingToDo             Outcome = "nothing_to_do"
	OutcomeAlreadyFullyDepreciated Outcome = "already_fully_depreciated"
)

type Result struct {
	AssetID       string          `json:"asset_id"`
	AssetName     string          `json:"asset_name"`
	Outcome       Outcome         `json:"outcome"`
	Delta         decimal.Decimal `json:"delta"`
	Calculation   Calculation     `json:"calculation"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// Detail is one line of a batch report.
type Detail struct {
	AssetID       string          `json:"asset_id"`
	AssetName     string          `json:"asset_name,omitempty"`
	Outcome       Outcome         `json:"outcome,omitempty"`
	Delta         decimal.Decimal `json:"delta"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Report is the output of a batch run.
type Report struct {
	AsOf      time.Time `json:"as_of"`
	Processed int       `json:"processed"`
	Updated   int       `json:"updated"`
	Errors    []string  `json:"errors"`
	Details   []Detail  `json:"details"`
	// Cancelled is set when the context ended before every asset ran.
	Cancelled bool `json:"cancelled,omitempty"`
}

// DefaultTolerance is the smallest delta that gets posted.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Recorder brings stored accumulated depreciation up to date and posts
// the matching expense and contra-asset entries.
type Recorder struct {
	store     *store.Store
	engine    *posting.Engine
	tolerance decimal.Decimal
	locks     keylock.Map
}

func NewRecorder(s *store.Store, e *posting.Engine, tolerance decimal.Decimal) *Recorder {
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	return &Recorder{store: s, engine: e, tolerance: tolerance}
}

// RecordPeriod catches one asset up to periodDate. The asset update and
// the posting commit together; a second call for the same date finds a
// delta within tolerance and posts nothing.
func (r *Recorder) RecordPeriod(ctx context.Context, assetID string, periodDate time.Time) (*Result, error) {
	unlock := r.locks.Lock(assetID)
	defer unlock()

	periodDate = ledger.Day(periodDate)
	var res *Result
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		a, err := tx.GetAsset(ctx, assetID)
		if err != nil {
			return err
		}
		if !a.Consistent() {
			slog.ErrorContext(ctx, "inconsistent fixed asset",
				"asset_id", a.ID,
				"value", a.Value.String(),
				"accumulated_depreciation", a.AccumulatedDepreciation.String())
			return fmt.Errorf("%w: asset %s has accumulated %s against value %s",
				ledger.ErrInconsistentAsset, a.ID, a.AccumulatedDepreciation, a.Value)
		}

		calc := Calculate(*a, periodDate)
		delta := calc.AccumulatedDepreciation.Sub(a.AccumulatedDepreciation)
		res = &Result{AssetID: a.ID, AssetName: a.Name, Delta: delta, Calculation: calc}

		// At end of life the remainder is posted whatever its size so the
		// asset closes at exactly zero.
		closing := calc.IsFullyDepreciated && delta.IsPositive()
		if delta.LessThanOrEqual(r.tolerance) && !closing {
			res.Outcome = OutcomeNothingToDo
			if a.Value.Sub(a.AccumulatedDepreciation).LessThanOrEqual(r.tolerance) {
				res.Outcome = OutcomeAlreadyFullyDepreciated
			}
			return nil
		}

		if err := tx.SetAssetDepreciation(ctx, a.ID, calc.AccumulatedDepreciation, periodDate); err != nil {
			return err
		}
		p, err := r.engine.Post(ctx, tx, posting.Event{
			Date:               periodDate,
			AccountCode:        a.ExpenseAccountCode,
			Amount:             delta,
			Direction:          ledger.Increase,
			Description:        fmt.Sprintf("Depreciation of %s to %s", a.Name, periodDate.Format(ledger.DateLayout)),
			CounterAccountCode: a.ContraAccountCode,
			CreateCounterEntry: true,
			SourceRef:          ledger.DepreciationSource(a.ID),
		})
		if err != nil {
			return fmt.Errorf("post depreciation: %w", err)
		}
		res.Outcome = OutcomeRecorded
		res.CorrelationID = p.CorrelationID
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "depreciation period",
		"asset_id", res.AssetID, "outcome", res.Outcome, "delta", res.Delta.String())
	return res, nil
}

// RunBatch records depreciation as of asOf for every asset with a book
// value above zero. Each asset runs in its own transaction; a failure is
// reported and the batch moves on. Cancelling ctx stops the batch before
// the next asset and keeps what was already committed.
func (r *Recorder) RunBatch(ctx context.Context, asOf time.Time) (*Report, error) {
	report := &Report{AsOf: ledger.Day(asOf), Errors: []string{}, Details: []Detail{}}
	if ctx.Err() != nil {
		report.Cancelled = true
		return report, nil
	}

	assets, err := r.store.ListAssets(ctx, store.AssetFilter{Depreciable: true})
	if err != nil {
		return nil, err
	}

	for _, a := range assets {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		report.Processed++

		res, err := r.RecordPeriod(ctx, a.ID, asOf)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report.Processed--
				report.Cancelled = true
				break
			}
			msg := fmt.Sprintf("asset %s: %v", a.ID, err)
			report.Errors = append(report.Errors, msg)
			report.Details = append(report.Details, Detail{AssetID: a.ID, AssetName: a.Name, Error: err.Error()})
			slog.WarnContext(ctx, "depreciation failed", "asset_id", a.ID, "error", err)
			continue
		}
		if res.Outcome == OutcomeRecorded {
			report.Updated++
		}
		report.Details = append(report.Details, Detail{
			AssetID:       res.AssetID,
			AssetName:     res.AssetName,
			Outcome:       res.Outcome,
			Delta:         res.Delta,
			CorrelationID: res.CorrelationID,
		})
	}

	slog.InfoContext(ctx, "depreciation batch complete",
		"as_of", report.AsOf.Format(ledger.DateLayout),
		"processed", report.Processed,
		"updated", report.Updated,
		"errors", len(report.Errors),
		"cancelled", report.Cancelled)
	return report, nil
}
