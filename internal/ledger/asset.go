package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FixedAsset is a depreciable asset carried at cost less accumulated
// depreciation.
type FixedAsset struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	AcquisitionDate         time.Time       `json:"acquisition_date"`
	Value                   decimal.Decimal `json:"value"`
	UsefulLife              int             `json:"useful_life"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	BookValue               decimal.Decimal `json:"book_value"`
	AssetAccountCode        string          `json:"asset_account_code"`
	ExpenseAccountCode      string          `json:"expense_account_code"`
	ContraAccountCode       string          `json:"contra_account_code"`
	LastDepreciatedAt       *time.Time      `json:"last_depreciated_at,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}

// ComputeBookValue returns value - accumulated clamped to [0, value].
func ComputeBookValue(value, accumulated decimal.Decimal) decimal.Decimal {
	bv := value.Sub(accumulated)
	if bv.IsNegative() {
		return decimal.Zero
	}
	if bv.GreaterThan(value) {
		return value
	}
	return bv
}

// Consistent reports whether 0 <= accumulated <= value.
func (a *FixedAsset) Consistent() bool {
	return !a.AccumulatedDepreciation.IsNegative() && a.AccumulatedDepreciation.LessThanOrEqual(a.Value)
}

// Validate checks the invariants of a new or updated asset.
func (a *FixedAsset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAsset)
	}
	if a.AcquisitionDate.IsZero() {
		return fmt.Errorf("%w: acquisition date is required", ErrInvalidAsset)
	}
	if !a.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrInvalidAsset)
	}
	if a.UsefulLife <= 0 {
		return fmt.Errorf("%w: useful life must be at least one year", ErrInvalidAsset)
	}
	if a.AccumulatedDepreciation.IsNegative() {
		return fmt.Errorf("%w: accumulated depreciation cannot be negative", ErrInvalidAsset)
	}
	if a.AccumulatedDepreciation.GreaterThan(a.Value) {
		return fmt.Errorf("%w: opening depreciation %s exceeds value %s",
			ErrInconsistentAsset, a.AccumulatedDepreciation, a.Value)
	}
	if a.ExpenseAccountCode == "" || a.ContraAccountCode == "" {
		return fmt.Errorf("%w: expense and contra accounts are required", ErrInvalidAsset)
	}
	return nil
}
