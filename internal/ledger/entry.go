package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction says whether an entry increases or decreases the natural
// balance of its account.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

func ValidDirection(d Direction) bool {
	return d == Increase || d == Decrease
}

func (d Direction) Opposite() Direction {
	if d == Increase {
		return Decrease
	}
	return Increase
}

// SideFor returns the debit/credit side an entry with direction d lands
// on for an account of type t.
func SideFor(t AccountType, d Direction) Side {
	if d == Increase {
		return NormalSide(t)
	}
	return NormalSide(t).Opposite()
}

// DirectionFor is the inverse of SideFor.
func DirectionFor(t AccountType, s Side) Direction {
	if s == NormalSide(t) {
		return Increase
	}
	return Decrease
}

// Entry is one immutable ledger line.
type Entry struct {
	ID                    int64           `json:"id,omitempty"`
	CorrelationID         string          `json:"correlation_id"`
	Date                  time.Time       `json:"date"`
	AccountCode           string          `json:"account_code"`
	Direction             Direction       `json:"direction"`
	Side                  Side            `json:"side"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description"`
	ProjectID             string          `json:"project_id,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	IsCounterEntry        bool            `json:"is_counter_entry"`
	CounterAccountCode    string          `json:"counter_account_code,omitempty"`
	ReversesCorrelationID string          `json:"reverses_correlation_id,omitempty"`
	SourceRef             string          `json:"source_ref,omitempty"`
	CreatedAt             time.Time       `json:"created_at,omitempty"`
}

// Signed returns the amount as a debit-positive number.
func (e *Entry) Signed() decimal.Decimal {
	if e.Side == Debit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Posting groups the entries written by one call to the posting engine.
type Posting struct {
	CorrelationID string  `json:"correlation_id"`
	Entries       []Entry `json:"entries"`
}

// Balanced reports whether debits equal credits across the posting.
func (p *Posting) Balanced() bool {
	sum := decimal.Zero
	for i := range p.Entries {
		sum = sum.Add(p.Entries[i].Signed())
	}
	return sum.IsZero()
}

// SourceRef prefixes used to tie postings back to the record that caused them.
const (
	SourceBilling      = "billing:"
	SourceDepreciation = "depreciation:"
)

func BillingSource(billingID string) string   { return SourceBilling + billingID }
func DepreciationSource(assetID string) string { return SourceDepreciation + assetID }

// BalanceSheetLine is one account on the balance sheet, signed in its
// natural direction (contra accounts are negative).
type BalanceSheetLine struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Type        AccountType     `json:"type"`
	Balance     decimal.Decimal `json:"balance"`
}

type BalanceSheet struct {
	AsOf             time.Time          `json:"as_of"`
	Assets           []BalanceSheetLine `json:"assets"`
	Liabilities      []BalanceSheetLine `json:"liabilities"`
	Equity           []BalanceSheetLine `json:"equity"`
	TotalAssets      decimal.Decimal    `json:"total_assets"`
	TotalLiabilities decimal.Decimal    `json:"total_liabilities"`
	TotalEquity      decimal.Decimal    `json:"total_equity"`
	NetIncome        decimal.Decimal    `json:"net_income"`
	// WorkInProgress is derived from project costs and billings, not
	// from ledger entries, and is not part of TotalAssets.
	WorkInProgress   decimal.Decimal    `json:"work_in_progress"`
	Balanced         bool               `json:"balanced"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// TrialBalanceLine represents a single line in the trial balance.
type TrialBalanceLine struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type TrialBalance struct {
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Balanced    bool               `json:"balanced"`
	GeneratedAt time.Time          `json:"generated_at"`
}
