package ledger

import (
	"fmt"
	"strings"
	"time"
)

type AccountType string

const (
	TypeAsset       AccountType = "asset"
	TypeContraAsset AccountType = "contra_asset"
	TypeLiability   AccountType = "liability"
	TypeEquity      AccountType = "equity"
	TypeRevenue     AccountType = "revenue"
	TypeExpense     AccountType = "expense"
)

var AllAccountTypes = []AccountType{
	TypeAsset,
	TypeContraAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

// Well-known account categories. Category is free-form; these are the
// values the engines look for when choosing counter accounts.
const (
	CategoryCash                    = "cash"
	CategoryBank                    = "bank"
	CategoryReceivable              = "receivable"
	CategoryWorkInProgress          = "work in progress"
	CategoryFixedAsset              = "fixed asset"
	CategoryAccumulatedDepreciation = "accumulated depreciation"
	CategoryPayable                 = "payable"
	CategoryDepreciation            = "depreciation"
)

type Account struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Category  string      `json:"category"`
	CreatedAt time.Time   `json:"created_at"`
}

// Side is the debit/credit column of an entry. It is derived from the
// account type and the entry direction and only matters for reporting.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// NormalSide returns the side on which an account of type t increases.
// Assets and expenses are debit-normal; everything else is credit-normal.
func NormalSide(t AccountType) Side {
	switch t {
	case TypeAsset, TypeExpense:
		return Debit
	default:
		return Credit
	}
}

// ValidAccountType checks if an account type string is valid.
func ValidAccountType(t AccountType) bool {
	for _, at := range AllAccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// AccountTypeLabel returns a human-readable label for an account type.
func AccountTypeLabel(t AccountType) string {
	switch t {
	case TypeAsset:
		return "Assets"
	case TypeContraAsset:
		return "Contra Assets"
	case TypeLiability:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeRevenue:
		return "Revenue"
	case TypeExpense:
		return "Expenses"
	default:
		return string(t)
	}
}

// IsBalanceSheet reports whether accounts of type t appear on the balance sheet.
func IsBalanceSheet(t AccountType) bool {
	switch t {
	case TypeRevenue, TypeExpense:
		return false
	default:
		return true
	}
}

// HasCategory compares categories case-insensitively.
func (a *Account) HasCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Category), category)
}

// IsCashOrBank reports whether the account holds cash or bank balances.
func (a *Account) IsCashOrBank() bool {
	return a.Type == TypeAsset && (a.HasCategory(CategoryCash) || a.HasCategory(CategoryBank))
}

// Validate checks all account invariants.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return ErrInvalidAccountCode
	}
	if strings.ContainsAny(a.Code, " \t\n/") {
		return fmt.Errorf("%w: %q", ErrInvalidAccountCode, a.Code)
	}
	if !ValidAccountType(a.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidAccountType, a.Type)
	}
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	return nil
}
